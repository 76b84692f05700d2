// Package testutil provides test node types and graph builders for testing.
package testutil

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/dukex/flowcook/pkg/graph"
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/dukex/flowcook/pkg/registry"
	"github.com/stretchr/testify/require"
)

// ErrFlaky is the error returned by the "flaky" test node when its fail toggle is on.
var ErrFlaky = errors.New("flaky failure")

// Factory is a configurable NodeFactory for tests.
type Factory struct {
	id            string
	shape         models.Shape
	params        []models.ParameterSpec
	cook          protocol.TransformFunc
	newCook       func() protocol.TransformFunc
	timeDependent bool
}

// NewFactory creates a test factory whose transforms run cook. The default shape has
// one input and one output.
func NewFactory(id string, cook protocol.TransformFunc, overrides ...func(*Factory)) *Factory {
	f := &Factory{
		id:   id,
		cook: cook,
		shape: models.Shape{
			Inputs:  []models.Socket{{Name: "input", Multi: true}},
			Outputs: models.SingleOutput("output", true),
		},
	}

	for _, override := range overrides {
		override(f)
	}

	return f
}

// WithShape sets the socket layout.
func WithShape(shape models.Shape) func(*Factory) {
	return func(f *Factory) {
		f.shape = shape
	}
}

// WithParams sets the parameter declarations.
func WithParams(specs ...models.ParameterSpec) func(*Factory) {
	return func(f *Factory) {
		f.params = specs
	}
}

// WithTimeDependent marks the transforms as time-dependent.
func WithTimeDependent() func(*Factory) {
	return func(f *Factory) {
		f.timeDependent = true
	}
}

// WithPerInstance builds a fresh transform function for every node, for stateful test types.
func WithPerInstance(build func() protocol.TransformFunc) func(*Factory) {
	return func(f *Factory) {
		f.newCook = build
	}
}

func (f *Factory) Create(string) (protocol.Transform, error) {
	cook := f.cook
	if f.newCook != nil {
		cook = f.newCook()
	}

	return &transform{cook: cook, timeDependent: f.timeDependent}, nil
}

func (f *Factory) ID() string                         { return f.id }
func (f *Factory) Name() string                       { return f.id }
func (f *Factory) Description() string                { return "test node " + f.id }
func (f *Factory) Shape() models.Shape                { return f.shape }
func (f *Factory) Parameters() []models.ParameterSpec { return f.params }

type transform struct {
	cook          protocol.TransformFunc
	timeDependent bool
}

func (t *transform) Cook(ctx context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
	return t.cook(ctx, in)
}

func (t *transform) TimeDependent() bool { return t.timeDependent }

// Registry returns a registry holding the standard test node types:
//
//	source  no inputs, emits its "lines" parameter
//	upper   upper-cases every input line
//	prefix  prepends its "prefix" parameter to every line
//	concat  dynamic inputs, concatenated in index order
//	flaky   passthrough that fails while "fail" is on and warns with "warn"
//	panic   panics on every cook
//	clock   time-dependent, emits how many times it has cooked
func Registry() *registry.Registry {
	r := registry.NewRegistry(Logger())

	r.RegisterNode(NewFactory("source", func(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
		return protocol.Single(in.Params.StringList("lines")), nil
	},
		WithShape(models.Shape{Outputs: models.SingleOutput("lines", true)}),
		WithParams(models.ParameterSpec{Name: "lines", Type: models.ParamStringList}),
	))

	r.RegisterNode(NewFactory("upper", func(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
		out := make([]string, 0, len(in.Input(0)))
		for _, line := range in.Input(0) {
			out = append(out, strings.ToUpper(line))
		}

		return protocol.Single(out), nil
	}))

	r.RegisterNode(NewFactory("prefix", func(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
		out := make([]string, 0, len(in.Input(0)))
		for _, line := range in.Input(0) {
			out = append(out, in.Params.String("prefix")+line)
		}

		return protocol.Single(out), nil
	}, WithParams(models.ParameterSpec{Name: "prefix", Type: models.ParamString})))

	r.RegisterNode(NewFactory("concat", func(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
		var out []string
		for _, lines := range in.Inputs {
			out = append(out, lines...)
		}

		return protocol.Single(out), nil
	}, WithShape(models.Shape{
		Inputs:        []models.Socket{{Name: "input", Multi: true}},
		Outputs:       models.SingleOutput("output", true),
		DynamicInputs: true,
	})))

	r.RegisterNode(NewFactory("flaky", func(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
		if in.Params.Bool("fail") {
			return nil, ErrFlaky
		}

		var warnings []string
		if w := in.Params.String("warn"); w != "" {
			warnings = append(warnings, w)
		}

		return protocol.Single(in.Input(0), warnings...), nil
	}, WithParams(
		models.ParameterSpec{Name: "fail", Type: models.ParamToggle},
		models.ParameterSpec{Name: "warn", Type: models.ParamString},
		models.ParameterSpec{Name: "kick", Type: models.ParamButton},
		models.ParameterSpec{Name: "label", Type: models.ParamString, Default: "fixed", ReadOnly: true},
	)))

	r.RegisterNode(NewFactory("panic", func(context.Context, *protocol.CookInput) (*protocol.CookOutput, error) {
		panic("boom")
	}))

	r.RegisterNode(NewFactory("clock", nil,
		WithShape(models.Shape{Outputs: models.SingleOutput("ticks", false)}),
		WithTimeDependent(),
		WithPerInstance(func() protocol.TransformFunc {
			ticks := 0

			return func(context.Context, *protocol.CookInput) (*protocol.CookOutput, error) {
				ticks++

				return protocol.Single([]string{strconv.Itoa(ticks)}), nil
			}
		}),
	))

	return r
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewGraph returns an empty graph over the standard test node types.
func NewGraph(t testing.TB, opts ...graph.Option) *graph.Graph {
	t.Helper()

	return graph.New(Registry(), append([]graph.Option{graph.WithLogger(Logger())}, opts...)...)
}

// MustCreate creates a node or fails the test.
func MustCreate(t testing.TB, g *graph.Graph, nodeType, name, parent string) *graph.Node {
	t.Helper()

	n, err := g.Create(nodeType, name, parent)
	require.NoError(t, err)

	return n
}

// MustSource creates a source node emitting lines.
func MustSource(t testing.TB, g *graph.Graph, name string, lines ...string) *graph.Node {
	t.Helper()

	n := MustCreate(t, g, "source", name, graph.RootPath)
	require.NoError(t, g.SetParameter(n, "lines", lines))

	return n
}

// MustConnect connects source output 0 to target's input index or fails the test.
func MustConnect(t testing.TB, g *graph.Graph, target *graph.Node, input int, source *graph.Node) *graph.Connection {
	t.Helper()

	c, err := g.SetInput(target, input, source, 0)
	require.NoError(t, err)

	return c
}

// CookOutput cooks n and returns its first output.
func CookOutput(t testing.TB, g *graph.Graph, n *graph.Node) []string {
	t.Helper()

	require.NoError(t, g.Cook(context.Background(), n))

	out, err := g.Output(n, 0)
	require.NoError(t, err)

	return out
}
