package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/otelhelper"
	"github.com/dukex/flowcook/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Built-in node types.
const (
	TypeLooper     = "looper"
	TypeInputNull  = "input_null"
	TypeOutputNull = "output_null"
)

var errSubgraphDirty = errors.New("sub-graph changed since the last cook")

// containerFactory is implemented by factories whose nodes hold children.
type containerFactory interface {
	defaultChildren() []childSpec
}

type childSpec struct {
	name     string
	nodeType string
}

type looperFactory struct {
	g *Graph
}

func (f *looperFactory) Create(id string) (protocol.Transform, error) {
	return &looper{g: f.g, id: id}, nil
}

func (f *looperFactory) ID() string { return TypeLooper }

func (f *looperFactory) Name() string { return "Looper" }

func (f *looperFactory) Description() string {
	return "Cooks its sub-graph once per iteration and concatenates the iteration outputs"
}

func (f *looperFactory) Shape() models.Shape {
	return models.Shape{
		Inputs:  []models.Socket{{Name: "input", Multi: true}},
		Outputs: models.SingleOutput("output", true),
	}
}

func (f *looperFactory) Parameters() []models.ParameterSpec {
	return []models.ParameterSpec{
		{Name: "min", Type: models.ParamInt, Default: 0, Description: "First loop value"},
		{Name: "max", Type: models.ParamInt, Default: 1, Description: "Loop values stop before this value"},
		{Name: "step", Type: models.ParamInt, Default: 1},
		{Name: "max_from_input", Type: models.ParamToggle, Default: false, Description: "Iterate over the input items"},
		{Name: "feedback_mode", Type: models.ParamToggle, Default: false, Description: "Feed each iteration the previous output"},
		{Name: "timeout_limit", Type: models.ParamFloat, Default: 0.0, Description: "Seconds; 0 disables the limit"},
		{Name: "data_limit", Type: models.ParamInt, Default: 0, Description: "Bytes of accumulated output; 0 disables the limit"},
		{Name: "use_test", Type: models.ParamToggle, Default: false, Description: "Run a single iteration"},
		{Name: "test_number", Type: models.ParamInt, Default: 0, Description: "Iteration run when use_test is on"},
	}
}

func (f *looperFactory) defaultChildren() []childSpec {
	return []childSpec{
		{name: "input", nodeType: TypeInputNull},
		{name: "output", nodeType: TypeOutputNull},
	}
}

type looper struct {
	g  *Graph
	id string
}

func (l *looper) node() (*Node, error) {
	n, ok := l.g.nodes[l.id]
	if !ok {
		return nil, fmt.Errorf("looper %s: %w", l.id, ErrNodeNotFound)
	}

	return n, nil
}

func (l *looper) Cook(ctx context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
	n, err := l.node()
	if err != nil {
		return nil, err
	}

	return l.g.runLoop(ctx, n, in)
}

// ExternalFingerprint hashes the sub-graph structure. A sub-graph touched since the
// last run has no fingerprint, so the looper cooks again.
func (l *looper) ExternalFingerprint(models.Params) (string, error) {
	n, err := l.node()
	if err != nil {
		return "", err
	}

	if n.subgraphDirty {
		return "", errSubgraphDirty
	}

	return l.g.subgraphFingerprint(n)
}

func (l *looper) TimeDependent() bool {
	n, err := l.node()
	if err != nil {
		return false
	}

	for _, d := range l.g.Descendants(n.Path()) {
		if l.g.isTimeDependent(d) {
			return true
		}
	}

	return false
}

type iteration struct {
	index int
	value []string
}

// loopRange yields loop values lazily. Counting goes through uint64 so ranges that span
// most of the int domain neither overflow nor get materialised.
type loopRange struct {
	items     []string
	fromInput bool
	min       int
	step      uint64
	first     uint64
	count     uint64
}

func newLoopRange(params models.Params, external []string) (*loopRange, error) {
	if params.Bool("max_from_input") {
		return &loopRange{items: external, fromInput: true, count: uint64(len(external))}, nil
	}

	step := params.Int("step")
	if step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %d", step)
	}

	lo, hi := params.Int("min"), params.Int("max")
	r := &loopRange{min: lo, step: uint64(step)}

	if hi > lo {
		span := uint64(hi) - uint64(lo)
		r.count = span / r.step
		if span%r.step != 0 {
			r.count++
		}
	}

	return r, nil
}

// only restricts the range to its pos-th iteration.
func (r *loopRange) only(pos int) error {
	if pos < 0 || uint64(pos) >= r.count {
		return fmt.Errorf("test_number %d is outside the %d iterations", pos, r.count)
	}

	r.first, r.count = uint64(pos), 1

	return nil
}

func (r *loopRange) at(pos uint64) iteration {
	i := r.first + pos
	if r.fromInput {
		return iteration{index: int(i), value: []string{r.items[i]}}
	}

	v := int(uint64(r.min) + i*r.step)

	return iteration{index: int(i), value: []string{strconv.Itoa(v)}}
}

func (g *Graph) loopEndpoints(n *Node) (*Node, *Node, error) {
	var inputs, outputs []*Node

	for _, child := range g.Children(n.Path()) {
		switch child.nodeType {
		case TypeInputNull:
			inputs = append(inputs, child)
		case TypeOutputNull:
			outputs = append(outputs, child)
		}
	}

	if len(inputs) != 1 {
		return nil, nil, fmt.Errorf("looper needs exactly one %s child, found %d", TypeInputNull, len(inputs))
	}

	if len(outputs) != 1 {
		return nil, nil, fmt.Errorf("looper needs exactly one %s child, found %d", TypeOutputNull, len(outputs))
	}

	return inputs[0], outputs[0], nil
}

func (g *Graph) runLoop(ctx context.Context, n *Node, in *protocol.CookInput) (*protocol.CookOutput, error) {
	n.subgraphDirty = false

	inNull, outNull, err := g.loopEndpoints(n)
	if err != nil {
		return nil, err
	}

	feeder, ok := inNull.transform.(*inputNull)
	if !ok {
		return nil, fmt.Errorf("%s has an unexpected transform %T", inNull.Path(), inNull.transform)
	}

	params := in.Params
	external := slices.Clone(in.Input(0))

	domain, err := newLoopRange(params, external)
	if err != nil {
		return nil, err
	}

	if params.Bool("use_test") {
		if err := domain.only(params.Int("test_number")); err != nil {
			return nil, err
		}
	}

	var (
		feedback    = params.Bool("feedback_mode")
		timeout     = time.Duration(params.Float("timeout_limit") * float64(time.Second))
		dataLimit   = params.Int("data_limit")
		descendants = g.Descendants(n.Path())
		span        = trace.SpanFromContext(ctx)
		start       = time.Now()
		previous    = external
		accumulated = []string{}
		warnings    []string
		size        int
	)

	for pos := uint64(0); pos < domain.count; pos++ {
		it := domain.at(pos)

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("loop cancelled after %d iterations: %w", pos, err)
		}

		if feedback {
			feeder.feed = slices.Clone(previous)
		} else {
			feeder.feed = slices.Clone(it.value)
		}

		for _, d := range descendants {
			d.state = models.StateUncooked
		}

		span.AddEvent("iteration", trace.WithAttributes(attribute.Int(otelhelper.IterationKey, it.index)))

		if err := g.cookNode(ctx, outNull, newCookPass(false)); err != nil {
			return nil, fmt.Errorf("iteration %d: %w", it.index, err)
		}

		if failed := failedPaths(descendants); len(failed) > 0 {
			warnings = append(warnings, fmt.Sprintf("iteration %d failed at %s", it.index, strings.Join(failed, ", ")))
		} else {
			out := slices.Clone(outNull.outputData[0])
			accumulated = append(accumulated, out...)
			previous = out

			for _, line := range out {
				size += len(line)
			}
		}

		if pos == domain.count-1 {
			break
		}

		if timeout > 0 && time.Since(start) > timeout {
			warnings = append(warnings, fmt.Sprintf("timeout limit of %s reached after %d iterations; output is partial", timeout, pos+1))

			break
		}

		if dataLimit > 0 && size > dataLimit {
			warnings = append(warnings, fmt.Sprintf("data limit of %d bytes exceeded after %d iterations; output is partial", dataLimit, pos+1))

			break
		}
	}

	return &protocol.CookOutput{Outputs: [][]string{accumulated}, Warnings: warnings}, nil
}

func failedPaths(nodes []*Node) []string {
	var failed []string

	for _, n := range nodes {
		if n.state == models.StateError {
			failed = append(failed, n.Path())
		}
	}

	return failed
}

type subgraphEntry struct {
	Path   string        `json:"path"`
	Type   string        `json:"type"`
	Params models.Params `json:"params"`
}

type subgraphLink struct {
	Source      string `json:"source"`
	OutputIndex int    `json:"output"`
	Target      string `json:"target"`
	InputIndex  int    `json:"input"`
}

func (g *Graph) subgraphFingerprint(n *Node) (string, error) {
	root := n.Path()

	var (
		entries []subgraphEntry
		links   []subgraphLink
	)

	for _, d := range g.Descendants(root) {
		params, _ := g.resolveParameters(d)
		entries = append(entries, subgraphEntry{
			Path:   strings.TrimPrefix(d.Path(), root),
			Type:   d.nodeType,
			Params: params,
		})

		for _, idx := range sortedIndexes(d.inputs) {
			c := g.connections[d.inputs[idx]]
			source := g.nodes[c.outputNode]
			links = append(links, subgraphLink{
				Source:      source.Path(),
				OutputIndex: c.outputIndex,
				Target:      strings.TrimPrefix(d.Path(), root),
				InputIndex:  idx,
			})
		}
	}

	data, err := json.Marshal(struct {
		Nodes []subgraphEntry `json:"nodes"`
		Links []subgraphLink  `json:"links"`
	}{entries, links})
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:]), nil
}

type inputNullFactory struct{}

func (inputNullFactory) Create(string) (protocol.Transform, error) { return &inputNull{}, nil }

func (inputNullFactory) ID() string { return TypeInputNull }

func (inputNullFactory) Name() string { return "Loop Input" }

func (inputNullFactory) Description() string {
	return "Emits the value a looper feeds into its sub-graph for the current iteration"
}

func (inputNullFactory) Shape() models.Shape {
	return models.Shape{Outputs: models.SingleOutput("input", true)}
}

func (inputNullFactory) Parameters() []models.ParameterSpec { return nil }

type inputNull struct {
	feed []string
}

func (t *inputNull) Cook(context.Context, *protocol.CookInput) (*protocol.CookOutput, error) {
	return protocol.Single(slices.Clone(t.feed)), nil
}

func (t *inputNull) ExternalFingerprint(models.Params) (string, error) {
	data, err := json.Marshal(t.feed)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:]), nil
}

type outputNullFactory struct{}

func (outputNullFactory) Create(string) (protocol.Transform, error) {
	return protocol.TransformFunc(func(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
		return protocol.Single(slices.Clone(in.Input(0))), nil
	}), nil
}

func (outputNullFactory) ID() string { return TypeOutputNull }

func (outputNullFactory) Name() string { return "Loop Output" }

func (outputNullFactory) Description() string {
	return "Collects the value a looper appends to its output for the current iteration"
}

func (outputNullFactory) Shape() models.Shape {
	return models.Shape{
		Inputs:  []models.Socket{{Name: "output", Multi: true}},
		Outputs: models.SingleOutput("output", true),
	}
}

func (outputNullFactory) Parameters() []models.ParameterSpec { return nil }
