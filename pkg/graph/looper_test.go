package graph_test

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/dukex/flowcook/pkg/graph"
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/dukex/flowcook/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLoop creates a looper whose sub-graph is input -> <inner> -> output.
func newLoop(t *testing.T, g *graph.Graph, innerType string, params map[string]any) (*graph.Node, *graph.Node) {
	t.Helper()

	loop := testutil.MustCreate(t, g, graph.TypeLooper, "loop", "/")
	inner := testutil.MustCreate(t, g, innerType, "body", "/loop")

	in, ok := g.Lookup("/loop/input")
	require.True(t, ok)

	out, ok := g.Lookup("/loop/output")
	require.True(t, ok)

	testutil.MustConnect(t, g, inner, 0, in)
	testutil.MustConnect(t, g, out, 0, inner)

	for name, value := range params {
		require.NoError(t, g.SetParameter(loop, name, value))
	}

	return loop, inner
}

func TestLooper_Accumulates(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, body := newLoop(t, g, "prefix", map[string]any{"max": 3})
	require.NoError(t, g.SetParameter(body, "prefix", "n"))

	assert.Equal(t, []string{"n0", "n1", "n2"}, testutil.CookOutput(t, g, loop))
	assert.Equal(t, models.StateUnchanged, loop.State())
	assert.Empty(t, loop.Warnings())
}

func TestLooper_StepAndMin(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, _ := newLoop(t, g, "upper", map[string]any{"min": 2, "max": 9, "step": 3})

	assert.Equal(t, []string{"2", "5", "8"}, testutil.CookOutput(t, g, loop))

	require.NoError(t, g.SetParameter(loop, "step", 0))
	require.NoError(t, g.Cook(context.Background(), loop))
	assert.Equal(t, models.StateError, loop.State())
}

func TestLooper_MaxFromInput(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, _ := newLoop(t, g, "upper", map[string]any{"max_from_input": true})
	src := testutil.MustSource(t, g, "src", "a", "b", "c")
	testutil.MustConnect(t, g, loop, 0, src)

	assert.Equal(t, []string{"A", "B", "C"}, testutil.CookOutput(t, g, loop))
}

func TestLooper_FeedbackMode(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, body := newLoop(t, g, "prefix", map[string]any{"max": 3, "feedback_mode": true})
	require.NoError(t, g.SetParameter(body, "prefix", "+"))

	src := testutil.MustSource(t, g, "src", "x")
	testutil.MustConnect(t, g, loop, 0, src)

	assert.Equal(t, []string{"+x", "++x", "+++x"}, testutil.CookOutput(t, g, loop))
}

func TestLooper_TestMode(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, body := newLoop(t, g, "prefix", map[string]any{"max": 3, "use_test": true, "test_number": 1})
	require.NoError(t, g.SetParameter(body, "prefix", "n"))

	assert.Equal(t, []string{"n1"}, testutil.CookOutput(t, g, loop))

	require.NoError(t, g.SetParameter(loop, "test_number", 5))
	require.NoError(t, g.Cook(context.Background(), loop))
	assert.Equal(t, models.StateError, loop.State())
	assert.Contains(t, loop.Errors()[0], "test_number")

	out, err := g.Output(loop, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, out)
}

func TestLooper_DataLimit(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, body := newLoop(t, g, "prefix", map[string]any{"max": 10, "data_limit": 10})
	require.NoError(t, g.SetParameter(body, "prefix", "abcdef"))

	assert.Equal(t, []string{"abcdef0", "abcdef1"}, testutil.CookOutput(t, g, loop))
	assert.Equal(t, models.StateUnchanged, loop.State(), "a limit breach is not an error")
	require.Len(t, loop.Warnings(), 1)
	assert.Contains(t, loop.Warnings()[0], "data limit")
}

func TestLooper_TimeoutLimit(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, _ := newLoop(t, g, "upper", map[string]any{"max": 5, "timeout_limit": 1e-9})

	assert.Equal(t, []string{"0"}, testutil.CookOutput(t, g, loop))
	require.Len(t, loop.Warnings(), 1)
	assert.Contains(t, loop.Warnings()[0], "timeout")
}

func TestLooper_RangeNearIntLimits(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   []string
	}{
		{"step past max int", map[string]any{"min": math.MaxInt - 1, "max": math.MaxInt, "step": math.MaxInt / 2},
			[]string{strconv.Itoa(math.MaxInt - 1)}},
		{"last step overflows", map[string]any{"min": math.MaxInt - 10, "max": math.MaxInt, "step": 4},
			[]string{strconv.Itoa(math.MaxInt - 10), strconv.Itoa(math.MaxInt - 6), strconv.Itoa(math.MaxInt - 2)}},
		{"negative start", map[string]any{"min": -3, "max": 3, "step": 2},
			[]string{"-3", "-1", "1"}},
		{"empty range", map[string]any{"min": 5, "max": 5}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testutil.NewGraph(t)
			loop, _ := newLoop(t, g, "upper", tt.params)

			got := testutil.CookOutput(t, g, loop)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}

			assert.Empty(t, loop.Warnings())
		})
	}
}

func TestLooper_TimeoutBoundsHugeRange(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, _ := newLoop(t, g, "upper", map[string]any{"min": math.MinInt, "max": math.MaxInt, "timeout_limit": 0.01})

	start := time.Now()
	require.NoError(t, g.Cook(context.Background(), loop))

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, models.StateUnchanged, loop.State())
	require.Len(t, loop.Warnings(), 1)
	assert.Contains(t, loop.Warnings()[0], "timeout")
}

func TestLooper_TestNumberOnHugeRange(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, _ := newLoop(t, g, "upper", map[string]any{
		"min": 0, "max": math.MaxInt, "step": 1000, "use_test": true, "test_number": 1_000_000,
	})

	assert.Equal(t, []string{"1000000000"}, testutil.CookOutput(t, g, loop))
}

func TestLooper_FailingIterationIsSkipped(t *testing.T) {
	r := testutil.Registry()
	r.RegisterNode(testutil.NewFactory("odd_fails", func(_ context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
		if v := in.Input(0); len(v) == 1 && v[0] == "1" {
			return nil, errors.New("odd")
		}

		return protocol.Single(in.Input(0)), nil
	}))

	g := graph.New(r, graph.WithLogger(testutil.Logger()))

	loop, _ := newLoop(t, g, "odd_fails", map[string]any{"max": 3})

	assert.Equal(t, []string{"0", "2"}, testutil.CookOutput(t, g, loop))
	require.Len(t, loop.Warnings(), 1)
	assert.Contains(t, loop.Warnings()[0], "iteration 1")
}

func TestLooper_CycleInsideIsFatal(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, body := newLoop(t, g, "upper", map[string]any{"max": 2})
	other := testutil.MustCreate(t, g, "concat", "other", "/loop")
	testutil.MustConnect(t, g, other, 0, body)
	testutil.MustConnect(t, g, body, 0, other)

	require.NoError(t, g.Cook(context.Background(), loop))
	assert.Equal(t, models.StateError, loop.State())
	assert.Contains(t, loop.Errors()[0], "cyclic dependency")
}

func TestLooper_Caching(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, body := newLoop(t, g, "prefix", map[string]any{"max": 2})

	testutil.CookOutput(t, g, loop)
	testutil.CookOutput(t, g, loop)
	assert.Equal(t, 1, loop.CookCount(), "an untouched sub-graph is a cache hit")

	require.NoError(t, g.SetParameter(body, "prefix", "#"))
	assert.Equal(t, models.StateUncooked, loop.State(), "inner edits invalidate the container")
	assert.Equal(t, []string{"#0", "#1"}, testutil.CookOutput(t, g, loop))
	assert.Equal(t, 2, loop.CookCount())

	extra := testutil.MustCreate(t, g, "upper", "extra", "/loop")
	require.NoError(t, g.Destroy(extra))
	testutil.CookOutput(t, g, loop)
	assert.Equal(t, 3, loop.CookCount(), "structural edits defeat the cache")
}

func TestLooper_ExternalFeederChange(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, body := newLoop(t, g, "concat", map[string]any{"max": 2})
	outside := testutil.MustSource(t, g, "outside", "x")
	testutil.MustConnect(t, g, body, 1, outside)

	assert.Equal(t, []string{"0", "x", "1", "x"}, testutil.CookOutput(t, g, loop))

	require.NoError(t, g.SetParameter(outside, "lines", []string{"y"}))
	assert.Equal(t, []string{"0", "y", "1", "y"}, testutil.CookOutput(t, g, loop))
}

func TestLooper_Cancelled(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, _ := newLoop(t, g, "upper", map[string]any{"max": 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, g.Cook(ctx, loop))
	assert.Equal(t, models.StateError, loop.State())
	assert.Contains(t, loop.Errors()[0], "cancelled")
}

func TestLooper_RequiresEndpoints(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, _ := newLoop(t, g, "upper", nil)
	require.NoError(t, g.Delete("/loop/output"))

	require.NoError(t, g.Cook(context.Background(), loop))
	assert.Equal(t, models.StateError, loop.State())
	assert.Contains(t, loop.Errors()[0], graph.TypeOutputNull)
}

func TestLooper_TimeDependentSubgraph(t *testing.T) {
	g := testutil.NewGraph(t)

	loop, _ := newLoop(t, g, "concat", map[string]any{"max": 1})
	clock := testutil.MustCreate(t, g, "clock", "clock", "/loop")
	body, _ := g.Lookup("/loop/body")
	testutil.MustConnect(t, g, body, 1, clock)

	assert.Equal(t, []string{"0", "1"}, testutil.CookOutput(t, g, loop))
	assert.Equal(t, []string{"0", "2"}, testutil.CookOutput(t, g, loop))
	assert.True(t, g.Info(loop).TimeDependent)
}
