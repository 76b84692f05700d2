package graph_test

import (
	"testing"

	"github.com/dukex/flowcook/pkg/graph"
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureRestore_Destroy(t *testing.T) {
	g := testutil.NewGraph(t)

	src := testutil.MustSource(t, g, "src", "x")
	first := testutil.MustCreate(t, g, "upper", "first", "/")
	mid := testutil.MustCreate(t, g, "prefix", "mid", "/")
	last := testutil.MustCreate(t, g, "upper", "last", "/")

	c1 := testutil.MustConnect(t, g, first, 0, src)
	c2 := testutil.MustConnect(t, g, mid, 0, src)
	c3 := testutil.MustConnect(t, g, last, 0, mid)
	require.NoError(t, g.SetParameter(mid, "prefix", "> "))
	require.NoError(t, g.SetPosition(mid, models.Position{X: 5, Y: 6}))

	ids := append([]string{mid.ID()}, g.Neighbours(mid)...)
	snapshot := g.Capture(ids...)
	assert.ElementsMatch(t, []string{mid.ID(), src.ID(), last.ID()}, snapshot.IDs())

	require.NoError(t, g.Destroy(mid))
	require.NoError(t, g.Restore(snapshot))

	restored, ok := g.Lookup("/mid")
	require.True(t, ok)
	assert.Equal(t, mid.ID(), restored.ID())
	assert.Equal(t, models.Position{X: 5, Y: 6}, restored.Position())

	conns := g.OutputConnections(src, 0)
	require.Len(t, conns, 2)
	assert.Equal(t, c1.ID(), conns[0].ID(), "fan-out order is restored")
	assert.Equal(t, c2.ID(), conns[1].ID())

	in, ok := g.InputConnection(last, 0)
	require.True(t, ok)
	assert.Equal(t, c3.ID(), in.ID())

	assert.Equal(t, []string{"> X"}, testutil.CookOutput(t, g, last))
}

func TestCaptureRestore_AbsentNodeIsRemoved(t *testing.T) {
	g := testutil.NewGraph(t)

	before := g.Capture("future-id")
	assert.False(t, before.Nodes[0].Exists)

	_, err := g.InsertNode(graph.NodeSpec{ID: "future-id", Path: "/n", Type: "source"})
	require.NoError(t, err)

	require.NoError(t, g.Restore(before))
	assert.Zero(t, g.Len())
}

func TestCaptureRestore_SwappedNames(t *testing.T) {
	g := testutil.NewGraph(t)

	a := testutil.MustCreate(t, g, "source", "a", "/")
	b := testutil.MustCreate(t, g, "source", "b", "/")
	snapshot := g.Capture(a.ID(), b.ID())

	_, err := g.Rename(a, "tmp")
	require.NoError(t, err)
	_, err = g.Rename(b, "a")
	require.NoError(t, err)
	_, err = g.Rename(a, "b")
	require.NoError(t, err)

	require.NoError(t, g.Restore(snapshot))
	assert.Equal(t, "/a", a.Path())
	assert.Equal(t, "/b", b.Path())
}
