package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/flowcook/pkg/graph"
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/nodes/file"
	"github.com/dukex/flowcook/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileGraph(t *testing.T) *graph.Graph {
	t.Helper()

	r := testutil.Registry()
	r.RegisterNode(file.NewInNodeFactory())
	r.RegisterNode(file.NewOutNodeFactory())

	return graph.New(r, graph.WithLogger(testutil.Logger()))
}

func TestOutNode_CookIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.txt")

	g := newFileGraph(t)
	src := testutil.MustSource(t, g, "src", "a", "b")
	out := testutil.MustCreate(t, g, "file_out", "out", graph.RootPath)
	testutil.MustConnect(t, g, out, 0, src)
	require.NoError(t, g.SetParameter(out, "path", path))

	require.NoError(t, g.Cook(ctx, out))
	assert.Equal(t, 1, out.CookCount())

	for range 3 {
		require.NoError(t, g.Cook(ctx, out))
	}

	assert.Equal(t, 1, out.CookCount(), "an unchanged graph is served from cache")
	assert.Equal(t, models.StateUnchanged, out.State())

	// the file is rewritten when changed behind the graph's back
	require.NoError(t, os.WriteFile(path, []byte("edited\n"), 0o600))
	require.NoError(t, g.Cook(ctx, out))
	assert.Equal(t, 2, out.CookCount())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))

	require.NoError(t, g.Cook(ctx, out))
	assert.Equal(t, 2, out.CookCount())
}

func TestInNode_CookIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("x\ny\n"), 0o600))

	g := newFileGraph(t)
	in := testutil.MustCreate(t, g, "file_in", "in", graph.RootPath)
	require.NoError(t, g.SetParameter(in, "path", path))

	assert.Equal(t, []string{"x", "y"}, testutil.CookOutput(t, g, in))
	require.NoError(t, g.Cook(ctx, in))
	assert.Equal(t, 1, in.CookCount())

	require.NoError(t, os.WriteFile(path, []byte("z\n"), 0o600))
	assert.Equal(t, []string{"z"}, testutil.CookOutput(t, g, in))
	assert.Equal(t, 2, in.CookCount())
}
