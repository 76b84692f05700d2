// Package persistencetest holds the behaviour every persistence.Persistence implementation
// must show, run by each implementation's tests.
package persistencetest

import (
	"context"
	"testing"

	"github.com/dukex/flowcook/pkg/flowstate"
	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/persistence"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Document returns a small valid document. Its values survive a JSON round trip unchanged.
func Document() *flowstate.Document {
	doc := flowstate.New()

	doc.Nodes = append(doc.Nodes,
		flowstate.Node{
			Type:       "text",
			Path:       "/greeting",
			Parameters: map[string]any{"text": []any{"hello", "$WHO"}},
			Position:   models.Position{X: 1.5, Y: 2},
		},
		flowstate.Node{
			Type:       "join",
			Path:       "/joined",
			Parameters: map[string]any{"separator": ", "},
		},
	)
	doc.Connections = append(doc.Connections, flowstate.Connection{Source: "/greeting", Output: 0, Target: "/joined", Input: 0})
	doc.Globals["WHO"] = []string{"world"}

	return doc
}

// Run exercises p through the full Persistence contract. newPersistence must return an
// empty store.
func Run(t *testing.T, newPersistence func(t *testing.T) persistence.Persistence) {
	t.Helper()

	t.Run("save and load", func(t *testing.T) {
		p := newPersistence(t)
		ctx := context.Background()

		want := Document()
		require.NoError(t, p.SaveFlowstate(ctx, "demo", want))

		got, err := p.Flowstate(ctx, "demo")
		require.NoError(t, err)

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("stored document differs (-want +got):\n%s", diff)
		}
	})

	t.Run("save replaces", func(t *testing.T) {
		p := newPersistence(t)
		ctx := context.Background()

		require.NoError(t, p.SaveFlowstate(ctx, "demo", Document()))

		replacement := Document()
		replacement.Globals["WHO"] = []string{"everyone"}
		require.NoError(t, p.SaveFlowstate(ctx, "demo", replacement))

		got, err := p.Flowstate(ctx, "demo")
		require.NoError(t, err)
		assert.Equal(t, []string{"everyone"}, got.Globals["WHO"])

		names, err := p.Flowstates(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"demo"}, names)
	})

	t.Run("list is sorted", func(t *testing.T) {
		p := newPersistence(t)
		ctx := context.Background()

		names, err := p.Flowstates(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)

		for _, name := range []string{"zeta", "alpha", "mid"} {
			require.NoError(t, p.SaveFlowstate(ctx, name, Document()))
		}

		names, err = p.Flowstates(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
	})

	t.Run("delete", func(t *testing.T) {
		p := newPersistence(t)
		ctx := context.Background()

		require.NoError(t, p.SaveFlowstate(ctx, "demo", Document()))
		require.NoError(t, p.DeleteFlowstate(ctx, "demo"))

		_, err := p.Flowstate(ctx, "demo")
		assert.True(t, persistence.IsFlowstateNotFound(err))

		names, err := p.Flowstates(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)

		err = p.DeleteFlowstate(ctx, "demo")
		assert.True(t, persistence.IsFlowstateNotFound(err))
	})

	t.Run("missing", func(t *testing.T) {
		p := newPersistence(t)

		_, err := p.Flowstate(context.Background(), "nothing")
		require.Error(t, err)
		assert.True(t, persistence.IsFlowstateNotFound(err))
	})

	t.Run("invalid names", func(t *testing.T) {
		p := newPersistence(t)
		ctx := context.Background()

		err := p.SaveFlowstate(ctx, "../escape", Document())
		assert.True(t, persistence.IsInvalidFlowstateName(err))

		_, err = p.Flowstate(ctx, "")
		assert.True(t, persistence.IsInvalidFlowstateName(err))

		err = p.DeleteFlowstate(ctx, "a/b")
		assert.True(t, persistence.IsInvalidFlowstateName(err))
	})

	t.Run("health check", func(t *testing.T) {
		p := newPersistence(t)

		assert.NoError(t, p.HealthCheck(context.Background()))
	})
}
