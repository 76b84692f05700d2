package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dukex/flowcook/pkg/eventbus"
	"github.com/dukex/flowcook/pkg/events"
	"github.com/dukex/flowcook/pkg/graph"
	"github.com/dukex/flowcook/pkg/persistence"
	"github.com/dukex/flowcook/pkg/persistence/file"
	"github.com/dukex/flowcook/pkg/session"
	"github.com/dukex/flowcook/pkg/testutil"
	"github.com/dukex/flowcook/pkg/undo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return p.err
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.GetType())
	}

	return types
}

func newManager(t *testing.T, opts ...session.Option) (*session.Manager, *recordingPublisher) {
	t.Helper()

	publisher := &recordingPublisher{}
	opts = append([]session.Option{
		session.WithNodeTypes(testutil.Registry()),
		session.WithPublisher(publisher),
		session.WithPersistence(file.NewPersistence(t.TempDir())),
	}, opts...)

	return session.NewManager(testutil.Logger(), opts...), publisher
}

func TestManager_CreateGetClose(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	first, err := m.Create(ctx)
	require.NoError(t, err)
	second, err := m.Create(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID(), second.ID())

	got, err := m.Get(first.ID())
	require.NoError(t, err)
	assert.Same(t, first, got)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID(), list[0].ID())

	require.NoError(t, m.Close(ctx, first.ID()))

	_, err = m.Get(first.ID())
	assert.True(t, session.IsSessionNotFound(err))

	err = m.Close(ctx, first.ID())
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	m.CloseAll(ctx)
	assert.Empty(t, m.List())
}

func TestManager_MaxSessions(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, session.WithMaxSessions(1))

	_, err := m.Create(ctx)
	require.NoError(t, err)

	_, err = m.Create(ctx)
	assert.ErrorIs(t, err, session.ErrTooManySessions)
}

func TestSession_Isolation(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	a, err := m.Create(ctx)
	require.NoError(t, err)
	b, err := m.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, a.Do(func(_ *graph.Graph, u *undo.Manager) error {
		if _, err := u.Create("source", "src", "/"); err != nil {
			return err
		}

		return u.SetGlobal("WHO", []string{"a"})
	}))

	require.NoError(t, b.Do(func(g *graph.Graph, u *undo.Manager) error {
		assert.Equal(t, 0, g.Len())
		assert.Equal(t, 0, g.Globals().Len())

		_, err := u.Undo()
		assert.ErrorIs(t, err, undo.ErrNothingToUndo)

		return nil
	}))
}

func TestSession_CookPublishesEvents(t *testing.T) {
	ctx := context.Background()
	m, publisher := newManager(t)

	s, err := m.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Do(func(g *graph.Graph, _ *undo.Manager) error {
		src := testutil.MustSource(t, g, "src", "a", "b")
		bad := testutil.MustCreate(t, g, "flaky", "bad", "/")
		testutil.MustConnect(t, g, bad, 0, src)
		require.NoError(t, g.SetParameter(bad, "fail", true))

		return g.Cook(ctx, bad)
	}))

	assert.Equal(t, []events.EventType{events.NodeCookedEvent, events.NodeFailedEvent}, publisher.types())

	cooked := publisher.events[0].(*events.NodeCooked)
	assert.Equal(t, s.ID(), cooked.SessionID)
	assert.Equal(t, "/src", cooked.NodePath)
	assert.Equal(t, []int{2}, cooked.OutputCounts)

	failed := publisher.events[1].(*events.NodeFailed)
	assert.Equal(t, "/bad", failed.NodePath)
	assert.Contains(t, failed.Error, testutil.ErrFlaky.Error())
}

func TestSession_PublishFailureDoesNotFailCook(t *testing.T) {
	ctx := context.Background()
	m, publisher := newManager(t)
	publisher.err = errors.New("bus down")

	s, err := m.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Do(func(g *graph.Graph, _ *undo.Manager) error {
		src := testutil.MustSource(t, g, "src", "x")
		assert.Equal(t, []string{"x"}, testutil.CookOutput(t, g, src))

		return nil
	}))
}

func TestSession_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	m, publisher := newManager(t)

	origin, err := m.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, origin.Do(func(g *graph.Graph, _ *undo.Manager) error {
		src := testutil.MustSource(t, g, "src", "hi $WHO")
		up := testutil.MustCreate(t, g, "upper", "up", "/")
		testutil.MustConnect(t, g, up, 0, src)

		return g.SetGlobal("WHO", []string{"there"})
	}))

	require.NoError(t, origin.Save(ctx, "greeting"))

	names, err := m.Persistence().Flowstates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting"}, names)

	copied, err := m.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, copied.Do(func(_ *graph.Graph, u *undo.Manager) error {
		_, err := u.Create("source", "scratch", "/")

		return err
	}))

	require.NoError(t, copied.Load(ctx, "greeting"))

	require.NoError(t, copied.Do(func(g *graph.Graph, u *undo.Manager) error {
		assert.Equal(t, 2, g.Len())
		assert.False(t, u.CanUndo(), "loading clears the undo history")

		up, ok := g.Lookup("/up")
		require.True(t, ok)
		assert.Equal(t, []string{"HI THERE"}, testutil.CookOutput(t, g, up))

		return nil
	}))

	assert.Contains(t, publisher.types(), events.FlowstateSavedEvent)
	assert.Contains(t, publisher.types(), events.FlowstateLoadedEvent)
}

func TestSession_LoadMissing(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	s, err := m.Create(ctx)
	require.NoError(t, err)

	err = s.Load(ctx, "nothing-here")
	assert.True(t, persistence.IsFlowstateNotFound(err))
}

func TestSession_WithoutPersistence(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(testutil.Logger(), session.WithNodeTypes(testutil.Registry()))

	s, err := m.Create(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Save(ctx, "x"), session.ErrNoPersistence)
	assert.ErrorIs(t, s.Load(ctx, "x"), session.ErrNoPersistence)
}
