package eventbus_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/flowcook/pkg/channels/gochannel"
	"github.com/dukex/flowcook/pkg/eventbus"
	"github.com/dukex/flowcook/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	pubSub := gochannel.NewPubSub(watermill.NopLogger{}, true)
	bus := eventbus.NewWatermillEventBus(pubSub, pubSub, slog.New(slog.DiscardHandler))
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_PublishSubscribe(t *testing.T) {
	bus := newBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	received := make(chan *events.NodeCooked, 1)

	require.NoError(t, bus.Handle(events.NodeCookedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.NodeCooked)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	sent := &events.NodeCooked{
		BaseEvent:    events.NewBaseEvent(events.NodeCookedEvent, "session-1"),
		NodePath:     "/split",
		NodeType:     "split",
		CookCount:    1,
		OutputCounts: []int{4},
	}
	require.NoError(t, bus.Publish(ctx, "session-1", sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, "/split", got.NodePath)
		assert.Equal(t, []int{4}, got.OutputCounts)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_UnhandledTypesAreDropped(t *testing.T) {
	bus := newBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	received := make(chan string, 2)

	require.NoError(t, bus.Handle(events.FlowstateSavedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.FlowstateSaved).Name

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "s", &events.FlowstateLoaded{
		BaseEvent: events.NewBaseEvent(events.FlowstateLoadedEvent, "s"),
		Name:      "ignored",
	}))
	require.NoError(t, bus.Publish(ctx, "s", &events.FlowstateSaved{
		BaseEvent: events.NewBaseEvent(events.FlowstateSavedEvent, "s"),
		Name:      "kept",
	}))

	select {
	case name := <-received:
		assert.Equal(t, "kept", name)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_ImplementsBus(t *testing.T) {
	var bus eventbus.Bus = newBus(t)

	assert.NotNil(t, bus)
}
