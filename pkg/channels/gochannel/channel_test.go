package gochannel

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPubSub_ReplayReachesLateSubscriber(t *testing.T) {
	pubSub := NewPubSub(watermill.NopLogger{}, true)
	t.Cleanup(func() { _ = pubSub.Close() })

	require.NoError(t, pubSub.Publish("flowcook.events", message.NewMessage(watermill.NewULID(), []byte(`{"type":"node.cooked"}`))))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	messages, err := pubSub.Subscribe(ctx, "flowcook.events")
	require.NoError(t, err)

	select {
	case msg := <-messages:
		assert.JSONEq(t, `{"type":"node.cooked"}`, string(msg.Payload))
		msg.Ack()
	case <-time.After(5 * time.Second):
		t.Fatal("replayed message was not delivered")
	}
}

func TestNewPubSub_WithoutReplayDropsEarlyMessages(t *testing.T) {
	pubSub := NewPubSub(watermill.NopLogger{}, false)
	t.Cleanup(func() { _ = pubSub.Close() })

	require.NoError(t, pubSub.Publish("flowcook.events", message.NewMessage(watermill.NewULID(), []byte(`{}`))))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	messages, err := pubSub.Subscribe(ctx, "flowcook.events")
	require.NoError(t, err)

	select {
	case <-messages:
		t.Fatal("message published before subscribing was delivered")
	case <-time.After(50 * time.Millisecond):
	}
}
