// Package eventbus carries flowcook events between sessions and their listeners.
package eventbus

import (
	"context"

	"github.com/dukex/flowcook/pkg/events"
)

// Event is anything published on the bus. Every type in pkg/events satisfies it through
// its embedded BaseEvent.
type Event interface {
	GetType() events.EventType
}

// Publisher sends events keyed by session id. Sessions and their cook observers only
// ever publish, so they depend on this half of the bus.
type Publisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// Handler receives a decoded event: a pointer to the pkg/events type matching its EventType.
type Handler func(ctx context.Context, event any) error

// Subscriber routes incoming events to at most one handler per event type.
// Handlers must be registered before Subscribe.
type Subscriber interface {
	Handle(eventType events.EventType, handler Handler) error
	Subscribe(ctx context.Context) error
}

// Bus is a publisher and subscriber sharing one transport.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}
