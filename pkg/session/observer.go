package session

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukex/flowcook/pkg/eventbus"
	"github.com/dukex/flowcook/pkg/events"
	"github.com/dukex/flowcook/pkg/graph"
)

// eventObserver turns cook notifications of one session's graph into bus events.
type eventObserver struct {
	sessionID string
	graph     *graph.Graph
	publisher eventbus.Publisher
	logger    *slog.Logger
}

func (o *eventObserver) NodeCooked(ctx context.Context, n *graph.Node) {
	counts := make([]int, len(n.Shape().Outputs))

	for i := range counts {
		if lines, err := o.graph.Output(n, i); err == nil {
			counts[i] = len(lines)
		}
	}

	o.publish(ctx, &events.NodeCooked{
		BaseEvent:    events.NewBaseEvent(events.NodeCookedEvent, o.sessionID),
		NodePath:     n.Path(),
		NodeType:     n.Type(),
		CookCount:    n.CookCount(),
		DurationMs:   n.LastCookTime().Milliseconds(),
		OutputCounts: counts,
		Warnings:     n.Warnings(),
	})
}

func (o *eventObserver) NodeFailed(ctx context.Context, n *graph.Node, err error) {
	message := strings.Join(n.Errors(), "; ")
	if err != nil {
		message = err.Error()
	}

	o.publish(ctx, &events.NodeFailed{
		BaseEvent: events.NewBaseEvent(events.NodeFailedEvent, o.sessionID),
		NodePath:  n.Path(),
		NodeType:  n.Type(),
		Error:     message,
		Errors:    n.Errors(),
	})
}

// publish never fails the cook; a lost event is only logged.
func (o *eventObserver) publish(ctx context.Context, event eventbus.Event) {
	if o.publisher == nil {
		return
	}

	if err := o.publisher.Publish(ctx, o.sessionID, event); err != nil {
		o.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
