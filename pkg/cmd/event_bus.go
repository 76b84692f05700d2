package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/flowcook/pkg/channels/gochannel"
	"github.com/dukex/flowcook/pkg/channels/kafka"
	"github.com/dukex/flowcook/pkg/eventbus"
)

// NewEventBus builds the event bus for provider: "gochannel" (in process) or "kafka".
// An empty provider or "none" disables events and returns nil.
func NewEventBus(provider, kafkaBrokers string, logger *slog.Logger) (eventbus.Bus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "", "none":
		return nil, nil
	case "gochannel", "memory":
		pubSub := gochannel.NewPubSub(wmLogger, false)

		return eventbus.NewWatermillEventBus(pubSub, pubSub, logger), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafka.ParseBrokers(kafkaBrokers), "flowcook")
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub, logger), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider %q", provider)
	}
}
