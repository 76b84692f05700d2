package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/flowcook/pkg/eventbus"
	"github.com/dukex/flowcook/pkg/events"
	"github.com/dukex/flowcook/pkg/registry"
	"github.com/dukex/flowcook/pkg/scheduler"
	"github.com/dukex/flowcook/pkg/session"
	"github.com/dukex/flowcook/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger    *slog.Logger
	sessions  *session.Manager
	scheduler *scheduler.Scheduler
	registry  *registry.Registry
	eventBus  eventbus.Bus
	validate  *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	sessions *session.Manager,
	scheduler *scheduler.Scheduler,
	registry *registry.Registry,
	eventBus eventbus.Bus,
) *API {
	return &API{
		logger:    logger,
		sessions:  sessions,
		scheduler: scheduler,
		registry:  registry,
		eventBus:  eventBus,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.sessions, a.scheduler, a.registry, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("flowcook API")
	})

	handlers.Routes(app)

	return app
}

// WatchEvents logs failed cooks and flowstate activity published on the event bus.
func (a *API) WatchEvents(ctx context.Context) error {
	if a.eventBus == nil {
		return nil
	}

	handlers := map[events.EventType]eventbus.Handler{
		events.NodeFailedEvent: func(ctx context.Context, event any) error {
			e := event.(*events.NodeFailed)
			a.logger.WarnContext(ctx, "Node failed", "session_id", e.SessionID, "path", e.NodePath, "error", e.Error)

			return nil
		},
		events.FlowstateSavedEvent: func(ctx context.Context, event any) error {
			e := event.(*events.FlowstateSaved)
			a.logger.InfoContext(ctx, "Flowstate saved", "session_id", e.SessionID, "name", e.Name)

			return nil
		},
		events.FlowstateLoadedEvent: func(ctx context.Context, event any) error {
			e := event.(*events.FlowstateLoaded)
			a.logger.InfoContext(ctx, "Flowstate loaded", "session_id", e.SessionID, "name", e.Name)

			return nil
		},
	}

	for eventType, handler := range handlers {
		if err := a.eventBus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return a.eventBus.Subscribe(ctx)
}

// Start serves the API until ctx is cancelled.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	return app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	})
}
