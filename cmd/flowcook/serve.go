package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/flowcook/pkg/cmd"
	"github.com/dukex/flowcook/pkg/log"
	"github.com/dukex/flowcook/pkg/scheduler"
	"github.com/dukex/flowcook/pkg/session"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"P"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Flowstate storage: a directory, file://, postgres:// or redis:// URL",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus (none, gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers for the kafka event bus",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.IntFlag{
				Name:    "max-sessions",
				Usage:   "Maximum number of open sessions (0 for no limit)",
				Sources: cli.EnvVars("MAX_SESSIONS"),
			},
			&cli.DurationFlag{
				Name:  "schedule-timeout",
				Usage: "Time limit of each scheduled cook",
				Value: 5 * time.Minute,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing flowcook API")

			reg, err := newRegistry(ctx, command)
			if err != nil {
				return err
			}

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(context.Background()); err != nil {
					logger.Error("Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
			if err != nil {
				return err
			}

			opts := []session.Option{
				session.WithNodeTypes(reg),
				session.WithPersistence(persistence),
				session.WithMaxSessions(command.Int("max-sessions")),
			}

			if eventBus != nil {
				opts = append(opts, session.WithPublisher(eventBus))

				defer func() {
					if err := eventBus.Close(); err != nil {
						logger.Error("Failed to close event bus", "error", err)
					}
				}()
			}

			sessions := session.NewManager(logger, opts...)
			defer sessions.CloseAll(context.Background())

			sched := scheduler.New(sessions, logger, scheduler.WithCookTimeout(command.Duration("schedule-timeout")))
			sched.Start()

			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := sched.Stop(stopCtx); err != nil {
					logger.Error("Failed to stop scheduler", "error", err)
				}
			}()

			api := NewAPI(logger, sessions, sched, reg, eventBus)

			if err := api.WatchEvents(ctx); err != nil {
				return err
			}

			port := command.Int("port")
			logger.InfoContext(ctx, "Listening", "port", port)

			return api.Start(ctx, port)
		},
	}
}
