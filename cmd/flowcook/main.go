package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dukex/flowcook/pkg/cmd"
	"github.com/dukex/flowcook/pkg/log"
	"github.com/dukex/flowcook/pkg/otelhelper"
	"github.com/dukex/flowcook/pkg/registry"
	cli "github.com/urfave/cli/v3"
)

const serviceName = "flowcook"

func main() {
	if err := newCommand(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand(stdout, stderr io.Writer) *cli.Command {
	var shutdownTracer otelhelper.ShutdownFunc

	return &cli.Command{
		Name:                  serviceName,
		Usage:                 "Build and cook node graphs of text pipelines",
		EnableShellCompletion: true,
		Writer:                stdout,
		ErrWriter:             stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "otel",
				Usage:   "Export cook traces over OTLP/HTTP (configured through OTEL_* variables)",
				Sources: cli.EnvVars("FLOWCOOK_OTEL"),
			},
			&cli.StringFlag{
				Name:    "llm-model",
				Usage:   "Model for llm_query nodes as provider:model (openai:gpt-4o-mini, ollama:llama3)",
				Sources: cli.EnvVars("LLM_MODEL"),
			},
			&cli.StringFlag{
				Name:    "llm-base-url",
				Usage:   "Override the LLM provider endpoint",
				Sources: cli.EnvVars("LLM_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "plugins-path",
				Usage:   "Directory holding node plugins under nodes/",
				Value:   "./plugins",
				Sources: cli.EnvVars("PLUGINS_PATH"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.SetupWriter(stderr, command.String("log-level"))

			if command.Bool("otel") {
				_, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
				if err != nil {
					return ctx, fmt.Errorf("failed to initialize tracer: %w", err)
				}

				shutdownTracer = shutdown
			}

			return log.WithLogger(ctx, log.WithModule("cli")), nil
		},
		After: func(ctx context.Context, _ *cli.Command) error {
			if shutdownTracer == nil {
				return nil
			}

			return shutdownTracer(ctx)
		},
		Commands: []*cli.Command{
			CookCommand(),
			ValidateCommand(),
			ConvertCommand(),
			ServeCommand(),
		},
	}
}

// newRegistry builds the node registry from the global flags.
func newRegistry(ctx context.Context, command *cli.Command) (*registry.Registry, error) {
	logger := log.FromContext(ctx)

	model, err := cmd.NewModel(command.String("llm-model"), command.String("llm-base-url"))
	if err != nil {
		return nil, err
	}

	return cmd.NewRegistry(logger, model, command.String("plugins-path"))
}
