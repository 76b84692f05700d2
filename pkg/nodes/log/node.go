// Package log provides logging node implementation for the cooking engine.
package log

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/flowcook/pkg/protocol"
	"github.com/dukex/flowcook/pkg/template"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// LogNode logs its rendered message and passes its input through unchanged.
type LogNode struct {
	id     string
	logger *slog.Logger
}

func (n *LogNode) Cook(ctx context.Context, in *protocol.CookInput) (*protocol.CookOutput, error) {
	levelName := in.Params.String("level")

	level, ok := levels[levelName]
	if !ok {
		return nil, fmt.Errorf("invalid log level '%s' (must be debug, info, warn, or error)", levelName)
	}

	input := in.Input(0)

	message, err := template.Render(in.Params.String("message"), map[string]any{
		"input": input,
		"count": len(input),
		"path":  in.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render log message template: %w", err)
	}

	n.logger.Log(ctx, level, message, slog.String("path", in.Path), slog.Int("lines", len(input)))

	return protocol.Single(input), nil
}
