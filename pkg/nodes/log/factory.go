// Package log provides logging node factory for registry integration.
package log

import (
	"log/slog"

	"github.com/dukex/flowcook/pkg/models"
	"github.com/dukex/flowcook/pkg/protocol"
)

// LogNodeFactory creates LogNode instances.
type LogNodeFactory struct {
	logger *slog.Logger
}

// NewLogNodeFactory creates a new factory instance. Nodes log through logger, or
// slog.Default() when it is nil.
func NewLogNodeFactory(logger *slog.Logger) protocol.NodeFactory {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogNodeFactory{logger: logger}
}

// Create creates a new LogNode instance.
func (f *LogNodeFactory) Create(id string) (protocol.Transform, error) {
	return &LogNode{
		id:     id,
		logger: f.logger.With("node_id", id, "node_type", "log"),
	}, nil
}

// ID returns the factory ID.
func (f *LogNodeFactory) ID() string {
	return "log"
}

// Name returns the factory name.
func (f *LogNodeFactory) Name() string {
	return "Log"
}

// Description returns the factory description.
func (f *LogNodeFactory) Description() string {
	return "Logs a message at a level (debug, info, warn, error) and passes its input through"
}

func (f *LogNodeFactory) Shape() models.Shape {
	return models.Shape{
		Inputs:  []models.Socket{{Name: "input", Multi: true}},
		Outputs: models.SingleOutput("passthrough", true),
	}
}

func (f *LogNodeFactory) Parameters() []models.ParameterSpec {
	return []models.ParameterSpec{
		{Name: "level", Type: models.ParamString, Default: "info", Description: "debug, info, warn or error"},
		{
			Name:        "message",
			Type:        models.ParamString,
			Default:     "{{ .count }} lines",
			Description: "Template with .input, .count and .path",
		},
	}
}
