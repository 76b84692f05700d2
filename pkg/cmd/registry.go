// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"
	"os"

	"github.com/dukex/flowcook/pkg/registry"
	"github.com/tmc/langchaingo/llms"
)

// NewRegistry registers the built-in node types, then the plugins found under
// pluginsPath (when the directory exists), so plugins can replace built-ins.
func NewRegistry(log *slog.Logger, model llms.Model, pluginsPath string) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)
	reg.RegisterDefaultNodes(model)

	if pluginsPath == "" {
		return reg, nil
	}

	if _, err := os.Stat(pluginsPath); err != nil {
		log.Debug("Plugins path not available, skipping", "path", pluginsPath, "error", err)

		return reg, nil
	}

	if err := reg.LoadNodePlugins(pluginsPath); err != nil {
		return nil, err
	}

	return reg, nil
}
