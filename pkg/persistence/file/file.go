// Package file provides file-based persistence of flowstate documents.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dukex/flowcook/pkg/flowstate"
	"github.com/dukex/flowcook/pkg/persistence"
)

const flowstatesDir = "flowstates"

// Persistence implements the persistence.Persistence interface using the file system.
// Each document is a JSON file under <root>/flowstates.
type Persistence struct {
	root string
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
// A leading "file://" is stripped.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(fp.root)
	if err != nil {
		return fmt.Errorf("file persistence root %s: %w", fp.root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("file persistence root %s is not a directory", fp.root)
	}

	return nil
}

func (fp *Persistence) Flowstates(_ context.Context) ([]string, error) {
	files, err := fs.Glob(os.DirFS(fp.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list flowstate files: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, strings.TrimSuffix(f, ".json"))
	}

	slices.Sort(names)

	return names, nil
}

func (fp *Persistence) Flowstate(_ context.Context, name string) (*flowstate.Document, error) {
	if err := persistence.ValidateName("Flowstate", name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fp.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.NewFlowstateError("Flowstate", name, persistence.ErrFlowstateNotFound)
	}

	if err != nil {
		return nil, persistence.NewFlowstateError("Flowstate", name, err)
	}

	doc, err := flowstate.Decode(data, flowstate.JSON)
	if err != nil {
		return nil, persistence.NewFlowstateError("Flowstate", name, err)
	}

	return doc, nil
}

func (fp *Persistence) SaveFlowstate(_ context.Context, name string, doc *flowstate.Document) error {
	if err := persistence.ValidateName("SaveFlowstate", name); err != nil {
		return err
	}

	data, err := flowstate.Encode(doc, flowstate.JSON)
	if err != nil {
		return persistence.NewFlowstateError("SaveFlowstate", name, err)
	}

	if err := os.MkdirAll(fp.dir(), 0o755); err != nil {
		return persistence.NewFlowstateError("SaveFlowstate", name, err)
	}

	// write then rename so readers never see a partial document
	tmp := fp.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return persistence.NewFlowstateError("SaveFlowstate", name, err)
	}

	if err := os.Rename(tmp, fp.path(name)); err != nil {
		_ = os.Remove(tmp)

		return persistence.NewFlowstateError("SaveFlowstate", name, err)
	}

	return nil
}

func (fp *Persistence) DeleteFlowstate(_ context.Context, name string) error {
	if err := persistence.ValidateName("DeleteFlowstate", name); err != nil {
		return err
	}

	err := os.Remove(fp.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.NewFlowstateError("DeleteFlowstate", name, persistence.ErrFlowstateNotFound)
	}

	if err != nil {
		return persistence.NewFlowstateError("DeleteFlowstate", name, err)
	}

	return nil
}

func (fp *Persistence) dir() string {
	return filepath.Join(fp.root, flowstatesDir)
}

func (fp *Persistence) path(name string) string {
	return filepath.Join(fp.dir(), name+".json")
}
