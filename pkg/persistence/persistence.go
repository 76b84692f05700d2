// Package persistence provides the storage abstraction for named flowstate documents.
package persistence

import (
	"context"
	"regexp"

	"github.com/dukex/flowcook/pkg/flowstate"
)

// Persistence stores flowstate documents under unique names.
type Persistence interface {
	// Flowstates returns the stored names in ascending order.
	Flowstates(ctx context.Context) ([]string, error)
	// Flowstate returns the named document or an error matching ErrFlowstateNotFound.
	Flowstate(ctx context.Context, name string) (*flowstate.Document, error)
	// SaveFlowstate creates or replaces the named document.
	SaveFlowstate(ctx context.Context, name string, doc *flowstate.Document) error
	// DeleteFlowstate removes the named document or fails with ErrFlowstateNotFound.
	DeleteFlowstate(ctx context.Context, name string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// ValidateName rejects names that are empty, too long or could escape a storage directory.
func ValidateName(op, name string) error {
	if !namePattern.MatchString(name) {
		return NewFlowstateError(op, name, ErrInvalidFlowstateName)
	}

	return nil
}
