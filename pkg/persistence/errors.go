package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrFlowstateNotFound indicates no document is stored under the given name.
	ErrFlowstateNotFound = errors.New("flowstate not found")

	// ErrInvalidFlowstateName indicates a name that cannot be stored.
	ErrInvalidFlowstateName = errors.New("invalid flowstate name")
)

// FlowstateError wraps flowstate storage errors with additional context.
type FlowstateError struct {
	Op   string // Operation being performed (e.g., "Flowstate", "SaveFlowstate")
	Name string // Document name
	Err  error  // Underlying error
}

func (e *FlowstateError) Error() string {
	return fmt.Sprintf("%s operation failed for flowstate %s: %v", e.Op, e.Name, e.Err)
}

func (e *FlowstateError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for flowstate errors.
func (e *FlowstateError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewFlowstateError creates a new flowstate error with context.
func NewFlowstateError(op, name string, err error) *FlowstateError {
	return &FlowstateError{
		Op:   op,
		Name: name,
		Err:  err,
	}
}

// IsFlowstateNotFound checks if an error indicates a flowstate was not found.
func IsFlowstateNotFound(err error) bool {
	return errors.Is(err, ErrFlowstateNotFound)
}

// IsInvalidFlowstateName checks if an error indicates an unusable name.
func IsInvalidFlowstateName(err error) bool {
	return errors.Is(err, ErrInvalidFlowstateName)
}
