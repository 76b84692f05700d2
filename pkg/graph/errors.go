package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownNodeType is returned when creating a node of an unregistered type.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrNodeNotFound is returned when a path, id or node is not part of the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNameTaken is returned when an explicit name is already used under the same parent.
	ErrNameTaken = errors.New("node name already taken")

	// ErrInvalidName is returned for names that are not identifiers.
	ErrInvalidName = errors.New("invalid node name")

	// ErrInvalidParent is returned when a parent cannot hold the node.
	ErrInvalidParent = errors.New("invalid parent")

	// ErrInvalidSocketIndex is returned for input or output indexes outside the node's shape.
	ErrInvalidSocketIndex = errors.New("invalid socket index")

	// ErrInvalidConnection is returned for connections the engine refuses, such as self loops.
	ErrInvalidConnection = errors.New("invalid connection")

	// ErrConnectionMismatch is returned when a connection is not registered on the stated sockets.
	ErrConnectionMismatch = errors.New("connection does not match its sockets")

	// ErrCyclicDependency is returned when cooking meets a node already on the cook path.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrParameterNotFound is returned for unknown parameter names.
	ErrParameterNotFound = errors.New("parameter not found")

	// ErrReadOnlyParameter is returned when setting a read-only parameter.
	ErrReadOnlyParameter = errors.New("parameter is read-only")

	// ErrInvalidParameterValue is returned when a value cannot be coerced to the parameter type.
	ErrInvalidParameterValue = errors.New("invalid parameter value")
)

// OperationError wraps a structural error with the operation and node path involved.
type OperationError struct {
	Op   string // Operation name (e.g. "Create", "SetInput")
	Path string // Node path if applicable
	Err  error  // Underlying error
}

func (e *OperationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for operation errors.
func (e *OperationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func opError(op, path string, err error) error {
	return &OperationError{Op: op, Path: path, Err: err}
}

// IsNodeNotFound checks if an error indicates a missing node.
func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

// IsCyclicDependency checks if an error indicates a dependency cycle.
func IsCyclicDependency(err error) bool {
	return errors.Is(err, ErrCyclicDependency)
}

// IsValidationError checks if an error is caused by invalid caller input rather than engine state.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnknownNodeType) ||
		errors.Is(err, ErrNameTaken) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidParent) ||
		errors.Is(err, ErrInvalidSocketIndex) ||
		errors.Is(err, ErrInvalidConnection) ||
		errors.Is(err, ErrConnectionMismatch) ||
		errors.Is(err, ErrParameterNotFound) ||
		errors.Is(err, ErrReadOnlyParameter) ||
		errors.Is(err, ErrInvalidParameterValue)
}
