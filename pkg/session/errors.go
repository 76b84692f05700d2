package session

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned for an unknown or closed session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoPersistence is returned by Load and Save when the manager has no storage.
	ErrNoPersistence = errors.New("no flowstate persistence configured")

	// ErrTooManySessions is returned by Create once the session limit is reached.
	ErrTooManySessions = errors.New("too many open sessions")
)

// SessionError wraps a session-level failure with the operation and session id.
type SessionError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func (e *SessionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newSessionError(op, id string, err error) error {
	return &SessionError{Op: op, SessionID: id, Err: err}
}

// IsSessionNotFound checks if an error means the session does not exist.
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
