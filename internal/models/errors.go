package models

import (
	"errors"
	"fmt"
)

// Error taxonomy for queue operations. Handlers map these onto HTTP status
// codes; nothing is retried internally.
var (
	// ErrUnavailable means the backing store could not be reached or timed
	// out. The operation must not be assumed to have committed.
	ErrUnavailable = errors.New("queue store unavailable")

	// ErrEmptyQueue means no token is waiting
	ErrEmptyQueue = errors.New("no tokens waiting in queue")

	// ErrNoCounterSelected means the target counter is missing or inactive
	ErrNoCounterSelected = errors.New("no active counter selected")

	// ErrTokenNotFound means the referenced token id does not exist
	ErrTokenNotFound = errors.New("token not found")

	// ErrConcurrencyConflict means the caller lost a race to claim a token
	// or a counter; re-fetch current state before retrying
	ErrConcurrencyConflict = errors.New("conflicting concurrent queue operation")
)

// InvalidTransitionError reports an illegal status change attempt, naming
// both the current and the requested state
type InvalidTransitionError struct {
	From TokenStatus
	To   TokenStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid token transition from %q to %q", e.From, e.To)
}

// NewInvalidTransition builds an InvalidTransitionError for from -> to
func NewInvalidTransition(from, to TokenStatus) error {
	return &InvalidTransitionError{From: from, To: to}
}
