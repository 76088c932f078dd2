package finpilot

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound is returned when a task id is unknown to the store.
	ErrTaskNotFound = errors.New("finpilot: task not found")

	// ErrTaskTerminal is returned when a mark operation targets a task
	// that already resolved or failed. The store is left unchanged.
	ErrTaskTerminal = errors.New("finpilot: task already terminal")
)

// ValidationError rejects input synchronously at Submit. No task is created;
// callers surface it inline rather than as a task failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ResolutionError describes a failure during asynchronous resolution. The
// task transitions to failed with this reason; there is no automatic retry.
type ResolutionError struct {
	Kind   Kind
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s resolution failed: %s", e.Kind, e.Reason)
}
