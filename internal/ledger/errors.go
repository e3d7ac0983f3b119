package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the actor's role or lab does not cover
	// the target record.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned on version mismatches, duplicate keys and
	// invalid state transitions.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientStock is returned when a transfer exceeds the source's
	// working count.
	ErrInsufficientStock = errors.New("insufficient working stock")
	// ErrInvalidTransfer is returned for non-positive quantities and
	// same-lab transfers.
	ErrInvalidTransfer = errors.New("invalid transfer")
	// ErrInvalidCountSum is returned when working, damaged and lost do not
	// add up to total.
	ErrInvalidCountSum = errors.New("working, damaged and lost must sum to total")
	// ErrCountMismatch is returned when a status update does not add up to
	// the item's existing total.
	ErrCountMismatch = errors.New("counts must sum to the current total")
)

// ValidationError reports malformed input on a single field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}
