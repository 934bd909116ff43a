package app

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced task, document, notification or agent does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotSubscribed is returned by Unsubscribe when no subscription exists.
	ErrNotSubscribed = errors.New("not subscribed")
)

// ValidationError reports a missing or out-of-domain input. It is always
// returned before any state is written.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func invalid(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

func required(field string) error {
	return &ValidationError{Field: field, Reason: "required"}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
