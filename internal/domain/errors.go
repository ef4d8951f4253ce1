package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage marks failures of the persistence backend. Callers match it
	// with errors.Is; the wrapped cause carries the backend detail.
	ErrStorage = errors.New("storage unavailable")

	// ErrUnauthorized is returned when a non-admin attempts a command.
	ErrUnauthorized = errors.New("sender is not an admin")
)

// ValidationError reports malformed user input (date, time, command
// arguments). Message is safe to show to the sender.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}

func invalid(field, value, msg string) error {
	return &ValidationError{Field: field, Value: value, Message: msg}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DeliveryError wraps a failed notification send to one user.
type DeliveryError struct {
	UserID int64
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %d: %v", e.UserID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
