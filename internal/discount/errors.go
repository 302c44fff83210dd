package discount

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the sentinel wrapped by every InputError.
var ErrInvalidInput = errors.New("invalid input")

// InputError is returned when a calculation request is malformed.
type InputError struct {
	Field  string
	Reason string
	Value  any
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid input: field=%s, reason=%s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid input: field=%s, reason=%s, value=%v", e.Field, e.Reason, e.Value)
}

// Unwrap exposes ErrInvalidInput to errors.Is.
func (e *InputError) Unwrap() error { return ErrInvalidInput }

// NewInputError constructs an InputError.
func NewInputError(field, reason string, value any) error {
	return &InputError{Field: field, Reason: reason, Value: value}
}

// IsInputError reports whether err is, or wraps, an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
