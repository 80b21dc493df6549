package query

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record, a family or a backing file does not
// exist. It is an expected condition.
var ErrNotFound = errors.New("not found")

// ValidationError is a malformed or unknown request parameter.
type ValidationError struct {
	// Field is the request parameter at fault.
	Field string

	// Msg explains the problem.
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// IsValidation checks if an error is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
