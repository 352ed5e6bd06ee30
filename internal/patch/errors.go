package patch

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFieldsToUpdate means nothing writable remained after filtering.
	ErrNoFieldsToUpdate = errors.New("no fields to update")
	// ErrMissingScope means a statement was requested without an owner or row id.
	ErrMissingScope = errors.New("update scope is incomplete")
	// ErrInvalidValue is the sentinel wrapped by InvalidValueError.
	ErrInvalidValue = errors.New("invalid field value")
)

// InvalidValueError reports an allow-listed field whose value does not fit
// its column.
type InvalidValueError struct {
	Field  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for field %q: %s", e.Field, e.Reason)
}

func (e *InvalidValueError) Unwrap() error {
	return ErrInvalidValue
}

func invalid(field, format string, args ...any) error {
	return &InvalidValueError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
