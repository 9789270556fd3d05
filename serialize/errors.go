package serialize

import (
	"errors"
	"fmt"
)

// Sentinel errors for serialization backends.
var (
	// ErrNotTabular indicates a value routed to a tabular backend is not a
	// slice of flat structs.
	ErrNotTabular = errors.New("serialize: value is not tabular")

	// ErrNotPointer indicates a deserialization target is not a non-nil
	// pointer.
	ErrNotPointer = errors.New("serialize: target must be a non-nil pointer")
)

// SerializationError reports a backend that could not encode or decode a
// value, naming the backend and the value's type.
type SerializationError struct {
	// Backend is the backend name, e.g. "csv" or "parquet".
	Backend string

	// Type describes the value or target type involved.
	Type string

	// Cause is the underlying error if any.
	Cause error
}

// Error returns the error message.
func (e *SerializationError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("serialize: %s backend cannot handle %s", e.Backend, e.Type)
	}
	return fmt.Sprintf("serialize: %s backend cannot handle %s: %v", e.Backend, e.Type, e.Cause)
}

// Unwrap returns the cause error for errors.Is/As support.
func (e *SerializationError) Unwrap() error {
	return e.Cause
}
