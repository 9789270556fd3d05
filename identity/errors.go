package identity

import (
	"errors"
	"fmt"
)

// Sentinel errors for identity derivation.
var (
	// ErrNotFunction indicates the wrapped value is not a function.
	ErrNotFunction = errors.New("identity: value is not a function")

	// ErrNoSource indicates the function's source file could not be read,
	// so its logic cannot be fingerprinted. Supply a version tag instead.
	ErrNoSource = errors.New("identity: function source is unavailable")

	// ErrAnonymous indicates the function is a closure or bound method,
	// whose captured state is invisible to the logic digest.
	ErrAnonymous = errors.New("identity: anonymous functions cannot be fingerprinted")

	// ErrUnrepresentable indicates an argument value has no stable
	// canonical encoding.
	ErrUnrepresentable = errors.New("identity: argument is not canonically representable")
)

// CanonicalizationError reports an argument value that cannot be reduced to
// a deterministic byte encoding (functions, channels, cyclic structures).
type CanonicalizationError struct {
	// Name is the bound parameter name, or a positional index like "#2".
	Name string

	// Type describes the offending value's dynamic type.
	Type string

	// Cause is the underlying encoding error.
	Cause error
}

// Error returns the error message.
func (e *CanonicalizationError) Error() string {
	return fmt.Sprintf("identity: argument %s (%s) has no canonical form: %v", e.Name, e.Type, e.Cause)
}

// Unwrap returns the cause error for errors.Is/As support.
func (e *CanonicalizationError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target.
func (e *CanonicalizationError) Is(target error) bool {
	return target == ErrUnrepresentable
}

// BindError reports arguments that cannot be bound against the function's
// declared parameters.
type BindError struct {
	// Function is the function whose parameters were being bound.
	Function string

	// Reason explains why binding failed.
	Reason string
}

// Error returns the error message.
func (e *BindError) Error() string {
	return fmt.Sprintf("identity: cannot bind arguments of %s: %s", e.Function, e.Reason)
}
