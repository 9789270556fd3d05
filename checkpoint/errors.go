package checkpoint

import "errors"

// Sentinel errors for wrapping.
var (
	// ErrBadSignature indicates fn does not return a value or a
	// (value, error) pair.
	ErrBadSignature = errors.New("checkpoint: fn must return a value or (value, error)")

	// ErrArgumentType indicates a call argument cannot be passed to the
	// corresponding parameter.
	ErrArgumentType = errors.New("checkpoint: argument type mismatch")
)
