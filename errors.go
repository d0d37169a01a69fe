package nestdrop

import (
	"fmt"
)

// Error is a wrapper for specific types of errors for which there is no additional information
// necessary. These errors are defined as global variables, and are usually wrapped with
// errors.Wrapf to give the offending value.
type Error struct{ string }

func (err Error) Error() string {
	return err.string
}

// These are the global errors that may be returned.
var (
	// ErrInvalidConfig marks a construction contract violation: a probability outside [0, 1], a
	// negative backflow, a non-positive size, and so on. Nothing is ever clamped silently.
	ErrInvalidConfig = Error{"invalid configuration"}

	// ErrDegenerateMask is returned when a triangular layer's diagonal leaves it with no
	// learnable weights, or when the band covers the whole matrix (anything but 1x1).
	ErrDegenerateMask = Error{"degenerate triangular mask"}

	// ErrNoCache is returned by Backward when there was no training Forward to pair it with.
	ErrNoCache = Error{"backward called without a training forward pass"}

	// ErrUnknownKind is returned when parsing an initializer, optimizer or cost function name
	// that isn't registered.
	ErrUnknownKind = Error{"unknown kind"}
)

// NilArgError documents errors resulting from certain arguments provided to a function being nil.
type NilArgError struct{ string }

// NilArg returns a NilArgError naming the argument that was nil.
func NilArg(name string) NilArgError {
	return NilArgError{name}
}

func (err NilArgError) Error() string {
	return err.string + " is nil"
}

// SizeMismatchError is returned when the width of a tensor doesn't match what a layer was built
// for. Layers never truncate their inputs to make them fit.
type SizeMismatchError struct {
	Expected, Got int
	What          string

	// AtMost is set when Expected is an upper bound rather than an exact size
	AtMost bool
}

func (err SizeMismatchError) Error() string {
	if err.AtMost {
		return fmt.Sprintf("size mismatch for %s: expected at most %d, got %d", err.What, err.Expected, err.Got)
	}
	return fmt.Sprintf("size mismatch for %s: expected %d, got %d", err.What, err.Expected, err.Got)
}
