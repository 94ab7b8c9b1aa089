// Package core provides the localmind container: the lifecycle state
// machine, the event pipeline, and the host-facing API surface.
package core

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrMissingDependency indicates a required dependency was not supplied
	// to the builder. Configuration errors are fatal and immediate.
	ErrMissingDependency = errors.New("missing required dependency")

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidState indicates an operation attempted in a lifecycle state
	// that does not permit it.
	ErrInvalidState = errors.New("invalid container state")

	// ErrAlreadyInitialized indicates a second Initialize on a container
	// that is already initializing or ready.
	ErrAlreadyInitialized = errors.New("container already initialized")

	// ErrReleased indicates an operation on a released container.
	// Released is terminal; only Release itself remains a no-op.
	ErrReleased = errors.New("container released")
)

// ContainerError wraps errors with operation context.
//
// It provides additional context about which container operation failed,
// making error messages more informative for debugging.
type ContainerError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "localmind: <Op>: <Err>"
func (e *ContainerError) Error() string {
	return fmt.Sprintf("localmind: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
//
// This allows using errors.Is() and errors.As() with ContainerError.
func (e *ContainerError) Unwrap() error {
	return e.Err
}

// NewContainerError creates a new ContainerError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewContainerError("Initialize", err)
//	}
func NewContainerError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ContainerError{
		Op:  op,
		Err: err,
	}
}
