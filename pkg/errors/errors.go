// Package errors provides structured error types for the layout engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across strategies and the CLI
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codes follow the failure taxonomy of the engine:
//   - INVALID_*: configuration or input rejected before any work is done
//   - STRUCTURAL: an invariant broke in the middle of a layout pass
//   - LAYER_LIMIT: layer assignment ran past its maximum layer count
//   - NOT_FOUND: an entity is not part of the current layout
//   - INTERNAL: unexpected internal errors
//
// Non-convergence of the bounded heuristics is deliberately not an error; it
// is reported through observability hooks and strategy reports instead.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "unknown direction %d", d)
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // keep the previous configuration
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStructural, origErr, "build topology")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidInput  Code = "INVALID_INPUT"

	// Mid-pass failures
	ErrCodeStructural Code = "STRUCTURAL"
	ErrCodeLayerLimit Code = "LAYER_LIMIT"

	// Lookup failures
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Structural is shorthand for a STRUCTURAL error. Strategies use it when an
// invariant that should always hold (a node belongs to the layer it claims,
// an edge references a known entity) turns out to be false mid-pass.
func Structural(format string, args ...any) *Error {
	return New(ErrCodeStructural, format, args...)
}

// InvalidConfig is shorthand for an INVALID_CONFIG error returned by setters.
func InvalidConfig(format string, args ...any) *Error {
	return New(ErrCodeInvalidConfig, format, args...)
}
