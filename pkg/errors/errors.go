// Package errors provides structured error types for layermap.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, API and library callers
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// Resolution outcomes, boundary violations and path misses are not errors in
// layermap; they are returned as values. This package covers the failures
// that remain: malformed input, degenerate geometry, unsupported operations
// and I/O.
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Resource not found
//   - NETWORK_*: Network-related errors
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDegenerateGeometry, "source %q has zero area", name)
//	if errors.Is(err, errors.ErrCodeDegenerateGeometry) {
//	    // Skip this container, keep remapping the others
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidDocument, origErr, "decode %s", path)
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
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidDocument    Code = "INVALID_DOCUMENT"
	ErrCodeInvalidStrategy    Code = "INVALID_STRATEGY"
	ErrCodeInvalidPath        Code = "INVALID_PATH"
	ErrCodeInvalidMapping     Code = "INVALID_MAPPING"
	ErrCodeDegenerateGeometry Code = "DEGENERATE_GEOMETRY"

	// Resource not found errors
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeContainerNotFound Code = "CONTAINER_NOT_FOUND"
	ErrCodeDocumentNotFound  Code = "DOCUMENT_NOT_FOUND"
	ErrCodeFileNotFound      Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

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

// HTTPStatus maps an error code to the HTTP status used by the API server.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidDocument, ErrCodeInvalidStrategy,
		ErrCodeInvalidPath, ErrCodeInvalidMapping:
		return 400
	case ErrCodeNotFound, ErrCodeContainerNotFound, ErrCodeDocumentNotFound, ErrCodeFileNotFound:
		return 404
	case ErrCodeDegenerateGeometry:
		return 422
	case ErrCodeUnsupported:
		return 501
	case ErrCodeNetwork:
		return 502
	case ErrCodeTimeout:
		return 504
	default:
		return 500
	}
}
