// Package errors provides a structured error type hierarchy for tmplconv.
//
// This package defines base error types for common error conditions, wrapped error
// types that add contextual information, and helper functions for error wrapping
// and type checking.
//
// # Error Types
//
// Base errors (sentinel errors):
//   - ErrNotFound - resource not found
//   - ErrInvalid - validation failed
//   - ErrIO - file I/O error
//   - ErrCanceled - user canceled operation
//   - ErrMissingCredential - generative conversion requested without a credential
//   - ErrUnmappedPlaceholder - placeholder has no catalogue entry
//   - ErrGenerativeCall - generative service call failed
//   - ErrInvalidOutput - generative output rejected by the validator
//   - ErrUnsupportedFormat - unknown input or output file format
//
// Wrapped error types (add context):
//   - EntryError{Op, Key, Err} - per-entry conversion errors
//   - GenerativeError{Provider, Status, Err} - generative service errors
//   - ConfigError{Path, Err} - configuration errors
//
// # Usage
//
//	// Use sentinel errors directly
//	return errors.ErrMissingCredential
//
//	// Wrap with context using Wrap
//	return errors.Wrap(err, "loadEntries")
//
//	// Use structured error types
//	return &errors.GenerativeError{Provider: "openai", Status: 502, Err: errors.ErrGenerativeCall}
//
//	// Check error types
//	if errors.IsMissingCredential(err) {
//	    // tell the user how to configure a key
//	}
package errors

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = baseError("not found")

	// ErrInvalid indicates validation failed.
	ErrInvalid = baseError("invalid")

	// ErrIO indicates a file I/O error.
	ErrIO = baseError("I/O error")

	// ErrCanceled indicates the user canceled an operation.
	ErrCanceled = baseError("canceled")

	// ErrMissingCredential indicates the generative path was required but no
	// credential is configured.
	ErrMissingCredential = baseError("missing generative credential")

	// ErrUnmappedPlaceholder indicates a placeholder with no catalogue entry.
	ErrUnmappedPlaceholder = baseError("unmapped placeholder")

	// ErrGenerativeCall indicates the generative service call failed.
	ErrGenerativeCall = baseError("generative call failed")

	// ErrInvalidOutput indicates generated output failed validation.
	ErrInvalidOutput = baseError("invalid generative output")

	// ErrUnsupportedFormat indicates an unknown file format.
	ErrUnsupportedFormat = baseError("unsupported format")
)

// baseError is a string that implements error.
type baseError string

func (e baseError) Error() string { return string(e) }

// EntryError represents an error that occurred while converting one entry.
type EntryError struct {
	// Op is the operation being performed (e.g., "rewrite", "generate").
	Op string
	// Err is the underlying error.
	Err error
	// Key is the entry key (optional).
	Key string
}

func (e *EntryError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("entry %s %q: %s", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("entry %s: %s", e.Op, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// GenerativeError represents a failed generative service call.
type GenerativeError struct {
	// Provider is the provider name (e.g., "openai").
	Provider string
	// Status is the HTTP status code, zero when no response was received.
	Status int
	// Err is the underlying error.
	Err error
}

func (e *GenerativeError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s provider (status %d): %s", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s provider: %s", e.Provider, e.Err)
}

func (e *GenerativeError) Unwrap() error { return e.Err }

// ConfigError represents an error related to configuration.
type ConfigError struct {
	// Path is the configuration file path (optional).
	Path string
	// Err is the underlying error.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Wrap adds context to an error by wrapping it with an operation name.
// The returned error implements Unwrap() allowing errors.Is and errors.As
// to work with the wrapped error.
func Wrap(err error, op string) error {
	return &wrappedError{op: op, err: err}
}

// wrappedError is an error with an operation context.
type wrappedError struct {
	op  string
	err error
}

func (e *wrappedError) Error() string { return fmt.Sprintf("%s: %s", e.op, e.err) }
func (e *wrappedError) Unwrap() error { return e.err }

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalid reports whether err is or wraps ErrInvalid.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

// IsIO reports whether err is or wraps ErrIO.
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}

// IsCanceled reports whether err is or wraps ErrCanceled.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsMissingCredential reports whether err is or wraps ErrMissingCredential.
func IsMissingCredential(err error) bool {
	return errors.Is(err, ErrMissingCredential)
}

// IsUnmappedPlaceholder reports whether err is or wraps ErrUnmappedPlaceholder.
func IsUnmappedPlaceholder(err error) bool {
	return errors.Is(err, ErrUnmappedPlaceholder)
}

// IsGenerativeFailure reports whether err is a generative call failure or an
// invalid generative output. Both trigger the deterministic fallback.
func IsGenerativeFailure(err error) bool {
	return errors.Is(err, ErrGenerativeCall) || errors.Is(err, ErrInvalidOutput)
}

// IsUnsupportedFormat reports whether err is or wraps ErrUnsupportedFormat.
func IsUnsupportedFormat(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat)
}

// AsEntryError reports whether err can be typed as an *EntryError.
func AsEntryError(err error) (*EntryError, bool) {
	var ee *EntryError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

// AsGenerativeError reports whether err can be typed as a *GenerativeError.
func AsGenerativeError(err error) (*GenerativeError, bool) {
	var ge *GenerativeError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// AsConfigError reports whether err can be typed as a *ConfigError.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
