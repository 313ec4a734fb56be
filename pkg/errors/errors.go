// Package errors provides structured error types for nodeflow.
//
// This package defines error codes and types that enable:
//   - One machine-readable code per failure category of the codecs
//   - Consistent handling across the library, the CLI and the HTTP service
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Failure Categories
//
// The codecs report failures in a fixed taxonomy:
//   - UNKNOWN_TYPE: a type name in a document does not resolve
//   - UNCONVERTIBLE_VALUE: a string cannot be converted to the declared type
//   - UNKNOWN_PROPERTY: a property name is not found on the live type
//   - TYPE_MISMATCH: a loaded value cannot be assigned to a property
//   - DANGLING_REFERENCE: an edge endpoint id or port does not resolve
//   - CODEC_FAILURE: the opaque binary fallback failed
//   - MALFORMED_DOCUMENT: expected child or attribute structure is missing
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownType, "unknown meta type %q", name)
//	if errors.Is(err, errors.ErrCodeUnknownType) {
//	    // Handle unresolvable type
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeCodec, origErr, "decode %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Codec failure taxonomy
	ErrCodeUnknownType       Code = "UNKNOWN_TYPE"
	ErrCodeUnconvertible     Code = "UNCONVERTIBLE_VALUE"
	ErrCodeUnknownProperty   Code = "UNKNOWN_PROPERTY"
	ErrCodeTypeMismatch      Code = "TYPE_MISMATCH"
	ErrCodeDanglingReference Code = "DANGLING_REFERENCE"
	ErrCodeCodec             Code = "CODEC_FAILURE"
	ErrCodeMalformed         Code = "MALFORMED_DOCUMENT"

	// Registration and input errors
	ErrCodeInvalidValue Code = "INVALID_VALUE"
	ErrCodeDuplicate    Code = "DUPLICATE_REGISTRATION"
	ErrCodeInvalidName  Code = "INVALID_NAME"
	ErrCodeInvalidInput Code = "INVALID_INPUT"

	// Resource not found errors
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
// It unwraps the error chain, including joined errors, looking for an
// *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) && e.Code == code {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if Is(inner, code) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		if inner := x.Unwrap(); inner != nil {
			return Is(inner, code)
		}
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

// Flatten returns the leaf errors of err, descending into joined errors.
// A nil err yields nil.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, inner := range j.Unwrap() {
			out = append(out, Flatten(inner)...)
		}
		return out
	}
	return []error{err}
}
