// Package domainerrors provides coded errors for the registry core.
//
// Stores return plain sentinel errors (pkg/platform/sentinel); services
// translate them into coded errors here so callers can branch on Code
// without string matching. Every public service operation returns a value,
// a boolean, or exactly one coded error.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for programmatic handling.
type Code string

const (
	// CodeInvalidInput covers missing or malformed identity fields,
	// attribute values that fail schema validation, and bad parameters.
	CodeInvalidInput Code = "invalid_input"

	// CodeInvalidReference marks an unknown barangay or field reference.
	CodeInvalidReference Code = "invalid_reference"

	// CodeNotFound marks an unknown record, barangay, or field definition.
	CodeNotFound Code = "not_found"

	// CodeConflict marks a uniqueness violation on reference data
	// (field name/label, barangay name/control code).
	CodeConflict Code = "conflict"

	// CodeDuplicateRecord marks an identity+birthdate collision detected
	// before a beneficiary write.
	CodeDuplicateRecord Code = "duplicate_record"

	// CodeDuplicateIdentifier marks an idNumber collision surfaced by the
	// store's uniqueness constraint. Callers retry allocation, bounded.
	CodeDuplicateIdentifier Code = "duplicate_identifier"

	// CodeAllocationExhausted signals no free identifier after the bounded
	// retry loop; the suffix space for the control code is near saturation.
	CodeAllocationExhausted Code = "allocation_exhausted"

	// CodeInvariantViolation marks a model-level invariant failure.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeUnavailable marks an upstream collaborator failure (media store,
	// audit sink). Partial effects are not rolled back.
	CodeUnavailable Code = "unavailable"

	// CodeInternal is the fallback for unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It carries an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err
// returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the outermost code carried by err, or CodeInternal when
// err is not a coded error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
