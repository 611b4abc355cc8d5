// Package domainerrors defines coded errors that services return and the
// transport layer translates into HTTP responses.
//
// Stores return sentinel errors (pkg/platform/sentinel); services translate
// those into a Code here. The registration rejection reasons are codes too,
// so a client can tell "race full" from "already registered" without parsing
// messages.
package domainerrors

import "errors"

// Code is a stable, machine-readable error identifier.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_error"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeUnavailable        Code = "service_unavailable"
	CodeInternal           Code = "internal_error"

	// Registration admission and payment reasons.
	CodeRaceNotFound         Code = "race_not_found"
	CodeRegistrationNotFound Code = "registration_not_found"
	CodeRegistrationClosed   Code = "registration_closed"
	CodeDeadlinePassed       Code = "deadline_passed"
	CodeRaceFull             Code = "race_full"
	CodeAlreadyRegistered    Code = "already_registered"
	CodeWaiverRequired       Code = "waiver_required"
	CodeMissingRequiredField Code = "missing_required_field"
	CodeInvalidTransition    Code = "invalid_transition"
	CodeDuplicateCallback    Code = "duplicate_callback"
	CodeContentionExceeded   Code = "contention_exceeded"
)

// Error carries a Code, a client-safe message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// As returns the outermost domain error in err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// CodeOf returns the code of the outermost domain error, or CodeInternal.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost domain error in err's chain has code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// IsRetryable reports whether the caller may retry the same request unchanged.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeContentionExceeded, CodeTimeout, CodeUnavailable:
		return true
	default:
		return false
	}
}
