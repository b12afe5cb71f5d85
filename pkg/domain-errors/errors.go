// Package domainerrors provides coded errors that travel from services to
// transports. Stores return sentinel errors (pkg/platform/sentinel); services
// translate them into coded errors here so handlers never inspect raw store
// failures.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error class. Codes are part of the wire contract: the
// HTTP layer maps them to status codes and returns them verbatim in the
// `error` field of the JSON envelope.
type Code string

const (
	// Transport-level codes.
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"

	// Certificate verification failures.
	CodeBadSignature    Code = "bad_signature"
	CodeExpired         Code = "expired"
	CodeSubjectMismatch Code = "subject_mismatch"
	CodeReplayed        Code = "replayed"

	// Sanctions aggregation failures.
	CodeSourceUnavailable Code = "source_unavailable"

	// Policy registry failures.
	CodeAlreadyRegistered Code = "already_registered"
	CodeNotRegistered     Code = "not_registered"

	// Instance bootstrap failures.
	CodeAlreadyInitialized Code = "already_initialized"
	CodeNotAContract       Code = "not_a_contract"

	// Transport throttling.
	CodeRateLimited Code = "rate_limited"
)

// Error is a coded error with an operator-readable message and optional cause.
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

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause stays
// reachable through errors.Is/As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from an error, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps an error code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeNotAContract:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeBadSignature, CodeExpired, CodeReplayed:
		return http.StatusUnauthorized
	// source_unavailable is only ever surfaced as a fail-closed denial,
	// so it answers as a refusal rather than an upstream error.
	case CodeForbidden, CodeSubjectMismatch, CodeSourceUnavailable:
		return http.StatusForbidden
	case CodeNotFound, CodeNotRegistered:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyRegistered, CodeAlreadyInitialized:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
