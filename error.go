package qagen

import (
	"errors"
	"fmt"
)

// Application error codes.
//
// The codes partition failures by how the job coordinator must react:
// fetch-layer codes (ETIMEOUT, ENOTFOUND, EUNREACHABLE, ETOOLARGE) are
// per-page and never fatal to a job; generation-layer codes (ERATELIMITED,
// EUNAVAILABLE, EINVALIDRESPONSE) are per-segment and subject to retry
// policy; EUNAUTHORIZED is systemic and fails the whole job.
const (
	ECONFLICT        = "conflict"
	EINTERNAL        = "internal"
	EINVALID         = "invalid"
	ENOTFOUND        = "not_found"
	ETIMEOUT         = "timeout"
	EUNREACHABLE     = "unreachable"
	ETOOLARGE        = "too_large"
	ERATELIMITED     = "rate_limited"
	EUNAVAILABLE     = "unavailable"
	EINVALIDRESPONSE = "invalid_response"
	EUNAUTHORIZED    = "unauthorized"
)

// Error represents an application-specific error. Errors carry a
// machine-readable code and a human-readable message.
type Error struct {
	// Code classifies the error for programmatic handling.
	Code string

	// Message is a human-readable description of the error.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("qagen error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Errorf returns an Error with the given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsTransient reports whether the error represents a transient service
// condition worth retrying with backoff.
func IsTransient(err error) bool {
	switch ErrorCode(err) {
	case ERATELIMITED, EUNAVAILABLE:
		return true
	}
	return false
}

// IsSystemic reports whether the error invalidates the whole job rather
// than a single page or segment.
func IsSystemic(err error) bool {
	return ErrorCode(err) == EUNAUTHORIZED
}
