// Package apperr provides a small typed-error vocabulary the HTTP layer maps
// to status codes, in place of scattering raw sentinel values (the teacher's
// server/auth_handler.go checks a repository-level sentinel via errors.Is;
// this generalizes that pattern into one reusable kind per failure class).
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure the way the HTTP layer needs to see it.
type Kind string

const (
	BadRequest      Kind = "bad_request"
	Unauthenticated Kind = "unauthenticated"
	Forbidden       Kind = "forbidden"
	NotFound        Kind = "not_found"
	UnsupportedURL  Kind = "unsupported_url"
	FeatureDisabled Kind = "feature_disabled"
	UpstreamFailure Kind = "upstream_failure"
	Timeout         Kind = "timeout"
	Internal        Kind = "internal"
)

// statusByKind maps each Kind to the HTTP status code spec §7 assigns it.
var statusByKind = map[Kind]int{
	BadRequest:      http.StatusBadRequest,
	Unauthenticated: http.StatusUnauthorized,
	Forbidden:       http.StatusForbidden,
	NotFound:        http.StatusNotFound,
	UnsupportedURL:  http.StatusUnprocessableEntity,
	FeatureDisabled: http.StatusServiceUnavailable,
	UpstreamFailure: http.StatusBadGateway,
	Timeout:         http.StatusInternalServerError,
	Internal:        http.StatusInternalServerError,
}

// Error is an error carrying a Kind and a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error // optional wrapped cause, not shown to the caller
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind around a lower-level cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// StatusCode returns the HTTP status code for err, defaulting to 500 when err
// is not an *Error (or is nil).
func StatusCode(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		if code, ok := statusByKind[appErr.Kind]; ok {
			return code
		}
	}
	return http.StatusInternalServerError
}

// KindOf extracts the Kind from err, or Internal if err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}
