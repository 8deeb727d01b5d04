// internal/app/system/apperr/apperr.go

// Package apperr defines the operation-level error taxonomy. Stores and
// features return these so the HTTP boundary can map each failure to a
// machine-readable kind and status code without string matching.
package apperr

import (
	"errors"
	"net/http"
)

// Error kinds.
const (
	KindNotFound   = "not_found"
	KindConflict   = "conflict"
	KindForbidden  = "forbidden"
	KindValidation = "validation"
)

// Error carries a kind and a human-readable message across operation
// boundaries. It intentionally has no stack or cause chain of its own;
// wrap with %w when context matters.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// NotFound reports a missing, deleted, or not-owned target.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Conflict reports a uniqueness violation (e.g. duplicate enrollment).
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// Forbidden reports an access attempt the caller is not entitled to.
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

// Validation reports malformed or missing input.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// IsNotFound reports whether err is a not_found error.
func IsNotFound(err error) bool {
	e, ok := As(err)
	return ok && e.Kind == KindNotFound
}

// As unwraps err to an *Error when possible.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Status maps an error to its HTTP status code. Unrecognized errors map to
// 500 so internal failures are never mistaken for caller mistakes.
func Status(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
