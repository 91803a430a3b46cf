package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the structured failure type every service returns. Kind drives
// both the HTTP status and the machine-readable error body.
type Error struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Cause      error  `json:"-"`
}

const (
	KindNotFound     = "NOT_FOUND"
	KindConflict     = "CONFLICT"
	KindInvalidInput = "INVALID_INPUT"
	KindUnauthorized = "UNAUTHORIZED"
	KindForbidden    = "FORBIDDEN"
	KindUpstream     = "UPSTREAM_FAILURE"
	KindInternal     = "INTERNAL"
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message, StatusCode: http.StatusNotFound}
}

func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message, StatusCode: http.StatusConflict}
}

func NewInvalidInputError(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message, StatusCode: http.StatusBadRequest}
}

func NewUnauthorizedError(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message, StatusCode: http.StatusUnauthorized}
}

func NewForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message, StatusCode: http.StatusForbidden}
}

func NewUpstreamError(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: message, StatusCode: http.StatusBadGateway, Cause: cause}
}

func NewInternalError(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, StatusCode: http.StatusInternalServerError, Cause: cause}
}

// StatusCodeOf maps any error to an HTTP status. Unrecognized errors are
// treated as internal.
func StatusCodeOf(err error) int {
	var se *Error
	if errors.As(err, &se) && se.StatusCode > 0 {
		return se.StatusCode
	}
	return http.StatusInternalServerError
}
