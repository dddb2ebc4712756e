package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes sent in the error envelope.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeInternal     = "internal"
)

// Error carries the HTTP status and a stable machine code alongside the cause.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(msg string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, errors.New(msg))
}

func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, err)
}

// NotFound reports that the named resource does not exist.
func NotFound(what string) *Error {
	return New(http.StatusNotFound, CodeNotFound, errors.New(what+" not found"))
}

// Internal hides the cause from clients; Unwrap still reaches it for logs.
func Internal(err error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, err)
}

// Message is the client-facing text of e.
func (e *Error) Message() string {
	switch {
	case e.Code == CodeInternal:
		return "internal error"
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Code
	}
}
