// Package apperr carries the typed failures returned by the services.
package apperr

import (
	"errors"
	"net/http"
)

type ErrCode string

const (
	ErrValidation      ErrCode = "VALIDATION"
	ErrUnauthenticated ErrCode = "UNAUTHENTICATED"
	ErrUnauthorized    ErrCode = "UNAUTHORIZED"
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
)

type codedError struct {
	code ErrCode
	msg  string
}

func (e codedError) Error() string {
	if e.msg == "" {
		return string(e.code)
	}
	return e.msg
}
func (e codedError) Code() ErrCode { return e.code }

func New(c ErrCode, msg string) error { return codedError{code: c, msg: msg} }

func Validation(msg string) error      { return New(ErrValidation, msg) }
func Unauthenticated(msg string) error { return New(ErrUnauthenticated, msg) }
func Unauthorized(msg string) error    { return New(ErrUnauthorized, msg) }
func NotFound(msg string) error        { return New(ErrNotFound, msg) }
func Conflict(msg string) error        { return New(ErrConflict, msg) }

// Code extracts the error code, or "" for untyped errors.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Message returns the caller-facing message of a typed error.
func Message(err error) string {
	var ce codedError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	return "internal error"
}

// HTTPStatus maps a code to its response status; untyped errors are 500.
func HTTPStatus(c ErrCode) int {
	switch c {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthenticated:
		return http.StatusUnauthorized
	case ErrUnauthorized:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
