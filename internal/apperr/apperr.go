// Package apperr carries the error taxonomy shared by the interview engine and the
// HTTP layer. Every error leaving a usecase is an *Error with a stable Code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindValidation   Kind = "validation"
	KindForbidden    Kind = "forbidden"
	KindPrecondition Kind = "precondition_failed"
	KindGeneration   Kind = "generation_failed"
)

var statusByKind = map[Kind]int{
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
	KindInvalidState: http.StatusBadRequest,
	KindValidation:   http.StatusBadRequest,
	KindForbidden:    http.StatusForbidden,
	KindPrecondition: http.StatusPreconditionFailed,
	KindGeneration:   http.StatusInternalServerError,
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Status is the HTTP status the kind maps to; unknown kinds map to 500.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func New(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func NotFound(code, format string, args ...any) *Error {
	return New(KindNotFound, code, fmt.Sprintf(format, args...), nil)
}

func Conflict(code, format string, args ...any) *Error {
	return New(KindConflict, code, fmt.Sprintf(format, args...), nil)
}

func InvalidState(code, format string, args ...any) *Error {
	return New(KindInvalidState, code, fmt.Sprintf(format, args...), nil)
}

func Validation(code, format string, args ...any) *Error {
	return New(KindValidation, code, fmt.Sprintf(format, args...), nil)
}

func Forbidden(code, format string, args ...any) *Error {
	return New(KindForbidden, code, fmt.Sprintf(format, args...), nil)
}

func Precondition(code, format string, args ...any) *Error {
	return New(KindPrecondition, code, fmt.Sprintf(format, args...), nil)
}

func Generation(code string, err error) *Error {
	return New(KindGeneration, code, "match generation failed", err)
}

// Is reports whether err is an *Error of the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
