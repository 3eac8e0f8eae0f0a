// Package apperr defines the typed errors that services return to the HTTP
// layer. Each error carries the status code and the client-facing message;
// the wrapped cause is only logged.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Error is an HTTP-aware application error.
type Error struct {
	Status  int
	Message string
	Fields  []FieldError
	Err     error

	pcs []uintptr
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Stack renders the call stack captured when the error was created.
func (e *Error) Stack() string {
	if len(e.pcs) == 0 {
		return ""
	}
	var sb strings.Builder
	frames := runtime.CallersFrames(e.pcs)
	for {
		f, more := frames.Next()
		fmt.Fprintf(&sb, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return sb.String()
}

func newError(status int, msg string, err error) *Error {
	pcs := make([]uintptr, 32)
	// skip runtime.Callers, newError and the exported constructor
	n := runtime.Callers(3, pcs)
	return &Error{Status: status, Message: msg, Err: err, pcs: pcs[:n]}
}

// New returns an error with an arbitrary status.
func New(status int, msg string) *Error { return newError(status, msg, nil) }

// Wrap returns an error with an arbitrary status that keeps err as its cause.
func Wrap(status int, msg string, err error) *Error { return newError(status, msg, err) }

func BadRequest(msg string) *Error   { return newError(http.StatusBadRequest, msg, nil) }
func Unauthorized(msg string) *Error { return newError(http.StatusUnauthorized, msg, nil) }
func Forbidden(msg string) *Error    { return newError(http.StatusForbidden, msg, nil) }
func NotFound(msg string) *Error     { return newError(http.StatusNotFound, msg, nil) }
func Conflict(msg string) *Error     { return newError(http.StatusConflict, msg, nil) }

// Validation returns a 422 carrying the per-field failures.
func Validation(msg string, fields []FieldError) *Error {
	e := newError(http.StatusUnprocessableEntity, msg, nil)
	e.Fields = fields
	return e
}

// Internal returns a 500 that hides err from the client.
func Internal(msg string, err error) *Error {
	return newError(http.StatusInternalServerError, msg, err)
}

// As reports whether err is, or wraps, an *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
