// Package apperr defines the error taxonomy shared by services and the HTTP layer.
// Each error carries a kind (matched with errors.Is against the sentinels below) and a
// human-readable reason that is safe to show to the caller.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Handlers map them to transport status codes.
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrStorage         = errors.New("storage failure")
)

// Error is a classified error with a caller-facing reason.
type Error struct {
	kind   error
	Reason string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Reason + ": " + e.cause.Error()
	}
	return e.Reason
}

// Unwrap exposes both the kind and the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

// Kind returns the sentinel kind of the error.
func (e *Error) Kind() error { return e.kind }

func Unauthenticated(reason string) error {
	return &Error{kind: ErrUnauthenticated, Reason: reason}
}

func Forbidden(reason string) error {
	return &Error{kind: ErrForbidden, Reason: reason}
}

func NotFound(reason string) error {
	return &Error{kind: ErrNotFound, Reason: reason}
}

func InvalidInput(reason string) error {
	return &Error{kind: ErrInvalidInput, Reason: reason}
}

func Conflict(reason string) error {
	return &Error{kind: ErrConflict, Reason: reason}
}

// Storage wraps a collaborator failure. The reason names the operation; the cause is kept for logs.
func Storage(op string, err error) error {
	return &Error{kind: ErrStorage, Reason: fmt.Sprintf("storage failure during %s", op), cause: err}
}

// Reason returns the caller-facing reason of err if it is an *Error, otherwise "".
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
