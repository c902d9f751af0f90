// Package apperr defines the error taxonomy shared by every domain package.
//
// Domain services never return raw store errors to callers. Every failure is
// one of five kinds, and the HTTP layer maps the kind to a status code and a
// stable machine-readable code in the response body.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable category of a failure.
type Kind string

const (
	KindValidation    Kind = "validation"    // Malformed or insufficient input
	KindNotFound      Kind = "not_found"     // Referenced record does not exist
	KindAuthorization Kind = "authorization" // Actor lacks the required role or ownership
	KindConflict      Kind = "conflict"      // State precondition violated
	KindPersistence   Kind = "persistence"   // Underlying store failure
)

// Error carries a Kind, a human-readable message, and optionally the cause.
// The cause is only for logs; it is never serialized to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a store failure. The message stays generic on purpose:
// query text and driver errors only reach the logs through Err.
func Persistence(err error) *Error {
	return &Error{Kind: KindPersistence, Message: "storage failure", Err: err}
}

// KindOf reports the Kind of err. Errors that are not *Error are treated as
// persistence failures, since anything unclassified came from below the
// domain layer.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindPersistence
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Wrap returns err unchanged when it is already classified, and wraps it as
// a persistence failure otherwise. Repositories call this on every return path.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return Persistence(err)
}
