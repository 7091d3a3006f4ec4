// Package apierr defines the error kinds services return and handlers map
// to HTTP status codes.
//
// Services wrap one of the constructors with fmt.Errorf("...: %w", err) as needed;
// respond.Error unwraps with errors.As and picks the status from the Kind.
package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Error is a classified error with a message safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string // per-field validation messages, optional
	Err     error             // underlying cause, never shown to callers
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// ValidationFields returns a validation error carrying per-field messages.
func ValidationFields(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Conflict is a state conflict: the record exists but is not in a state
// that allows the requested transition.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

func RateLimited(msg string) *Error { return &Error{Kind: KindRateLimited, Message: msg} }

// Internal wraps an unexpected failure. The cause is logged, never returned.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf returns the Kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
