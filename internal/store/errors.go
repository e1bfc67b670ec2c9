package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/punchlineapp/punchline-server/internal/docstore"
)

// Error is a repository error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same status code, so errors derived with
// WithMessage still satisfy errors.Is against the base sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	return errors.As(target, &t) && t.Code == e.Code
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Err: e.Err}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	// ErrInvalidID reports an id that cannot name a document.
	ErrInvalidID = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid identifier",
	}

	// ErrUnavailable reports that the document store failed or timed out.
	ErrUnavailable = &Error{
		Code:    http.StatusServiceUnavailable,
		Message: "document store unavailable",
	}
)

// Entity-specific errors.
var (
	ErrJokeNotFound = ErrNotFound.WithMessage("joke not found")
	ErrJokeExists   = ErrAlreadyExists.WithMessage("joke already exists")
)

// translate maps backend errors onto repository errors. Cancellation is
// passed through so callers can tell a client hang-up from an outage. A
// malformed id names no document, so it is notFound when the caller has
// one.
func translate(err error, notFound *Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, docstore.ErrInvalidPath) && notFound != nil:
		return notFound
	case errors.Is(err, docstore.ErrInvalidPath):
		return ErrInvalidID.WithCause(err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return ErrUnavailable.WithCause(err)
	}
}
