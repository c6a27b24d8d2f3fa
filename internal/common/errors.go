// Package common defines shared constants, sentinel errors and error kinds used
// across client and server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Error kinds returned by the credential lifecycle engine.
	ErrorConflict     = errors.New("conflict")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorBadRequest   = errors.New("bad request")
	ErrorInternal     = errors.New("internal error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)

// Error is an engine failure carrying a kind (one of the sentinels above) and a
// caller-safe message. errors.Is(err, kind) matches through Unwrap.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Conflict reports a uniqueness violation, e.g. a duplicate registration.
func Conflict(msg string) *Error {
	return &Error{Kind: ErrorConflict, Message: msg}
}

// Unauthorized reports bad credentials or an unusable token.
func Unauthorized(msg string) *Error {
	return &Error{Kind: ErrorUnauthorized, Message: msg}
}

// BadRequest reports an invalid or expired reset secret.
func BadRequest(msg string) *Error {
	return &Error{Kind: ErrorBadRequest, Message: msg}
}

// NotFound reports a missing resource.
func NotFound(msg string) *Error {
	return &Error{Kind: ErrorNotFound, Message: msg}
}

// Internal hides an unexpected failure behind a generic message.
func Internal() *Error {
	return &Error{Kind: ErrorInternal, Message: ErrorInternal.Error()}
}
