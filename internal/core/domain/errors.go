package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid (malformed id, missing parameters)
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the user lacks permission, or the content is not publicly visible
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition indicates a lifecycle transition not allowed from the current state
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidCredentials indicates wrong login/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error carries a sentinel kind together with the operation that raised it
// and a human-readable message. errors.Is matches on Kind.
type Error struct {
	Kind    error
	Op      string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// E builds an *Error for op.
func E(kind error, op, message string) error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// BadRequest reports malformed input for op.
func BadRequest(op, message string) error {
	return E(ErrInvalidInput, op, message)
}

// NotFound reports that the target of op does not exist.
func NotFound(op, message string) error {
	return E(ErrNotFound, op, message)
}

// Forbidden reports that the target of op exists but may not be accessed.
func Forbidden(op, message string) error {
	return E(ErrForbidden, op, message)
}

// Unauthorized reports a missing or invalid session for op.
func Unauthorized(op, message string) error {
	return E(ErrUnauthorized, op, message)
}

// MessageOf returns the human-readable message of err, falling back to err.Error().
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}

// ProviderError describes a failed call to an external recipe provider.
// The aggregation engine logs it and continues without that provider.
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s %s: status %d", e.Provider, e.Op, e.StatusCode)
	}
	return fmt.Sprintf("provider %s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
