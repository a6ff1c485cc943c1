package core

import "errors"

// Error codes for protocol errors.
const (
	ErrCodeUnauthenticated      = "unauthenticated"
	ErrCodeInvalidAuth          = "invalid_auth"
	ErrCodeAlreadyAuthenticated = "already_authenticated"
	ErrCodeBadRequest           = "bad_request"
	ErrCodeRateLimited          = "rate_limited"
)

var (
	ErrHubStopped    = errors.New("hub stopped")
	ErrSessionExists = errors.New("session already exists")
	ErrNoSession     = errors.New("no session")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// NewError builds an error event for delivery to a single client.
func NewError(code, msg string) *Event {
	return &Event{Kind: EventError, Error: coreError(code, msg)}
}
