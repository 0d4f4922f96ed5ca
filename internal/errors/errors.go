package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session lifecycle core
var (
	// Session errors
	ErrSessionAbsent       = errors.New("no session present")
	ErrSessionInconsistent = errors.New("session storage inconsistent")

	// Token errors
	ErrNoRefreshToken = errors.New("no refresh token stored")
	ErrTokenOpaque    = errors.New("access token carries no expiry claim")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// TransportError is a normalized network/HTTP failure reaching the auth gateway.
// Message is taken from the response body's message field when present, otherwise
// a fixed per-operation fallback ("Login failed", etc.).
type TransportError struct {
	Op      string // Gateway operation that failed, e.g. "login"
	Message string // User-displayable normalized message
	Cause   error  // Underlying network or decoding error, may be nil
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// NewTransport builds a TransportError, preferring message over fallback.
func NewTransport(op, message, fallback string, cause error) *TransportError {
	if message == "" {
		message = fallback
	}
	return &TransportError{Op: op, Message: message, Cause: cause}
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ValidationError is malformed local input caught before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidation builds a ValidationError from a format string.
func NewValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DisplayMessage extracts the user-displayable message from a normalized error.
// Unclassified errors fall back to a generic message so internal detail never
// leaks to the user.
func DisplayMessage(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return "Something went wrong"
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
