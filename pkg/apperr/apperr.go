// Package apperr defines the portal-wide error taxonomy. Handlers map
// these onto HTTP statuses via pkg/response; best-effort collaborators
// wrap their failures in ErrUpstream so callers can log and continue.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: no registration (or other entity) for the given key.
	ErrNotFound = errors.New("not found")
	// ErrForbidden: mutation attempted on a frozen accepted/rejected
	// registration, or the caller lacks access.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState: operation not permitted in the current lifecycle
	// state (e.g. payment outside accepted).
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation: malformed input payload.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream: an external collaborator (email, storage, gateway)
	// failed. Best-effort call sites swallow it after logging.
	ErrUpstream = errors.New("upstream failure")
)

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Forbiddenf wraps ErrForbidden with a formatted detail message.
func Forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrForbidden)...)
}

// InvalidStatef wraps ErrInvalidState with a formatted detail message.
func InvalidStatef(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidState)...)
}

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// Upstreamf wraps ErrUpstream with a formatted detail message.
func Upstreamf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrUpstream)...)
}

// IsNotFound reports whether err is (or wraps) a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsUpstream reports whether err is (or wraps) an upstream failure.
func IsUpstream(err error) bool { return errors.Is(err, ErrUpstream) }
