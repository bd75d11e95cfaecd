// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict indicates a compare-and-swap update matched no row.
	ErrVersionConflict = errors.New("version conflict")

	// ErrUnauthorized indicates failed authentication or a failed ownership check.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates malformed or missing input. The wrapped text is shown to the caller.
	ErrValidation = errors.New("validation")

	// ErrTokenInvalid indicates a token with a bad signature, shape or subject.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired indicates a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenStale indicates a refresh token that no longer matches the stored one.
	ErrTokenStale = errors.New("token stale")

	// ErrPersistence indicates the storage collaborator failed.
	ErrPersistence = errors.New("persistence")
)

// Validation returns an ErrValidation carrying a caller-facing message.
func Validation(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidation }

// Persistence wraps a storage failure so that it matches ErrPersistence and keeps the cause.
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
