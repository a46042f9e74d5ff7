package session

import "errors"

var (
	// ErrNotFound is returned when no session matches the lookup key.
	ErrNotFound = errors.New("session not found")

	// ErrTokenConflict is returned when a token digest is already in use.
	ErrTokenConflict = errors.New("session token conflict")

	// ErrInvalidInput is returned for missing required fields.
	ErrInvalidInput = errors.New("invalid session input")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("session: invalid config")
)
