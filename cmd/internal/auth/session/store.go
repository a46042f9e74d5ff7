package session

import (
	"context"
	"time"
)

// Repository abstracts session persistence.
//
// Timestamps are stored at second resolution. LastUsedAt never moves backwards.
type Repository interface {
	// Create inserts an unactivated session and returns it with its assigned id.
	Create(ctx context.Context, in NewSession) (Session, error)

	// GetByTokenHash loads a session by token digest.
	GetByTokenHash(ctx context.Context, tokenHash string) (Session, error)

	// GetByID loads a session by its internal id.
	GetByID(ctx context.Context, id int64) (Session, error)

	// Activate marks the session activated and clears its code hash.
	Activate(ctx context.Context, id int64) error

	// IncrementActivationAttempts records a failed activation and returns the new count.
	IncrementActivationAttempts(ctx context.Context, id int64) (int, error)

	// Touch moves last_used_at forward to now.
	Touch(ctx context.Context, id int64, now time.Time) error

	// DeleteByTokenHash removes the session. Missing rows are not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// ListByUser returns the user's sessions ordered by id.
	ListByUser(ctx context.Context, userID string) ([]Session, error)
}
