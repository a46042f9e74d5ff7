package identity

import (
	"context"
	"time"
)

// User is the service's security principal.
// PasswordHash is an argon2id PHC string and must never leave the service.
type User struct {
	ID           string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUserInput describes a registration after hashing.
// Phone must already be normalized (see NormalizePhone).
type CreateUserInput struct {
	ID           string
	Phone        string
	PasswordHash string
	Now          time.Time
}

// UserRepository is the credential persistence boundary.
//
// Contract:
//   - Create returns ConflictError{Field: "phone"} when the phone is taken.
//   - Get* return NotFoundError{Resource: "user"} when no row matches.
type UserRepository interface {
	Create(ctx context.Context, in CreateUserInput) (User, error)
	GetByPhone(ctx context.Context, phone string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}
