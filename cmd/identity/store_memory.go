package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process UserRepository used when no database is configured
// and in tests. It enforces the same uniqueness rules as the Postgres schema.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]User
	byPhone map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]User),
		byPhone: make(map[string]string),
	}
}

// Create stores a user, rejecting duplicate ids and phones.
func (s *MemoryStore) Create(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if strings.TrimSpace(in.ID) == "" {
		return User{}, invalid(op, "id is required")
	}
	if strings.TrimSpace(in.Phone) == "" {
		return User{}, invalid(op, "phone is required")
	}
	if in.PasswordHash == "" {
		return User{}, invalid(op, "password hash is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byPhone[in.Phone]; ok {
		return User{}, ConflictError{Op: op, Field: "phone"}
	}
	if _, ok := s.byID[in.ID]; ok {
		return User{}, ConflictError{Op: op, Field: "id"}
	}

	u := User{
		ID:           in.ID,
		Phone:        in.Phone,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
	}
	s.byID[u.ID] = u
	s.byPhone[u.Phone] = u.ID
	return u, nil
}

// GetByPhone returns the user registered with phone.
func (s *MemoryStore) GetByPhone(ctx context.Context, phone string) (User, error) {
	const op = "identity.GetUserByPhone"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byPhone[strings.TrimSpace(phone)]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return s.byID[id], nil
}

// GetByID returns the user with id.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return u, nil
}
