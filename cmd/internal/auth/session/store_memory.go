package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Repository for development and tests.
// It enforces the same token uniqueness as the Postgres schema.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]Session
	byToken map[string]int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[int64]Session),
		byToken: make(map[string]int64),
	}
}

func (m *MemoryStore) Create(ctx context.Context, in NewSession) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	if err := in.validate(); err != nil {
		return Session{}, err
	}
	now := stamp(in.Now)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byToken[in.TokenHash]; ok {
		return Session{}, ErrTokenConflict
	}

	m.nextID++
	sess := Session{
		ID:         m.nextID,
		TokenHash:  in.TokenHash,
		UserID:     in.UserID,
		CreatedAt:  now,
		LastUsedAt: now,
		Device:     in.Device,
		CodeHash:   in.CodeHash,
	}
	m.byID[sess.ID] = sess
	m.byToken[sess.TokenHash] = sess.ID
	return sess, nil
}

func (m *MemoryStore) GetByTokenHash(ctx context.Context, tokenHash string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byToken[tokenHash]
	if !ok {
		return Session{}, ErrNotFound
	}
	return m.byID[id], nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id int64) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.byID[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemoryStore) Activate(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	sess.Activated = true
	sess.CodeHash = ""
	m.byID[id] = sess
	return nil
}

func (m *MemoryStore) IncrementActivationAttempts(ctx context.Context, id int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.byID[id]
	if !ok || sess.Activated {
		return 0, ErrNotFound
	}
	sess.ActivationAttempts++
	m.byID[id] = sess
	return sess.ActivationAttempts, nil
}

func (m *MemoryStore) Touch(ctx context.Context, id int64, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now = stamp(now)

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.byID[id]
	if !ok {
		return nil
	}
	if now.After(sess.LastUsedAt) {
		sess.LastUsedAt = now
		m.byID[id] = sess
	}
	return nil
}

func (m *MemoryStore) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byToken[tokenHash]; ok {
		delete(m.byID, id)
		delete(m.byToken, tokenHash)
	}
	return nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Session, 0, 4)
	for _, sess := range m.byID {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
