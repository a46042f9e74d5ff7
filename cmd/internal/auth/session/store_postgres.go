package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxPool is the subset of *pgxpool.Pool the store uses.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Repository using PostgreSQL (websec.sessions).
type PostgresStore struct {
	pool   pgxPool
	table  string
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

// DefaultSchema is the Postgres schema created by the embedded migrations.
const DefaultSchema = "websec"

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("session: invalid schema identifier %q", schema)
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(pool pgxPool, opts ...PostgresOption) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("session: nil pool")
	}
	s := &PostgresStore{pool: pool, schema: DefaultSchema}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.table = pgx.Identifier{s.schema, "sessions"}.Sanitize()
	return s, nil
}

const sessionColumns = `id, token_hash, user_id, created_at, last_used_at,
	device_id, device_name, code_hash, activated, activation_attempts`

// Create inserts a new unactivated session and returns it with its BIGSERIAL id.
func (s *PostgresStore) Create(ctx context.Context, in NewSession) (Session, error) {
	if err := in.validate(); err != nil {
		return Session{}, err
	}
	now := stamp(in.Now)

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO `+s.table+` (
			token_hash, user_id, created_at, last_used_at,
			device_id, device_name, code_hash, activated, activation_attempts
		) VALUES (
			$1, $2, $3, $3,
			$4, $5, $6, false, 0
		)
		RETURNING id
	`, in.TokenHash, in.UserID, now, in.Device.ID, in.Device.Name, in.CodeHash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return Session{}, ErrTokenConflict
		}
		return Session{}, err
	}

	return Session{
		ID:         id,
		TokenHash:  in.TokenHash,
		UserID:     in.UserID,
		CreatedAt:  now,
		LastUsedAt: now,
		Device:     in.Device,
		CodeHash:   in.CodeHash,
	}, nil
}

// GetByTokenHash loads a session row by token digest.
func (s *PostgresStore) GetByTokenHash(ctx context.Context, tokenHash string) (Session, error) {
	if tokenHash == "" {
		return Session{}, ErrNotFound
	}
	return s.getOne(ctx, `token_hash = $1`, tokenHash)
}

// GetByID loads a session row by id.
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (Session, error) {
	if id <= 0 {
		return Session{}, ErrNotFound
	}
	return s.getOne(ctx, `id = $1`, id)
}

func (s *PostgresStore) getOne(ctx context.Context, where string, arg any) (Session, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM `+s.table+` WHERE `+where, arg)
	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Activate flips activated and clears the code hash.
func (s *PostgresStore) Activate(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE `+s.table+`
		SET activated = true, code_hash = NULL
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementActivationAttempts bumps the failure counter of an unactivated session.
func (s *PostgresStore) IncrementActivationAttempts(ctx context.Context, id int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		UPDATE `+s.table+`
		SET activation_attempts = activation_attempts + 1
		WHERE id = $1 AND activated = false
		RETURNING activation_attempts
	`, id).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Touch updates last_used_at. Concurrent touches never move it backwards.
func (s *PostgresStore) Touch(ctx context.Context, id int64, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE `+s.table+`
		SET last_used_at = GREATEST(last_used_at, $2)
		WHERE id = $1
	`, id, stamp(now))
	return err
}

// DeleteByTokenHash deletes a session (idempotent).
func (s *PostgresStore) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE token_hash = $1`, tokenHash)
	return err
}

// ListByUser returns every session of userID ordered by id.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM `+s.table+`
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Session, 0, 4)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanSession(row pgx.Row) (Session, error) {
	var (
		sess     Session
		codeHash *string
	)
	err := row.Scan(
		&sess.ID,
		&sess.TokenHash,
		&sess.UserID,
		&sess.CreatedAt,
		&sess.LastUsedAt,
		&sess.Device.ID,
		&sess.Device.Name,
		&codeHash,
		&sess.Activated,
		&sess.ActivationAttempts,
	)
	if err != nil {
		return Session{}, err
	}
	if codeHash != nil {
		sess.CodeHash = *codeHash
	}
	sess.CreatedAt = sess.CreatedAt.UTC()
	sess.LastUsedAt = sess.LastUsedAt.UTC()
	return sess, nil
}
