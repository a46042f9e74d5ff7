package identity

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
// pgxmock.PgxPoolIface satisfies it as well.
type pgxPool interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements UserRepository over PostgreSQL.
//
// The pool is owned by the caller; this store must not close it.
// Schema identifiers are validated and quoted, never interpolated raw.
type PostgresStore struct {
	pool   pgxPool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

// DefaultSchema is the Postgres schema created by the embedded migrations.
const DefaultSchema = "websec"

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store (default "websec").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool pgxPool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: DefaultSchema,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

// Create inserts the user and its credentials in one transaction.
func (s *PostgresStore) Create(ctx context.Context, in CreateUserInput) (User, error) {
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

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return User{}, err
	}
	rollback := func() { _ = tx.Rollback(ctx) }

	users := pgIdent(s.schema, "users")
	creds := pgIdent(s.schema, "user_credentials")

	_, err = tx.Exec(ctx,
		`INSERT INTO `+users+` (id, phone, created_at) VALUES ($1, $2, $3)`,
		in.ID, in.Phone, now,
	)
	if err != nil {
		rollback()
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO `+creds+` (user_id, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $3)`,
		in.ID, in.PasswordHash, now,
	)
	if err != nil {
		rollback()
		if pgIsForeignKeyViolation(err) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, err
	}

	return User{
		ID:           in.ID,
		Phone:        in.Phone,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
	}, nil
}

// GetByPhone loads a user with its password hash by normalized phone.
func (s *PostgresStore) GetByPhone(ctx context.Context, phone string) (User, error) {
	const op = "identity.GetUserByPhone"

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return User{}, invalid(op, "phone is required")
	}

	return s.getOne(ctx, op, `u.phone = $1`, phone)
}

// GetByID loads a user by id.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetUserByID"

	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, invalid(op, "id is required")
	}

	return s.getOne(ctx, op, `u.id = $1`, id)
}

func (s *PostgresStore) getOne(ctx context.Context, op, where string, arg any) (User, error) {
	users := pgIdent(s.schema, "users")
	creds := pgIdent(s.schema, "user_credentials")

	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT u.id, u.phone, c.password_hash, u.created_at
		   FROM `+users+` u
		   JOIN `+creds+` c ON c.user_id = u.id
		  WHERE `+where,
		arg,
	).Scan(&u.ID, &u.Phone, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}
	return u, nil
}

// ---- helpers ----

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgIsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.ForeignKeyViolation
}

// pgClassifyUniqueViolation maps a unique_violation to the logical field it guards.
// Stable constraint names come first; substring matching is the fallback.
func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != pgerrcode.UniqueViolation {
		return "", false
	}

	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))
	switch {
	case c == "uq_users_phone", strings.Contains(c, "phone"):
		return "phone", true
	case c == "users_pkey":
		return "id", true
	default:
		return "unique", true
	}
}
