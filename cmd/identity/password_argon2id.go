package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/Brian1011/web-sec-api/cmd/security/password"
)

// PasswordHasher hashes and verifies user passwords.
// Implementations must be salted and computationally hard.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) (bool, error)
}

// Argon2idHasher stores user passwords as argon2id PHC strings.
type Argon2idHasher struct {
	cfg password.Config
}

// NewArgon2idHasher returns a hasher bound to cfg.
func NewArgon2idHasher(cfg password.Config) *Argon2idHasher {
	return &Argon2idHasher{cfg: cfg}
}

// NewArgon2idHasherFromEnv builds a hasher from WEBSEC_PASSWORD_* / WEBSEC_ARGON2_* env vars.
func NewArgon2idHasherFromEnv() (*Argon2idHasher, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("identity: password config: %w", err)
	}
	return NewArgon2idHasher(cfg), nil
}

// Hash checks plain against the password policy and hashes it with a fresh salt.
// Policy refusals are ErrInvalidInput carrying the policy's message.
func (h *Argon2idHasher) Hash(plain string) (string, error) {
	const op = "identity.HashPassword"

	if err := h.cfg.Policy.Check(plain); err != nil {
		var pe *password.PolicyError
		if errors.As(err, &pe) {
			return "", invalid(op, pe.Msg)
		}
		return "", err
	}

	salt := make([]byte, h.cfg.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%s: salt: %w", op, err)
	}

	p := h.cfg.Params
	return password.Hash{
		MemoryKiB:   p.MemoryKiB,
		Iterations:  p.Iterations,
		Parallelism: p.Parallelism,
		Salt:        salt,
		Key:         p.Derive(plain, salt),
	}.String(), nil
}

// Verify reports whether plain matches the stored hash. The stored cost is
// reused, so hashes made under older settings keep verifying. A malformed or
// unaffordable stored hash is an error, never a match.
func (h *Argon2idHasher) Verify(plain, encoded string) (bool, error) {
	const op = "identity.VerifyPassword"

	stored, err := password.ParseHash(encoded)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	cost := stored.Params()
	if !h.cfg.Params.Affordable(cost) {
		return false, fmt.Errorf("%s: stored cost above limit: %w", op, password.ErrMalformedHash)
	}

	got := cost.Derive(plain, stored.Salt)
	return subtle.ConstantTimeCompare(got, stored.Key) == 1, nil
}
