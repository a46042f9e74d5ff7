package password

import (
	"fmt"
	"math"
	"runtime"

	"github.com/caarlos0/env/v11"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy bounds accepted passwords. Lengths count runes.
type Policy struct {
	MinLength int
	MaxLength int
	// RejectVeryWeak enables a small deny list of trivial passwords.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns the baseline used when no env override is present.
func DefaultConfig() Config {
	// Lanes follow the host CPU count, clamped to [1..4] for container limits.
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength:      8,
			MaxLength:      256,
			RejectVeryWeak: false,
		},
	}
}

// envOverrides mirrors Config for env parsing. Fields keep their prefilled
// value when the variable is unset.
type envOverrides struct {
	MinLength      int    `env:"WEBSEC_PASSWORD_MIN_LEN"`
	MaxLength      int    `env:"WEBSEC_PASSWORD_MAX_LEN"`
	RejectVeryWeak bool   `env:"WEBSEC_PASSWORD_REJECT_VERY_WEAK"`
	MemoryKiB      uint32 `env:"WEBSEC_ARGON2_MEMORY_KIB"`
	Iterations     uint32 `env:"WEBSEC_ARGON2_ITERATIONS"`
	Parallelism    uint32 `env:"WEBSEC_ARGON2_PARALLELISM"`
	SaltLength     uint32 `env:"WEBSEC_ARGON2_SALT_LEN"`
	KeyLength      uint32 `env:"WEBSEC_ARGON2_KEY_LEN"`
}

// FromEnv loads config from WEBSEC_PASSWORD_* and WEBSEC_ARGON2_* variables
// on top of DefaultConfig, then range-checks every value.
func FromEnv() (Config, error) {
	def := DefaultConfig()

	o := envOverrides{
		MinLength:      def.Policy.MinLength,
		MaxLength:      def.Policy.MaxLength,
		RejectVeryWeak: def.Policy.RejectVeryWeak,
		MemoryKiB:      def.Params.MemoryKiB,
		Iterations:     def.Params.Iterations,
		Parallelism:    uint32(def.Params.Parallelism),
		SaltLength:     def.Params.SaltLength,
		KeyLength:      def.Params.KeyLength,
	}
	if err := env.Parse(&o); err != nil {
		return Config{}, fmt.Errorf("password config: %w", err)
	}

	checks := []struct {
		name     string
		val      int64
		min, max int64
	}{
		{"WEBSEC_PASSWORD_MIN_LEN", int64(o.MinLength), 1, 1024},
		{"WEBSEC_PASSWORD_MAX_LEN", int64(o.MaxLength), 1, 4096},
		{"WEBSEC_ARGON2_MEMORY_KIB", int64(o.MemoryKiB), 8 * 1024, 1024 * 1024},
		{"WEBSEC_ARGON2_ITERATIONS", int64(o.Iterations), 1, 20},
		{"WEBSEC_ARGON2_PARALLELISM", int64(o.Parallelism), 1, math.MaxUint8},
		{"WEBSEC_ARGON2_SALT_LEN", int64(o.SaltLength), 8, 64},
		{"WEBSEC_ARGON2_KEY_LEN", int64(o.KeyLength), 16, 64},
	}
	for _, c := range checks {
		if c.val < c.min || c.val > c.max {
			return Config{}, fmt.Errorf("%s: out of range [%d..%d]", c.name, c.min, c.max)
		}
	}

	if o.MinLength > o.MaxLength {
		return Config{}, fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			o.MinLength,
			o.MaxLength,
		)
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   o.MemoryKiB,
			Iterations:  o.Iterations,
			Parallelism: uint8(o.Parallelism), // #nosec G115 -- range-checked above.
			SaltLength:  o.SaltLength,
			KeyLength:   o.KeyLength,
		},
		Policy: Policy{
			MinLength:      o.MinLength,
			MaxLength:      o.MaxLength,
			RejectVeryWeak: o.RejectVeryWeak,
		},
	}, nil
}
