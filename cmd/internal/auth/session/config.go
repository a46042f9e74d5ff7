package session

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config defines runtime policy for sessions.
type Config struct {
	// TTL bounds a session's lifetime from creation. Zero disables expiry.
	TTL time.Duration `env:"WEBSEC_SESSION_TTL" envDefault:"8760h"`

	// ActivationWindow bounds how long after login the code may be redeemed.
	ActivationWindow time.Duration `env:"WEBSEC_ACTIVATION_WINDOW" envDefault:"10m"`

	// MaxActivationAttempts is the number of wrong codes after which the
	// session is deleted.
	MaxActivationAttempts int `env:"WEBSEC_ACTIVATION_MAX_ATTEMPTS" envDefault:"5"`

	// TokenBytes is the entropy of new opaque session tokens.
	TokenBytes int `env:"WEBSEC_SESSION_TOKEN_BYTES" envDefault:"32"`
}

// DefaultConfig returns the baseline policy. The TTL matches the one-year cookie.
func DefaultConfig() Config {
	return Config{
		TTL:                   8760 * time.Hour,
		ActivationWindow:      10 * time.Minute,
		MaxActivationAttempts: 5,
		TokenBytes:            32,
	}
}

// LoadConfigFromEnv parses WEBSEC_SESSION_* and WEBSEC_ACTIVATION_* variables
// and validates the result. Errors wrap ErrConfig.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.TTL < 0:
		return fmt.Errorf("%w: WEBSEC_SESSION_TTL must not be negative", ErrConfig)
	case c.ActivationWindow <= 0:
		return fmt.Errorf("%w: WEBSEC_ACTIVATION_WINDOW must be positive", ErrConfig)
	case c.MaxActivationAttempts < 1 || c.MaxActivationAttempts > 100:
		return fmt.Errorf("%w: WEBSEC_ACTIVATION_MAX_ATTEMPTS out of range [1..100]", ErrConfig)
	case c.TokenBytes < 32 || c.TokenBytes > 64:
		return fmt.Errorf("%w: WEBSEC_SESSION_TOKEN_BYTES out of range [32..64]", ErrConfig)
	case c.TTL > 0 && c.ActivationWindow > c.TTL:
		return fmt.Errorf("%w: WEBSEC_ACTIVATION_WINDOW exceeds WEBSEC_SESSION_TTL", ErrConfig)
	}
	return nil
}
