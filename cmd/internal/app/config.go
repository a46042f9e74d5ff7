package app

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Brian1011/web-sec-api/cmd/internal/notify"
)

// ErrConfig is returned for invalid runtime configuration.
var ErrConfig = errors.New("invalid app config")

// Environments.
const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	Env string `env:"WEBSEC_ENV" envDefault:"dev"`

	HTTPAddr string `env:"WEBSEC_HTTP_ADDR" envDefault:"0.0.0.0:8080"`

	LogLevel  string `env:"WEBSEC_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"WEBSEC_LOG_FORMAT" envDefault:"json"`

	ReadHeaderTimeout time.Duration `env:"WEBSEC_HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"WEBSEC_HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"WEBSEC_HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"WEBSEC_HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout   time.Duration `env:"WEBSEC_HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxHeaderBytes    int           `env:"WEBSEC_HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`

	DatabaseURL    string `env:"WEBSEC_DATABASE_URL"`
	DBMaxConns     int32  `env:"WEBSEC_DB_MAX_CONNS" envDefault:"10"`
	DBMinConns     int32  `env:"WEBSEC_DB_MIN_CONNS" envDefault:"0"`
	MigrateOnStart bool   `env:"WEBSEC_MIGRATE_ON_START" envDefault:"false"`

	// ReadinessRequireDB makes /readyz fail unless a database is configured and reachable.
	ReadinessRequireDB bool `env:"WEBSEC_READINESS_REQUIRE_DB" envDefault:"false"`

	// RequireTokenHMAC requires WEBSEC_TOKEN_HMAC_KEY (>= 32 bytes) so stored
	// token and code hashes are keyed.
	RequireTokenHMAC bool `env:"WEBSEC_REQUIRE_TOKEN_HMAC" envDefault:"false"`

	CORSAllowedOrigins   []string `env:"WEBSEC_CORS_ALLOWED_ORIGINS" envSeparator:","`
	CORSAllowCredentials bool     `env:"WEBSEC_CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	CORSMaxAgeSeconds    int      `env:"WEBSEC_CORS_MAX_AGE_SECONDS" envDefault:"600"`
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)

	origins := cfg.CORSAllowedOrigins[:0]
	for _, o := range cfg.CORSAllowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.CORSAllowedOrigins = origins

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.Env {
	case EnvDev, EnvProd:
	default:
		return fmt.Errorf("%w: WEBSEC_ENV must be %q or %q", ErrConfig, EnvDev, EnvProd)
	}
	switch c.LogFormat {
	case "json", "pretty", "text":
	default:
		return fmt.Errorf("%w: WEBSEC_LOG_FORMAT must be json, pretty or text", ErrConfig)
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("%w: WEBSEC_HTTP_ADDR is required", ErrConfig)
	}
	if c.DBMaxConns < 1 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("%w: db pool sizes out of range", ErrConfig)
	}
	if c.CORSAllowCredentials && slices.Contains(c.CORSAllowedOrigins, "*") {
		return fmt.Errorf("%w: WEBSEC_CORS_ALLOWED_ORIGINS=* requires WEBSEC_CORS_ALLOW_CREDENTIALS=false", ErrConfig)
	}
	if c.MigrateOnStart && c.DatabaseURL == "" {
		return fmt.Errorf("%w: WEBSEC_MIGRATE_ON_START requires WEBSEC_DATABASE_URL", ErrConfig)
	}
	return nil
}

// DBEnabled reports whether Postgres stores are configured.
func (c Config) DBEnabled() bool { return c.DatabaseURL != "" }

// CheckNotifyBudget rejects a notification budget that does not fit inside the
// HTTP write timeout. Login sends the code before it writes the session, so a
// send that outlives the response would leave an unreachable session behind.
func (c Config) CheckNotifyBudget(n notify.Config) error {
	if n.Driver != notify.DriverSMS || c.WriteTimeout <= 0 {
		return nil
	}
	if n.Budget >= c.WriteTimeout {
		return fmt.Errorf("%w: WEBSEC_NOTIFY_BUDGET (%s) must be below WEBSEC_HTTP_WRITE_TIMEOUT (%s)",
			ErrConfig, n.Budget, c.WriteTimeout)
	}
	return nil
}
