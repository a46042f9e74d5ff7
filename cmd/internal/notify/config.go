package notify

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Drivers.
const (
	DriverLog = "log"
	DriverSMS = "sms"
)

// Config selects and tunes the notification driver.
type Config struct {
	Driver       string        `env:"WEBSEC_NOTIFY_DRIVER" envDefault:"log"`
	SMSURL       string        `env:"WEBSEC_SMS_URL"`
	SMSAPIKey    string        `env:"WEBSEC_SMS_API_KEY"`
	SMSSender    string        `env:"WEBSEC_SMS_SENDER"`
	Timeout      time.Duration `env:"WEBSEC_NOTIFY_TIMEOUT" envDefault:"15s"`
	RetryMax     int           `env:"WEBSEC_NOTIFY_RETRY_MAX" envDefault:"2"`
	RetryBackoff time.Duration `env:"WEBSEC_NOTIFY_RETRY_BACKOFF" envDefault:"200ms"`

	// Budget caps one SendCode call, all attempts and backoff included.
	// It must stay below the HTTP write timeout of the login request.
	Budget time.Duration `env:"WEBSEC_NOTIFY_BUDGET" envDefault:"20s"`
}

// LoadConfigFromEnv parses WEBSEC_NOTIFY_* and WEBSEC_SMS_* variables.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks driver-specific requirements.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverLog:
	case DriverSMS:
		if c.SMSURL == "" || c.SMSAPIKey == "" {
			return fmt.Errorf("%w: sms driver requires WEBSEC_SMS_URL and WEBSEC_SMS_API_KEY", ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrConfig, c.Driver)
	}
	if c.RetryMax < 0 || c.RetryMax > 10 {
		return fmt.Errorf("%w: retry max out of range [0..10]", ErrConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrConfig)
	}
	if c.Budget <= 0 {
		return fmt.Errorf("%w: WEBSEC_NOTIFY_BUDGET must be positive", ErrConfig)
	}
	return nil
}

// New builds the configured Notifier: the driver, wrapped with retries (sms only)
// and metrics.
func New(cfg Config, logger *slog.Logger, m *Metrics) (Notifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = NewMetrics(nil)
	}

	var n Notifier
	switch cfg.Driver {
	case DriverSMS:
		n = NewSMSClient(cfg.SMSAPIKey, cfg.SMSURL, cfg.SMSSender, cfg.Timeout)
		n = NewRetrying(n, cfg.RetryMax, cfg.RetryBackoff, logger).WithBudget(cfg.Budget)
	default:
		n = NewLogNotifier(logger)
	}
	return NewInstrumented(n, cfg.Driver, m), nil
}

// compile-time checks
var (
	_ Notifier = (*SMSClient)(nil)
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*Retrying)(nil)
	_ Notifier = (*Instrumented)(nil)
)
