package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionEnvKeys = []string{
	"WEBSEC_SESSION_TTL",
	"WEBSEC_ACTIVATION_WINDOW",
	"WEBSEC_ACTIVATION_MAX_ATTEMPTS",
	"WEBSEC_SESSION_TOKEN_BYTES",
}

// clearSessionEnv blanks the variables; empty values fall back to envDefault.
func clearSessionEnv(t *testing.T) {
	t.Helper()
	for _, k := range sessionEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	clearSessionEnv(t)

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 8760*time.Hour, cfg.TTL)
	assert.Equal(t, 10*time.Minute, cfg.ActivationWindow)
	assert.Equal(t, 5, cfg.MaxActivationAttempts)
}

func TestLoadConfigFromEnv_ZeroTTLDisablesExpiry(t *testing.T) {
	clearSessionEnv(t)
	t.Setenv("WEBSEC_SESSION_TTL", "0s")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Zero(t, cfg.TTL)
}

func TestLoadConfigFromEnv_Valid(t *testing.T) {
	clearSessionEnv(t)
	t.Setenv("WEBSEC_SESSION_TTL", "720h")
	t.Setenv("WEBSEC_ACTIVATION_WINDOW", "3m")
	t.Setenv("WEBSEC_ACTIVATION_MAX_ATTEMPTS", "3")
	t.Setenv("WEBSEC_SESSION_TOKEN_BYTES", "48")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{TTL: 720 * time.Hour, ActivationWindow: 3 * time.Minute, MaxActivationAttempts: 3, TokenBytes: 48}, cfg)
}

func TestLoadConfigFromEnv_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"negative ttl":           {"WEBSEC_SESSION_TTL": "-5m"},
		"unparsable ttl":         {"WEBSEC_SESSION_TTL": "forever"},
		"zero window":            {"WEBSEC_ACTIVATION_WINDOW": "0s"},
		"zero attempts":          {"WEBSEC_ACTIVATION_MAX_ATTEMPTS": "0"},
		"non-numeric attempts":   {"WEBSEC_ACTIVATION_MAX_ATTEMPTS": "many"},
		"small token bytes":      {"WEBSEC_SESSION_TOKEN_BYTES": "16"},
		"window longer than ttl": {"WEBSEC_SESSION_TTL": "5m", "WEBSEC_ACTIVATION_WINDOW": "10m"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			clearSessionEnv(t)
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := LoadConfigFromEnv()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfig), "got %v", err)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.TTL = 0
	cfg.ActivationWindow = time.Hour
	assert.NoError(t, cfg.Validate(), "no expiry admits any activation window")
}
