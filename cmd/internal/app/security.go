package app

import (
	"errors"
	"fmt"

	"github.com/Brian1011/web-sec-api/cmd/internal/notify"
	"github.com/Brian1011/web-sec-api/cmd/security/token"
)

// ValidateSecurityConfig enforces the startup security policy.
func ValidateSecurityConfig(cfg Config, notifyCfg notify.Config) error {
	if cfg.Env == EnvProd && notifyCfg.Driver == notify.DriverLog {
		return errors.New("security policy: WEBSEC_ENV=prod but WEBSEC_NOTIFY_DRIVER=log writes activation codes to the log")
	}

	if !cfg.RequireTokenHMAC {
		return nil
	}

	// The key is used as raw bytes, so length is measured in bytes.
	if _, err := token.HMACKeyFromEnv(32); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return fmt.Errorf("security policy: WEBSEC_REQUIRE_TOKEN_HMAC=true but %s is missing", token.HMACEnvKey)
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return fmt.Errorf("security policy: WEBSEC_REQUIRE_TOKEN_HMAC=true but %s is too short (min 32 bytes)", token.HMACEnvKey)
		default:
			return err
		}
	}

	if !token.HMACEnabled() {
		return errors.New("security policy: WEBSEC_REQUIRE_TOKEN_HMAC=true but token hashing is not in HMAC mode")
	}
	return nil
}
