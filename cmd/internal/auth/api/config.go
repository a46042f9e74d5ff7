package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultCookieName is the cookie (and fallback header) carrying the session token.
const DefaultCookieName = "session"

// Config controls auth API transport behavior.
type Config struct {
	CookieName     string
	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
	// CookieTTL is the cookie lifetime; it follows the session TTL.
	CookieTTL time.Duration

	TrustProxy   bool
	MaxBodyBytes int64
}

// DefaultConfig returns development-friendly defaults.
func DefaultConfig() Config {
	return Config{
		CookieName:     DefaultCookieName,
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		CookieTTL:      8760 * time.Hour,
		MaxBodyBytes:   1 << 20, // 1 MiB
	}
}

// LoadConfigFromEnv loads API config from environment variables with safe defaults.
// sessionTTL becomes the cookie lifetime; zero keeps the one-year default.
func LoadConfigFromEnv(sessionTTL time.Duration) Config {
	def := DefaultConfig()
	cfg := Config{
		CookieName:     envString("WEBSEC_COOKIE_NAME", def.CookieName),
		CookiePath:     envString("WEBSEC_COOKIE_PATH", def.CookiePath),
		CookieDomain:   strings.TrimSpace(os.Getenv("WEBSEC_COOKIE_DOMAIN")),
		CookieSecure:   envBool("WEBSEC_COOKIE_SECURE", false),
		CookieSameSite: parseSameSite(os.Getenv("WEBSEC_COOKIE_SAMESITE")),
		CookieTTL:      def.CookieTTL,
		TrustProxy:     envBool("WEBSEC_TRUST_PROXY", false),
		MaxBodyBytes:   envInt64("WEBSEC_MAX_BODY_BYTES", def.MaxBodyBytes),
	}
	if sessionTTL > 0 {
		cfg.CookieTTL = sessionTTL
	}

	// Browsers drop SameSite=None cookies that are not Secure.
	if cfg.CookieSameSite == http.SameSiteNoneMode {
		cfg.CookieSecure = true
	}
	return cfg
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "default":
		return http.SameSiteDefaultMode
	default:
		return http.SameSiteLaxMode
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
