package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"os"
	"strings"
)

// HMACEnvKey is the env var name for the digest secret.
// #nosec G101 -- not a credential; it's an environment variable name.
const HMACEnvKey = "WEBSEC_TOKEN_HMAC_KEY"

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// Key errors from HMACKeyFromEnv.
var (
	ErrHMACKeyMissing  = errors.New(HMACEnvKey + " is not set")
	ErrHMACKeyTooShort = errors.New(HMACEnvKey + " is shorter than required")
)

// HMACKeyFromEnv returns the configured key bytes, enforcing a minimum byte length.
func HMACKeyFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if raw == "" {
		return nil, ErrHMACKeyMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrHMACKeyTooShort
	}
	return b, nil
}

// HMACEnabled reports whether the key is present. It does not check length.
func HMACEnabled() bool {
	return strings.TrimSpace(os.Getenv(HMACEnvKey)) != ""
}

func digest(s string) string {
	key := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if key == "" {
		return HashSHA256Hex(s)
	}
	return HashHMACSHA256Hex(s, []byte(key))
}

// HashSessionTokenHex returns the stored digest of a session token.
func HashSessionTokenHex(tok string) string { return digest(tok) }

// HashActivationCodeHex returns the stored digest of an activation code.
// The code is bound to its session's token digest so equal codes on different
// sessions never share a digest.
func HashActivationCodeHex(tokenHash, code string) string {
	return digest("activation:" + tokenHash + ":" + code)
}

// EqualHex64 compares two 64-char hex digests in constant time.
// Inputs of any other length never match.
func EqualHex64(a, b string) bool {
	if len(a) != 64 || len(b) != 64 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
