package identity

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/Brian1011/web-sec-api/cmd/security/token"
)

// DefaultTokenBytes is the entropy of a session token before encoding.
const DefaultTokenBytes = 32

// NewOpaqueToken returns a cryptographically random session token.
// It is URL-safe (base64url, no padding) so it survives both cookie and header transport.
// The server persists only HashSessionTokenHex(token).
func NewOpaqueToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = DefaultTokenBytes
	}

	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashSessionTokenHex returns the server-stored digest of a session token.
// HMAC-SHA256 when WEBSEC_TOKEN_HMAC_KEY is set; SHA-256 otherwise.
func HashSessionTokenHex(tokenStr string) string { return token.HashSessionTokenHex(tokenStr) }
