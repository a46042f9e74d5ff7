package identity

import (
	"encoding/base64"
	"testing"

	"github.com/Brian1011/web-sec-api/cmd/security/token"
)

func TestNewOpaqueToken(t *testing.T) {
	t.Parallel()

	tok, err := NewOpaqueToken(0)
	if err != nil {
		t.Fatalf("NewOpaqueToken: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("token is not base64url: %v", err)
	}
	if len(raw) != DefaultTokenBytes {
		t.Fatalf("got %d bytes, want %d", len(raw), DefaultTokenBytes)
	}

	other, err := NewOpaqueToken(48)
	if err != nil {
		t.Fatalf("NewOpaqueToken(48): %v", err)
	}
	if other == tok {
		t.Fatal("two tokens are equal")
	}
	if raw, _ := base64.RawURLEncoding.DecodeString(other); len(raw) != 48 {
		t.Fatalf("got %d bytes, want 48", len(raw))
	}
}

func TestHashSessionTokenHex_FollowsHMACKey(t *testing.T) {
	t.Setenv(token.HMACEnvKey, "")
	if got := HashSessionTokenHex("tok"); got != token.HashSHA256Hex("tok") {
		t.Fatalf("unkeyed digest mismatch: %s", got)
	}

	key := "0123456789abcdef0123456789abcdef"
	t.Setenv(token.HMACEnvKey, key)
	if got := HashSessionTokenHex("tok"); got != token.HashHMACSHA256Hex("tok", []byte(key)) {
		t.Fatalf("keyed digest mismatch: %s", got)
	}
}
