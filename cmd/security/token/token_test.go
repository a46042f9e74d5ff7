package token

import (
	"strings"
	"testing"
)

func TestHashSessionTokenHex_Modes(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	plain := HashSessionTokenHex("tok")
	if plain != HashSHA256Hex("tok") {
		t.Fatalf("expected SHA-256 fallback without key")
	}

	t.Setenv(HMACEnvKey, strings.Repeat("k", 32))
	keyed := HashSessionTokenHex("tok")
	if keyed == plain {
		t.Fatalf("expected HMAC digest to differ from SHA-256 digest")
	}
	if len(keyed) != 64 {
		t.Fatalf("digest len=%d want 64", len(keyed))
	}
}

func TestHashActivationCodeHex_BoundToSession(t *testing.T) {
	t.Setenv(HMACEnvKey, "")

	a := HashActivationCodeHex(HashSessionTokenHex("a"), "1234")
	b := HashActivationCodeHex(HashSessionTokenHex("b"), "1234")
	if a == b {
		t.Fatalf("same code on different sessions must not share a digest")
	}
	if !EqualHex64(a, HashActivationCodeHex(HashSessionTokenHex("a"), "1234")) {
		t.Fatalf("expected digest to be deterministic")
	}
}

func TestEqualHex64(t *testing.T) {
	t.Parallel()

	d := HashSHA256Hex("x")
	if !EqualHex64(d, d) {
		t.Fatalf("expected equal")
	}
	if EqualHex64(d, HashSHA256Hex("y")) {
		t.Fatalf("expected mismatch")
	}
	if EqualHex64("abc", "abc") {
		t.Fatalf("short inputs must never match")
	}
}

func TestHMACKeyFromEnv(t *testing.T) {
	t.Setenv(HMACEnvKey, "")
	if _, err := HMACKeyFromEnv(32); err != ErrHMACKeyMissing {
		t.Fatalf("expected ErrHMACKeyMissing, got %v", err)
	}

	t.Setenv(HMACEnvKey, "short")
	if _, err := HMACKeyFromEnv(32); err != ErrHMACKeyTooShort {
		t.Fatalf("expected ErrHMACKeyTooShort, got %v", err)
	}

	t.Setenv(HMACEnvKey, strings.Repeat("s", 40))
	if _, err := HMACKeyFromEnv(32); err != nil {
		t.Fatalf("expected key accepted, got %v", err)
	}
}
