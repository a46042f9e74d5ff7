package session

import (
	"bytes"
	"strconv"
	"testing"
	"time"
)

func TestCryptoCodeSource_Range(t *testing.T) {
	t.Parallel()

	var src CryptoCodeSource
	for i := 0; i < 500; i++ {
		c, err := src.Code()
		if err != nil {
			t.Fatalf("Code: %v", err)
		}
		n, err := strconv.Atoi(c)
		if err != nil || n < CodeMin || n > CodeMax || len(c) != 4 {
			t.Fatalf("code out of range: %q", c)
		}
	}
}

func TestCryptoCodeSource_ShortReader(t *testing.T) {
	t.Parallel()

	src := CryptoCodeSource{Rand: bytes.NewReader(nil)}
	if _, err := src.Code(); err == nil {
		t.Fatalf("expected error from exhausted reader")
	}
}

func TestSession_CodeMatches(t *testing.T) {
	t.Setenv("WEBSEC_TOKEN_HMAC_KEY", "")

	s := Session{TokenHash: "tok", CodeHash: HashCode("tok", "4321")}
	if !s.CodeMatches("4321") {
		t.Fatalf("expected match")
	}
	if s.CodeMatches("4322") || s.CodeMatches("") {
		t.Fatalf("expected mismatch")
	}

	s.CodeHash = ""
	if s.CodeMatches("4321") {
		t.Fatalf("cleared code must never match")
	}
}

func TestSession_ExpiredAt(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Session{CreatedAt: created}

	if s.ExpiredAt(created.Add(time.Hour-time.Second), time.Hour) {
		t.Fatalf("not yet expired")
	}
	if !s.ExpiredAt(created.Add(time.Hour), time.Hour) {
		t.Fatalf("expired at the boundary")
	}
	if s.ExpiredAt(created.Add(100*365*24*time.Hour), 0) {
		t.Fatalf("zero ttl never expires")
	}
}

func TestDevice_Matches(t *testing.T) {
	t.Parallel()

	d := Device{ID: "a", Name: "b"}
	if !d.Matches(Device{ID: "a", Name: "b"}) {
		t.Fatalf("expected match")
	}
	if d.Matches(Device{ID: "a", Name: "c"}) || d.Matches(Device{ID: "x", Name: "b"}) {
		t.Fatalf("both fields must match")
	}
}
