package password

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPolicy_Check(t *testing.T) {
	p := Policy{MinLength: 8, MaxLength: 16}

	cases := []struct {
		name     string
		pw       string
		wantRule string
		wantMsg  string
	}{
		{name: "short", pw: "short", wantRule: RuleMinLength, wantMsg: "password must be at least 8 characters"},
		{name: "long", pw: "this password is definitely too long", wantRule: RuleMaxLength, wantMsg: "password must be at most 16 characters"},
		// 8 runes, 16 bytes: length counts runes.
		{name: "multibyte", pw: "äöüäöüäö"},
		{name: "ok", pw: "correct horse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := p.Check(tc.pw)
			if tc.wantRule == "" {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			var pe *PolicyError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *PolicyError, got %v", err)
			}
			if pe.Rule != tc.wantRule || pe.Msg != tc.wantMsg {
				t.Fatalf("got rule=%q msg=%q", pe.Rule, pe.Msg)
			}
		})
	}
}

func TestPolicy_RejectVeryWeak(t *testing.T) {
	p := Policy{MinLength: 8, MaxLength: 256, RejectVeryWeak: true}

	for _, pw := range []string{"Password123", "11111111", "abababab", "12345678901"} {
		var pe *PolicyError
		if err := p.Check(pw); !errors.As(err, &pe) || pe.Rule != RuleCommon {
			t.Fatalf("%q: expected common-password refusal, got %v", pw, err)
		}
	}
	for _, pw := range []string{"a-very-ok-pass", "123456789012"} {
		if err := p.Check(pw); err != nil {
			t.Fatalf("%q: expected ok, got %v", pw, err)
		}
	}

	p.RejectVeryWeak = false
	if err := p.Check("password"); err != nil {
		t.Fatalf("deny list must be opt-in, got %v", err)
	}
}

func TestHash_StringParseRoundTrip(t *testing.T) {
	h := Hash{
		MemoryKiB:   8192,
		Iterations:  2,
		Parallelism: 1,
		Salt:        bytes.Repeat([]byte{0x5a}, 16),
		Key:         bytes.Repeat([]byte{0xa5}, 32),
	}
	enc := h.String()
	if !strings.HasPrefix(enc, "$argon2id$v=19$m=8192,t=2,p=1$") {
		t.Fatalf("unexpected encoding: %s", enc)
	}

	got, err := ParseHash(enc)
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if got.MemoryKiB != 8192 || got.Iterations != 2 || got.Parallelism != 1 ||
		!bytes.Equal(got.Salt, h.Salt) || !bytes.Equal(got.Key, h.Key) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if p := got.Params(); p.SaltLength != 16 || p.KeyLength != 32 {
		t.Fatalf("unexpected params: %+v", p)
	}
}

func TestParseHash_Malformed(t *testing.T) {
	salt := "c2FsdHNhbHRzYWx0c2FsdA"           // 16 bytes
	key := "a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5" // 24 bytes

	for _, enc := range []string{
		"not-a-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$" + salt + "$" + key,
		"$argon2id$v=18$m=8192,t=1,p=1$" + salt + "$" + key,
		"$argon2id$v=19$m=0,t=1,p=1$" + salt + "$" + key,
		"$argon2id$v=19$m=8192,t=1$" + salt + "$" + key,
		"$argon2id$v=19$m=8192,t=1,p=300$" + salt + "$" + key,
		"$argon2id$v=19$m=8192,t=1,x=1$" + salt + "$" + key,
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$" + key,
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$" + key,
		"$argon2id$v=19$m=8192,t=1,p=1$" + salt,
	} {
		if _, err := ParseHash(enc); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("%q: expected ErrMalformedHash, got %v", enc, err)
		}
	}
}

func TestArgon2idParams_Affordable(t *testing.T) {
	limit := Argon2idParams{MemoryKiB: 8192, Iterations: 2, Parallelism: 1}

	if !limit.Affordable(Argon2idParams{MemoryKiB: 4096, Iterations: 1, Parallelism: 1}) {
		t.Fatal("cheaper hash must be affordable")
	}
	if !limit.Affordable(Argon2idParams{MemoryKiB: 16384, Iterations: 4, Parallelism: 2}) {
		t.Fatal("twice the cost must be affordable")
	}
	if limit.Affordable(Argon2idParams{MemoryKiB: 65536, Iterations: 1, Parallelism: 1}) {
		t.Fatal("memory far above limit must not be affordable")
	}
}

func TestArgon2idParams_DeriveIsDeterministic(t *testing.T) {
	p := Argon2idParams{MemoryKiB: 8192, Iterations: 1, Parallelism: 1, KeyLength: 32}
	salt := bytes.Repeat([]byte{1}, 16)

	a := p.Derive("correct horse", salt)
	b := p.Derive("correct horse", salt)
	c := p.Derive("wrong horse", salt)
	if len(a) != 32 || !bytes.Equal(a, b) || bytes.Equal(a, c) {
		t.Fatalf("derive mismatch: a=%x b=%x c=%x", a, b, c)
	}
}
