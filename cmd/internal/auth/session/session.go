package session

import (
	"time"

	"github.com/Brian1011/web-sec-api/cmd/security/token"
)

// Device identifies the client a session is bound to.
type Device struct {
	ID   string
	Name string
}

// Matches reports whether d is the same device as other. Both fields must match.
func (d Device) Matches(other Device) bool {
	return d.ID == other.ID && d.Name == other.Name
}

// Session mirrors a websec.sessions row.
type Session struct {
	ID                 int64
	TokenHash          string
	UserID             string
	CreatedAt          time.Time
	LastUsedAt         time.Time
	Device             Device
	CodeHash           string // empty once activated
	Activated          bool
	ActivationAttempts int
}

// ExpiredAt reports whether the session is older than ttl at now.
// A zero ttl never expires.
func (s Session) ExpiredAt(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return !now.Before(s.CreatedAt.Add(ttl))
}

// CodeMatches compares code against the stored activation code hash in constant time.
func (s Session) CodeMatches(code string) bool {
	if s.CodeHash == "" || code == "" {
		return false
	}
	return token.EqualHex64(HashCode(s.TokenHash, code), s.CodeHash)
}

// HashCode returns the at-rest digest of an activation code for the session
// identified by tokenHash.
func HashCode(tokenHash, code string) string {
	return token.HashActivationCodeHex(tokenHash, code)
}

// NewSession is the input to Repository.Create.
type NewSession struct {
	UserID    string
	TokenHash string
	CodeHash  string
	Device    Device
	Now       time.Time
}

func (in NewSession) validate() error {
	if in.UserID == "" || in.TokenHash == "" || in.CodeHash == "" {
		return ErrInvalidInput
	}
	if in.Device.ID == "" || in.Device.Name == "" {
		return ErrInvalidInput
	}
	return nil
}

// stamp truncates t to the second, defaulting to the current UTC time.
func stamp(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Truncate(time.Second)
}
