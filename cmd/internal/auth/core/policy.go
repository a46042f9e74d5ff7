package core

import (
	"time"

	"github.com/Brian1011/web-sec-api/cmd/internal/auth/session"
)

// Reason names why a request was denied.
type Reason string

const (
	ReasonNoToken        Reason = "no_token"
	ReasonUnknownSession Reason = "unknown_session"
	ReasonExpired        Reason = "expired"
	ReasonDeviceMismatch Reason = "device_mismatch"
	ReasonNotActivated   Reason = "not_activated"
)

// Message is the client-facing text for r.
func (r Reason) Message() string {
	switch r {
	case ReasonNoToken:
		return "No authentication provided"
	case ReasonUnknownSession:
		return "Invalid Session"
	case ReasonExpired:
		return "Session expired"
	case ReasonDeviceMismatch:
		return "Invalid session for current device"
	case ReasonNotActivated:
		return "Session not activated"
	default:
		return "Forbidden"
	}
}

// Kind maps r to an error kind. Only a missing credential is ErrAuth.
func (r Reason) Kind() error {
	if r == ReasonNoToken {
		return ErrAuth
	}
	return ErrForbidden
}

// Credentials is what a request presents.
type Credentials struct {
	Token  string
	Device session.Device
}

// Decision is the outcome of a check.
type Decision struct {
	Allowed bool
	UserID  string
	Reason  Reason
}

// Allow grants access to userID.
func Allow(userID string) Decision { return Decision{Allowed: true, UserID: userID} }

// Deny refuses access for r.
func Deny(r Reason) Decision { return Decision{Reason: r} }

// Check is a pure predicate over the presented credentials and the stored session.
type Check func(c Credentials, s *session.Session, now time.Time) Decision

func requireToken(c Credentials) Decision {
	if c.Token == "" {
		return Deny(ReasonNoToken)
	}
	return Allow("")
}

func sessionExists(_ Credentials, s *session.Session, _ time.Time) Decision {
	if s == nil {
		return Deny(ReasonUnknownSession)
	}
	return Allow(s.UserID)
}

func notExpired(ttl time.Duration) Check {
	return func(_ Credentials, s *session.Session, now time.Time) Decision {
		if s.ExpiredAt(now, ttl) {
			return Deny(ReasonExpired)
		}
		return Allow(s.UserID)
	}
}

func deviceMatches(c Credentials, s *session.Session, _ time.Time) Decision {
	if !s.Device.Matches(c.Device) {
		return Deny(ReasonDeviceMismatch)
	}
	return Allow(s.UserID)
}

func activated(_ Credentials, s *session.Session, _ time.Time) Decision {
	if !s.Activated {
		return Deny(ReasonNotActivated)
	}
	return Allow(s.UserID)
}

// evaluate runs checks in order. The first Deny wins.
func evaluate(checks []Check, c Credentials, s *session.Session, now time.Time) Decision {
	d := Deny(ReasonUnknownSession)
	for _, check := range checks {
		d = check(c, s, now)
		if !d.Allowed {
			return d
		}
	}
	return d
}
