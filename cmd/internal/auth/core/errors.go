package core

import (
	"errors"
	"fmt"

	"github.com/Brian1011/web-sec-api/cmd/internal/auth/session"
)

// Error kinds. Transports map these to status codes.
var (
	ErrValidation  = errors.New("validation")
	ErrNotFound    = errors.New("not_found")
	ErrAuth        = errors.New("unauthorized")
	ErrForbidden   = errors.New("forbidden")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
	ErrDelivery    = errors.New("delivery_failed")
)

// Error is returned by every Service operation that fails for a known reason.
// Msg is safe to show to clients. Err, when set, is the underlying cause and
// is never shown.
type Error struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func fail(op string, kind error, msg string) error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

func failWith(op string, kind error, msg string, cause error) error {
	return &Error{Op: op, Kind: kind, Msg: msg, Err: cause}
}

// KindOf returns the kind of err, or nil for unclassified errors.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}

// MessageOf returns the client-safe message of err, or "" for unclassified errors.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}

// Client-facing messages.
const (
	msgMissingParams      = "Missing parameters"
	msgUserNotFound       = "User does not exist"
	msgInvalidPassword    = "Invalid password"
	msgPhoneTaken         = "phone already registered"
	msgInvalidPhone       = "invalid phone number"
	msgNoSessionProvided  = "No session provided"
	msgSessionNotOwned    = "Session does not exist"
	msgCodeExpired        = "Activation code expired"
	msgInvalidCode        = "Invalid activation code"
	msgNotifyUnavailable  = "Activation code could not be sent, try again later"
	msgNotifyFailed       = "Activation code could not be sent"
	msgActivated          = "Session activated"
	msgAlreadyActivated   = "Session already activated"
	msgActivationCodeSent = "Activation code sent"
)

func isSessionNotFound(err error) bool { return errors.Is(err, session.ErrNotFound) }
