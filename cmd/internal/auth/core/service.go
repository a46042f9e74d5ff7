package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Brian1011/web-sec-api/cmd/identity"
	"github.com/Brian1011/web-sec-api/cmd/internal/auth/session"
	"github.com/Brian1011/web-sec-api/cmd/internal/notify"
)

// Clock returns the current time.
type Clock func() time.Time

// Deps are the collaborators of a Service. Logger, Metrics, Codes and Now are optional.
type Deps struct {
	Users    identity.UserRepository
	Sessions session.Repository
	Hasher   identity.PasswordHasher
	Notifier notify.Notifier
	Codes    session.CodeSource
	Config   session.Config
	Logger   *slog.Logger
	Metrics  *Metrics
	Now      Clock
}

// Service implements registration, login, activation and session management.
type Service struct {
	users    identity.UserRepository
	sessions session.Repository
	hasher   identity.PasswordHasher
	notifier notify.Notifier
	codes    session.CodeSource
	cfg      session.Config
	log      *slog.Logger
	metrics  *Metrics
	now      Clock

	// authChecks run after the session has been loaded.
	authChecks []Check
}

// NewService validates d and returns a Service.
func NewService(d Deps) (*Service, error) {
	if d.Users == nil || d.Sessions == nil || d.Hasher == nil || d.Notifier == nil {
		return nil, errors.New("core: users, sessions, hasher and notifier are required")
	}
	if d.Codes == nil {
		d.Codes = session.CryptoCodeSource{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Config.TokenBytes == 0 {
		d.Config.TokenBytes = identity.DefaultTokenBytes
	}

	return &Service{
		users:    d.Users,
		sessions: d.Sessions,
		hasher:   d.Hasher,
		notifier: d.Notifier,
		codes:    d.Codes,
		cfg:      d.Config,
		log:      d.Logger,
		metrics:  d.Metrics,
		now:      d.Now,
		authChecks: []Check{
			sessionExists,
			notExpired(d.Config.TTL),
			deviceMatches,
			activated,
		},
	}, nil
}

// UserView is the public projection of a user.
type UserView struct {
	ID    string `json:"id"`
	Phone string `json:"phone"`
}

// Register creates a user account.
func (s *Service) Register(ctx context.Context, phone, password string) (u UserView, err error) {
	const op = "core.Register"
	defer func() { s.metrics.observe("register", err) }()

	if strings.TrimSpace(phone) == "" || strings.TrimSpace(password) == "" {
		return UserView{}, fail(op, ErrValidation, msgMissingParams)
	}
	norm := identity.NormalizePhone(phone)
	if norm == "" {
		return UserView{}, fail(op, ErrValidation, msgInvalidPhone)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if identity.IsInvalidInput(err) {
			var oe identity.OpError
			msg := "invalid password"
			if errors.As(err, &oe) && oe.Msg != "" {
				msg = oe.Msg
			}
			return UserView{}, failWith(op, ErrValidation, msg, err)
		}
		return UserView{}, fmt.Errorf("%s: hash: %w", op, err)
	}

	now := s.now()
	id, err := identity.NewULID(now)
	if err != nil {
		return UserView{}, fmt.Errorf("%s: id: %w", op, err)
	}

	user, err := s.users.Create(ctx, identity.CreateUserInput{
		ID:           id,
		Phone:        norm,
		PasswordHash: hash,
		Now:          now,
	})
	if err != nil {
		if identity.IsConflict(err) {
			return UserView{}, failWith(op, ErrConflict, msgPhoneTaken, err)
		}
		return UserView{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.InfoContext(ctx, "auth.register.ok", slog.String("user_id", user.ID))
	return UserView{ID: user.ID, Phone: user.Phone}, nil
}

// LoginInput is what a client presents to start a session.
type LoginInput struct {
	Phone    string
	Password string
	Device   session.Device
}

// LoginResult carries the new bearer token. The session is not yet activated.
type LoginResult struct {
	Token     string
	Message   string
	User      UserView
	SessionID int64
}

// Login verifies credentials, sends an activation code and creates an unactivated session.
// No session row exists unless the code was handed to the notifier successfully.
func (s *Service) Login(ctx context.Context, in LoginInput) (res LoginResult, err error) {
	const op = "core.Login"
	defer func() { s.metrics.observe("login", err) }()

	if strings.TrimSpace(in.Phone) == "" || in.Password == "" ||
		strings.TrimSpace(in.Device.ID) == "" || strings.TrimSpace(in.Device.Name) == "" {
		return LoginResult{}, fail(op, ErrValidation, msgMissingParams)
	}

	user, err := s.users.GetByPhone(ctx, identity.NormalizePhone(in.Phone))
	if err != nil {
		if identity.IsNotFound(err) {
			return LoginResult{}, failWith(op, ErrNotFound, msgUserNotFound, err)
		}
		return LoginResult{}, fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("%s: verify: %w", op, err)
	}
	if !ok {
		s.log.WarnContext(ctx, "auth.login.fail", slog.String("user_id", user.ID), slog.String("reason", "invalid_password"))
		return LoginResult{}, fail(op, ErrAuth, msgInvalidPassword)
	}

	tok, err := identity.NewOpaqueToken(s.cfg.TokenBytes)
	if err != nil {
		return LoginResult{}, fmt.Errorf("%s: token: %w", op, err)
	}
	code, err := s.codes.Code()
	if err != nil {
		return LoginResult{}, fmt.Errorf("%s: code: %w", op, err)
	}

	if err := s.notifier.SendCode(ctx, user.Phone, code); err != nil {
		s.log.ErrorContext(ctx, "auth.login.notify_failed",
			slog.String("user_id", user.ID),
			slog.Bool("retryable", notify.IsRetryable(err)),
			slog.String("error", err.Error()),
		)
		if notify.IsRetryable(err) {
			return LoginResult{}, failWith(op, ErrUnavailable, msgNotifyUnavailable, err)
		}
		return LoginResult{}, failWith(op, ErrDelivery, msgNotifyFailed, err)
	}

	tokenHash := identity.HashSessionTokenHex(tok)
	sess, err := s.sessions.Create(ctx, session.NewSession{
		UserID:    user.ID,
		TokenHash: tokenHash,
		CodeHash:  session.HashCode(tokenHash, code),
		Device:    in.Device,
		Now:       s.now(),
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("%s: create session: %w", op, err)
	}

	s.log.InfoContext(ctx, "auth.login.ok", slog.String("user_id", user.ID), slog.Int64("session_id", sess.ID))
	return LoginResult{
		Token:     tok,
		Message:   msgActivationCodeSent,
		User:      UserView{ID: user.ID, Phone: user.Phone},
		SessionID: sess.ID,
	}, nil
}

// ActivateInput is what a client presents to redeem its activation code.
type ActivateInput struct {
	Credentials
	Code string
}

// ActivateResult reports the activated session.
type ActivateResult struct {
	Message   string
	UserID    string
	SessionID int64
}

// Activate redeems the code sent at login.
//
// Checks run in a fixed order: session lookup, expiry, device binding,
// already-activated, activation window, then the code. Wrong codes count
// towards MaxActivationAttempts, after which the session is deleted.
func (s *Service) Activate(ctx context.Context, in ActivateInput) (res ActivateResult, err error) {
	const op = "core.Activate"
	defer func() { s.metrics.observe("activate", err) }()

	if d := requireToken(in.Credentials); !d.Allowed {
		return ActivateResult{}, fail(op, d.Reason.Kind(), d.Reason.Message())
	}
	if strings.TrimSpace(in.Code) == "" {
		return ActivateResult{}, fail(op, ErrValidation, msgMissingParams)
	}

	now := s.now()
	tokenHash := identity.HashSessionTokenHex(in.Token)
	sess, err := s.loadSession(ctx, tokenHash)
	if err != nil {
		return ActivateResult{}, fmt.Errorf("%s: %w", op, err)
	}

	d := evaluate([]Check{sessionExists, notExpired(s.cfg.TTL), deviceMatches}, in.Credentials, sess, now)
	if !d.Allowed {
		return ActivateResult{}, fail(op, ErrForbidden, d.Reason.Message())
	}

	if sess.Activated {
		return ActivateResult{Message: msgAlreadyActivated, UserID: sess.UserID, SessionID: sess.ID}, nil
	}

	if s.cfg.ActivationWindow > 0 && !now.Before(sess.CreatedAt.Add(s.cfg.ActivationWindow)) {
		return ActivateResult{}, fail(op, ErrForbidden, msgCodeExpired)
	}

	if !sess.CodeMatches(strings.TrimSpace(in.Code)) {
		s.recordFailedActivation(ctx, sess)
		return ActivateResult{}, fail(op, ErrForbidden, msgInvalidCode)
	}

	if err := s.sessions.Activate(ctx, sess.ID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ActivateResult{}, failWith(op, ErrForbidden, ReasonUnknownSession.Message(), err)
		}
		return ActivateResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.InfoContext(ctx, "auth.activate.ok", slog.String("user_id", sess.UserID), slog.Int64("session_id", sess.ID))
	return ActivateResult{Message: msgActivated, UserID: sess.UserID, SessionID: sess.ID}, nil
}

// recordFailedActivation bumps the attempt counter and deletes the session once
// the cap is reached. Store failures are logged; the caller still gets a denial.
func (s *Service) recordFailedActivation(ctx context.Context, sess *session.Session) {
	n, err := s.sessions.IncrementActivationAttempts(ctx, sess.ID)
	if err != nil {
		s.log.ErrorContext(ctx, "auth.activate.attempt_record_failed", slog.Int64("session_id", sess.ID), slog.String("error", err.Error()))
		return
	}
	s.log.WarnContext(ctx, "auth.activate.fail", slog.Int64("session_id", sess.ID), slog.Int("attempts", n))

	if s.cfg.MaxActivationAttempts > 0 && n >= s.cfg.MaxActivationAttempts {
		if err := s.sessions.DeleteByTokenHash(ctx, sess.TokenHash); err != nil {
			s.log.ErrorContext(ctx, "auth.activate.delete_failed", slog.Int64("session_id", sess.ID), slog.String("error", err.Error()))
			return
		}
		s.log.WarnContext(ctx, "auth.activate.locked_out", slog.Int64("session_id", sess.ID))
	}
}

// loadSession returns nil, nil when no session matches.
func (s *Service) loadSession(ctx context.Context, tokenHash string) (*session.Session, error) {
	sess, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if errors.Is(err, session.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}
