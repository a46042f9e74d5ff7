package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Brian1011/web-sec-api/cmd/identity"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    string
	SessionID int64
	TokenHash string
}

// Authenticate resolves c to a Principal or denies it.
// On success the session's last-used time moves forward to now.
func (s *Service) Authenticate(ctx context.Context, c Credentials) (Principal, error) {
	const op = "core.Authenticate"

	if d := requireToken(c); !d.Allowed {
		s.metrics.deny("authenticate", d.Reason)
		return Principal{}, fail(op, d.Reason.Kind(), d.Reason.Message())
	}

	now := s.now()
	tokenHash := identity.HashSessionTokenHex(c.Token)
	sess, err := s.loadSession(ctx, tokenHash)
	if err != nil {
		s.metrics.observe("authenticate", err)
		return Principal{}, fmt.Errorf("%s: %w", op, err)
	}

	d := evaluate(s.authChecks, c, sess, now)
	if !d.Allowed {
		s.metrics.deny("authenticate", d.Reason)
		s.log.DebugContext(ctx, "auth.authenticate.deny", slog.String("reason", string(d.Reason)))
		return Principal{}, fail(op, d.Reason.Kind(), d.Reason.Message())
	}

	if err := s.sessions.Touch(ctx, sess.ID, now); err != nil {
		s.metrics.observe("authenticate", err)
		return Principal{}, fmt.Errorf("%s: touch: %w", op, err)
	}

	s.metrics.observe("authenticate", nil)
	return Principal{UserID: d.UserID, SessionID: sess.ID, TokenHash: sess.TokenHash}, nil
}

// Logout deletes the caller's session. Repeating it is harmless.
func (s *Service) Logout(ctx context.Context, p Principal) (err error) {
	const op = "core.Logout"
	defer func() { s.metrics.observe("logout", err) }()

	if err := s.sessions.DeleteByTokenHash(ctx, p.TokenHash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.InfoContext(ctx, "auth.logout.ok", slog.String("user_id", p.UserID), slog.Int64("session_id", p.SessionID))
	return nil
}

// Revoke deletes another session owned by the caller.
//
// A target that does not exist counts as revoked. A target owned by someone
// else is refused with a generic message and left untouched.
func (s *Service) Revoke(ctx context.Context, p Principal, targetID int64) (err error) {
	const op = "core.Revoke"
	defer func() { s.metrics.observe("revoke", err) }()

	if targetID <= 0 {
		return fail(op, ErrValidation, msgNoSessionProvided)
	}

	target, err := s.sessions.GetByID(ctx, targetID)
	if err != nil {
		if isSessionNotFound(err) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if target.UserID != p.UserID {
		s.log.WarnContext(ctx, "auth.revoke.denied",
			slog.String("user_id", p.UserID),
			slog.Int64("target_session_id", targetID),
		)
		return fail(op, ErrForbidden, msgSessionNotOwned)
	}

	if err := s.sessions.DeleteByTokenHash(ctx, target.TokenHash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.InfoContext(ctx, "auth.revoke.ok", slog.String("user_id", p.UserID), slog.Int64("target_session_id", targetID))
	return nil
}

// SessionView is the public projection of a session. Times are unix seconds.
type SessionView struct {
	ID         int64  `json:"id"`
	CreatedAt  int64  `json:"createdAt"`
	LastUsedAt int64  `json:"lastUsedAt"`
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
	Activated  bool   `json:"activated"`
	Current    bool   `json:"current"`
}

// ListSessions returns the caller's sessions ordered by id.
func (s *Service) ListSessions(ctx context.Context, p Principal) ([]SessionView, error) {
	const op = "core.ListSessions"

	rows, err := s.sessions.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]SessionView, 0, len(rows))
	for _, r := range rows {
		out = append(out, SessionView{
			ID:         r.ID,
			CreatedAt:  r.CreatedAt.Unix(),
			LastUsedAt: r.LastUsedAt.Unix(),
			DeviceID:   r.Device.ID,
			DeviceName: r.Device.Name,
			Activated:  r.Activated,
			Current:    r.ID == p.SessionID,
		})
	}
	return out, nil
}

// Profile returns the caller's public profile.
func (s *Service) Profile(ctx context.Context, p Principal) (UserView, error) {
	const op = "core.Profile"

	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			return UserView{}, failWith(op, ErrAuth, ReasonUnknownSession.Message(), err)
		}
		return UserView{}, fmt.Errorf("%s: %w", op, err)
	}
	return UserView{ID: u.ID, Phone: u.Phone}, nil
}
