package authapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Audit actions.
const (
	auditLoginSuccess  = "auth.login.success"
	auditLoginFailed   = "auth.login.failed"
	auditActivate      = "auth.activate"
	auditLogout        = "auth.logout"
	auditSessionRevoke = "auth.session.revoke"
)

// AuditEvent is one row of the audit trail.
type AuditEvent struct {
	Action    string
	UserID    string
	SessionID int64
	IP        net.IP
	UserAgent string
	Meta      map[string]any
	At        time.Time
}

// AuditSink records auth events. Implementations must not block the request
// on failure; the handler ignores returned errors beyond logging them.
type AuditSink interface {
	Record(ctx context.Context, ev AuditEvent) error
}

// NopAudit discards events.
type NopAudit struct{}

func (NopAudit) Record(context.Context, AuditEvent) error { return nil }

type auditExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresAudit writes events into <schema>.audit_log.
type PostgresAudit struct {
	pool  auditExecer
	table string
}

var auditIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// NewPostgresAudit returns an audit sink over pool. An empty schema means "websec".
func NewPostgresAudit(pool auditExecer, schema string) (*PostgresAudit, error) {
	if pool == nil {
		return nil, fmt.Errorf("authapi: nil audit pool")
	}
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = "websec"
	}
	if !auditIdentRe.MatchString(schema) {
		return nil, fmt.Errorf("authapi: invalid audit schema identifier")
	}
	return &PostgresAudit{pool: pool, table: pgx.Identifier{schema, "audit_log"}.Sanitize()}, nil
}

// Record inserts ev.
func (a *PostgresAudit) Record(ctx context.Context, ev AuditEvent) error {
	action := strings.TrimSpace(ev.Action)
	if action == "" {
		return nil
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var ipVal any
	if ev.IP != nil {
		ipVal = ev.IP.String()
	}

	var metaVal any
	if len(ev.Meta) > 0 {
		if b, err := json.Marshal(ev.Meta); err == nil {
			metaVal = string(b)
		}
	}

	_, err := a.pool.Exec(ctx, `
		INSERT INTO `+a.table+` (
			user_id, session_id, action, created_at, ip, user_agent, meta
		) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
	`, trimOrNil(ev.UserID), idOrNil(ev.SessionID), action, at, ipVal, trimOrNil(ev.UserAgent), metaVal)
	return err
}

func (h *Handler) audit(r *http.Request, action, userID string, sessionID int64, meta map[string]any) {
	ev := AuditEvent{
		Action:    action,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIP(r, h.cfg.TrustProxy),
		UserAgent: r.UserAgent(),
		Meta:      meta,
		At:        h.now(),
	}
	if err := h.auditor.Record(r.Context(), ev); err != nil {
		h.log.Error("auth.audit.insert.fail", slog.Any("err", err), slog.String("action", action))
	}
}

func trimOrNil(s string) any {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return v
}

func idOrNil(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}
