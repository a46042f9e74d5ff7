package authapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Brian1011/web-sec-api/cmd/internal/auth/core"
)

// Service is the authentication core as seen by the HTTP layer.
// *core.Service satisfies it.
type Service interface {
	Register(ctx context.Context, phone, password string) (core.UserView, error)
	Login(ctx context.Context, in core.LoginInput) (core.LoginResult, error)
	Activate(ctx context.Context, in core.ActivateInput) (core.ActivateResult, error)
	Authenticate(ctx context.Context, c core.Credentials) (core.Principal, error)
	Logout(ctx context.Context, p core.Principal) error
	Revoke(ctx context.Context, p core.Principal, targetID int64) error
	ListSessions(ctx context.Context, p core.Principal) ([]core.SessionView, error)
	Profile(ctx context.Context, p core.Principal) (core.UserView, error)
}

// Handler wires HTTP auth endpoints to the authentication core.
type Handler struct {
	log     *slog.Logger
	cfg     Config
	svc     Service
	auditor AuditSink
	now     func() time.Time
}

// HandlerOption configures optional auth handler dependencies.
type HandlerOption func(*Handler)

// WithAudit overrides the default no-op audit sink.
func WithAudit(sink AuditSink) HandlerOption {
	return func(h *Handler) {
		if h == nil || sink == nil {
			return
		}
		h.auditor = sink
	}
}

// WithClock overrides the clock used for cookie expiry and audit timestamps.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if h == nil || now == nil {
			return
		}
		h.now = now
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, svc Service, cfg Config, opts ...HandlerOption) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("auth: nil service")
	}
	if log == nil {
		log = slog.Default()
	}
	def := DefaultConfig()
	if strings.TrimSpace(cfg.CookieName) == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = def.CookiePath
	}
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = def.CookieTTL
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}

	h := &Handler{
		log:     log,
		cfg:     cfg,
		svc:     svc,
		auditor: NopAudit{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/register", h.handleRegister)
	mux.HandleFunc("/login", h.handleLogin)
	mux.HandleFunc("/activate", h.handleActivate)
	mux.HandleFunc("/logout", h.requireSession(http.MethodPost, h.handleLogout))
	mux.HandleFunc("/session", h.requireSession(http.MethodDelete, h.handleRevoke))
	mux.HandleFunc("/sessions", h.requireSession(http.MethodGet, h.handleSessions))
	mux.HandleFunc("/profile", h.requireSession(http.MethodGet, h.handleProfile))
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}

	u, err := h.svc.Register(r.Context(), req.Phone, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}

	creds := h.credentialsFrom(r)
	res, err := h.svc.Login(r.Context(), core.LoginInput{
		Phone:    req.Phone,
		Password: req.Password,
		Device:   creds.Device,
	})
	if err != nil {
		if k := core.KindOf(err); k != nil && !errors.Is(k, core.ErrValidation) {
			h.audit(r, auditLoginFailed, "", 0, map[string]any{
				"device_id": creds.Device.ID,
				"reason":    k.Error(),
			})
		}
		h.writeServiceError(w, r, err)
		return
	}

	h.audit(r, auditLoginSuccess, res.User.ID, res.SessionID, map[string]any{
		"device_id":   creds.Device.ID,
		"device_name": creds.Device.Name,
	})
	h.setSessionCookie(w, res.Token, h.now())
	writeJSON(w, http.StatusOK, loginResponse{
		Message:   res.Message,
		Session:   res.Token,
		SessionID: res.SessionID,
		User:      res.User,
	})
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req activateRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}

	res, err := h.svc.Activate(r.Context(), core.ActivateInput{
		Credentials: h.credentialsFrom(r),
		Code:        flexString(req.ActivationCode),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.audit(r, auditActivate, res.UserID, res.SessionID, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: res.Message})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request, p core.Principal) {
	if err := h.svc.Logout(r.Context(), p); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.audit(r, auditLogout, p.UserID, p.SessionID, nil)
	h.expireSessionCookie(w)
	writeJSON(w, http.StatusOK, okResponse)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request, p core.Principal) {
	var req revokeRequest
	// An empty body is a request without a session id, not malformed JSON.
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json")
		return
	}

	// Malformed ids fall through as 0 so the core reports the missing parameter.
	target, _ := parseSessionID(flexString(req.SessionID))
	if err := h.svc.Revoke(r.Context(), p, target); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.audit(r, auditSessionRevoke, p.UserID, p.SessionID, map[string]any{
		"target_session_id": target,
	})
	writeJSON(w, http.StatusOK, okResponse)
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request, p core.Principal) {
	list, err := h.svc.ListSessions(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request, p core.Principal) {
	u, err := h.svc.Profile(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ---- helpers ----

type principalKey struct{}

// PrincipalFrom returns the principal stored by the session middleware.
func PrincipalFrom(ctx context.Context) (core.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(core.Principal)
	return p, ok
}

type authedHandler func(w http.ResponseWriter, r *http.Request, p core.Principal)

// requireSession checks the method, then authenticates the caller before next runs.
func (h *Handler) requireSession(method string, next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeMethodNotAllowed(w, method)
			return
		}
		p, err := h.svc.Authenticate(r.Context(), h.credentialsFrom(r))
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), principalKey{}, p))
		next(w, r, p)
	}
}

func parseSessionID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
