package authapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/Brian1011/web-sec-api/cmd/internal/auth/core"
	"github.com/Brian1011/web-sec-api/cmd/internal/auth/session"
)

// Device identity headers.
const (
	headerDeviceID   = "DeviceId"
	headerDeviceName = "DeviceName"
)

// credentialsFrom reads the token (cookie first, then header) and device headers.
func (h *Handler) credentialsFrom(r *http.Request) core.Credentials {
	return core.Credentials{
		Token: h.sessionToken(r),
		Device: session.Device{
			ID:   strings.TrimSpace(r.Header.Get(headerDeviceID)),
			Name: strings.TrimSpace(r.Header.Get(headerDeviceName)),
		},
	}
}

func (h *Handler) sessionToken(r *http.Request) string {
	if c, err := r.Cookie(h.cfg.CookieName); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v
		}
	}
	return strings.TrimSpace(r.Header.Get(h.cfg.CookieName))
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, now time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		Expires:  now.Add(h.cfg.CookieTTL),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.CookieSameSite,
	})
}

func (h *Handler) expireSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.CookieSameSite,
	})
}
