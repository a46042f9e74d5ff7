package app

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readyPingTimeout = 2 * time.Second

// healthStatus is the body of /healthz and /readyz.
type healthStatus struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	DB     string `json:"db,omitempty"`
}

// routes mounts /healthz, /readyz, /metrics and the auth endpoints on mux.
func (a *App) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, healthStatus{Status: "ok", Store: a.storeKind()})
	})
	mux.HandleFunc("GET /readyz", a.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.auth.Register(mux)
}

// handleReady reports 503 when the configured database does not answer, or
// when WEBSEC_READINESS_REQUIRE_DB is set and the service runs on memory stores.
func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	st := healthStatus{Status: "ready", Store: a.storeKind()}

	if a.db == nil {
		if a.cfg.ReadinessRequireDB {
			st.Status, st.DB = "not_ready", "not_configured"
			writeHealth(w, http.StatusServiceUnavailable, st)
			return
		}
		writeHealth(w, http.StatusOK, st)
		return
	}

	if err := PingDB(r.Context(), a.db, readyPingTimeout); err != nil {
		a.log.WarnContext(r.Context(), "readyz.db.not_ready", "err", err)
		st.Status, st.DB = "not_ready", "unreachable"
		writeHealth(w, http.StatusServiceUnavailable, st)
		return
	}
	st.DB = "ok"
	writeHealth(w, http.StatusOK, st)
}

func (a *App) storeKind() string {
	if a.db != nil {
		return "postgres"
	}
	return "memory"
}

func writeHealth(w http.ResponseWriter, status int, body healthStatus) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
