// Package app wires the websec server runtime: config, logging, stores, metrics and HTTP routes.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Brian1011/web-sec-api/cmd/identity"
	authapi "github.com/Brian1011/web-sec-api/cmd/internal/auth/api"
	"github.com/Brian1011/web-sec-api/cmd/internal/auth/core"
	"github.com/Brian1011/web-sec-api/cmd/internal/auth/session"
	"github.com/Brian1011/web-sec-api/cmd/internal/migrations"
	"github.com/Brian1011/web-sec-api/cmd/internal/notify"
)

// App is the websec server runtime. It owns the DB pool and the HTTP server wiring.
type App struct {
	cfg Config
	log Logger

	pool *pgxpool.Pool
	db   pinger

	registry *prometheus.Registry
	metrics  *httpMetrics
	auth     *authapi.Handler
}

// stores are the persistence backends selected at startup.
type stores struct {
	users    identity.UserRepository
	sessions session.Repository
	audit    authapi.AuditSink
}

// New constructs a fully wired App from config and logger.
// Without WEBSEC_DATABASE_URL it runs on in-memory stores.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	notifyCfg, err := notify.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if err := ValidateSecurityConfig(cfg, notifyCfg); err != nil {
		return nil, err
	}
	if err := cfg.CheckNotifyBudget(notifyCfg); err != nil {
		return nil, err
	}
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	hasher, err := identity.NewArgon2idHasherFromEnv()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{cfg: cfg, log: log, registry: reg, metrics: newHTTPMetrics(reg)}

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	notifier, err := notify.New(notifyCfg, log, notify.NewMetrics(reg))
	if err != nil {
		a.close()
		return nil, err
	}

	svc, err := core.NewService(core.Deps{
		Users:    st.users,
		Sessions: st.sessions,
		Hasher:   hasher,
		Notifier: notifier,
		Config:   sessCfg,
		Logger:   log,
		Metrics:  core.NewMetrics(reg),
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.auth, err = authapi.NewHandler(log, svc, authapi.LoadConfigFromEnv(sessCfg.TTL), authapi.WithAudit(st.audit))
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// openStores picks Postgres when a database URL is configured, in-memory otherwise.
func (a *App) openStores(ctx context.Context) (stores, error) {
	if !a.cfg.DBEnabled() {
		a.log.Info("db.disabled.inmemory_store")
		return stores{
			users:    identity.NewMemoryStore(),
			sessions: session.NewMemoryStore(),
			audit:    authapi.NopAudit{},
		}, nil
	}

	if a.cfg.MigrateOnStart {
		if err := migrateUp(a.cfg.DatabaseURL); err != nil {
			return stores{}, err
		}
		a.log.Info("db.migrate.up.ok")
	}

	pool, err := NewDBPool(ctx, a.cfg)
	if err != nil {
		return stores{}, err
	}
	a.pool, a.db = pool, pool

	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		a.close()
		return stores{}, err
	}
	sessions, err := session.NewPostgresStore(pool)
	if err != nil {
		a.close()
		return stores{}, err
	}
	audit, err := authapi.NewPostgresAudit(pool, identity.DefaultSchema)
	if err != nil {
		a.close()
		return stores{}, err
	}

	a.log.Info("db.enabled.postgres_store")
	return stores{users: users, sessions: sessions, audit: audit}, nil
}

func migrateUp(databaseURL string) (err error) {
	m, err := migrations.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, m.Close()) }()
	return m.Up()
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	a.routes(mux)

	var h http.Handler = mux
	h = WithCORS(h, a.cfg, a.log)
	h = WithSecurityHeaders(h)
	h = WithRequestLogging(h, a.log, a.metrics)
	return WithRequestID(h)
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "env", a.cfg.Env, "db_enabled", a.db != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

// close releases the DB pool. The pool is owned here; stores never close it.
func (a *App) close() {
	if a.pool != nil {
		a.pool.Close()
		a.pool, a.db = nil, nil
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
