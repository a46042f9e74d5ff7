package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"WEBSEC_NOTIFY_DRIVER":      "log",
		"WEBSEC_ARGON2_MEMORY_KIB":  "8192",
		"WEBSEC_ARGON2_ITERATIONS":  "1",
		"WEBSEC_ARGON2_PARALLELISM": "1",
		"WEBSEC_TOKEN_HMAC_KEY":     "",
		"WEBSEC_SESSION_TTL":        "",
		"WEBSEC_COOKIE_NAME":        "",
	} {
		t.Setenv(k, v)
	}
}

func testConfig() Config {
	return Config{
		Env:                  EnvDev,
		HTTPAddr:             "127.0.0.1:0",
		LogLevel:             "debug",
		LogFormat:            "json",
		DBMaxConns:           1,
		CORSAllowedOrigins:   []string{"https://app.example.com"},
		CORSAllowCredentials: true,
	}
}

func newTestApp(t *testing.T, cfg Config) (*App, *bytes.Buffer) {
	t.Helper()
	testEnv(t)

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a, err := New(context.Background(), cfg, log)
	require.NoError(t, err)
	return a, &buf
}

func serve(h http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// loggedCode scans the JSON log for the dry-run notifier's code.
func loggedCode(t *testing.T, buf *bytes.Buffer) string {
	t.Helper()
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	code := ""
	for sc.Scan() {
		var rec map[string]any
		if json.Unmarshal(sc.Bytes(), &rec) != nil {
			continue
		}
		if rec["msg"] == "notify.log.code" {
			code, _ = rec["code"].(string)
		}
	}
	require.NotEmpty(t, code, "no activation code logged")
	return code
}

func TestApp_HealthReadyMetrics(t *testing.T) {
	a, _ := newTestApp(t, testConfig())
	h := a.Handler()

	rr := serve(h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(headerRequestID))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	assert.JSONEq(t, `{"status":"ok","store":"memory"}`, rr.Body.String())

	rr = serve(h, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ready","store":"memory"}`, rr.Body.String())

	rr = serve(h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "websec_http_requests_total")
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestApp_ReadyRequiresDB(t *testing.T) {
	cfg := testConfig()
	cfg.ReadinessRequireDB = true
	a, _ := newTestApp(t, cfg)

	rr := serve(a.Handler(), http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"not_ready","store":"memory","db":"not_configured"}`, rr.Body.String())
}

func TestApp_EndToEndInMemory(t *testing.T) {
	a, logs := newTestApp(t, testConfig())
	h := a.Handler()
	dev := map[string]string{"DeviceId": "dev-1", "DeviceName": "Pixel 8", "Content-Type": "application/json"}

	rr := serve(h, http.MethodPost, "/register", `{"phone":"+254 712-345-678","password":"correct horse"}`, dev)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = serve(h, http.MethodPost, "/login", `{"phone":"+254712345678","password":"correct horse"}`, dev)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var login struct {
		Session   string `json:"session"`
		SessionID int64  `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))

	authed := map[string]string{"session": login.Session}
	for k, v := range dev {
		authed[k] = v
	}

	rr = serve(h, http.MethodPost, "/activate", `{"activationCode":"`+loggedCode(t, logs)+`"}`, authed)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = serve(h, http.MethodGet, "/profile", "", authed)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"id":`+jsonField(t, rr.Body.Bytes(), "id")+`,"phone":"+254712345678"}`, rr.Body.String())

	rr = serve(h, http.MethodGet, "/metrics", "", nil)
	assert.Contains(t, rr.Body.String(), `websec_auth_outcomes_total{op="login",outcome="ok"} 1`)
	assert.Contains(t, rr.Body.String(), `websec_notify_sends_total{driver="log",result="ok"} 1`)

	assert.Contains(t, logs.String(), `"msg":"http.request"`)
}

func TestApp_CORS(t *testing.T) {
	a, _ := newTestApp(t, testConfig())
	h := a.Handler()

	rr := serve(h, http.MethodOptions, "/login", "", map[string]string{
		"Origin":                        "https://app.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	rr = serve(h, http.MethodGet, "/healthz", "", map[string]string{"Origin": "https://evil.example.com"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestNew_RejectsLogDriverInProd(t *testing.T) {
	testEnv(t)
	cfg := testConfig()
	cfg.Env = EnvProd

	_, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	assert.ErrorContains(t, err, "WEBSEC_NOTIFY_DRIVER=log")
}

func TestNew_RejectsNotifyBudgetAboveWriteTimeout(t *testing.T) {
	testEnv(t)
	t.Setenv("WEBSEC_NOTIFY_DRIVER", "sms")
	t.Setenv("WEBSEC_SMS_URL", "http://127.0.0.1:1/send")
	t.Setenv("WEBSEC_SMS_API_KEY", "k")
	t.Setenv("WEBSEC_NOTIFY_BUDGET", "20s")

	cfg := testConfig()
	cfg.WriteTimeout = 10 * time.Second

	_, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
	assert.ErrorContains(t, err, "WEBSEC_NOTIFY_BUDGET")
}

func jsonField(t *testing.T, body []byte, key string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	return string(m[key])
}
