// Package main provides an end-to-end smoke test against a running websec server.
//
// It validates:
//   - health and readiness
//   - register (an existing account is accepted)
//   - login sets the session cookie and returns a token
//   - activation with the code delivered out of band
//   - profile and session listing with the activated token
//   - logout invalidates the token
//
// With the log notifier the code appears in the server log as notify.log.code.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type smokeClient struct {
	base    string
	http    *http.Client
	device  [2]string
	token   string
	verbose bool
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:8080", "Server base URL")
		phone    = flag.String("phone", "+254700000001", "Phone number to register and log in")
		password = flag.String("password", "smoke-test-password", "Password for the account")
		code     = flag.String("code", "", "Activation code; prompted on stdin when empty")
		deviceID = flag.String("device-id", "smoke-device", "DeviceId header")
		devName  = flag.String("device-name", "auth-smoke", "DeviceName header")
		timeout  = flag.Duration("timeout", 7*time.Second, "Per-request timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}

	c := &smokeClient{
		base:    strings.TrimRight(*baseURL, "/"),
		http:    &http.Client{Timeout: *timeout},
		device:  [2]string{*deviceID, *devName},
		verbose: *verbose,
	}
	ctx := context.Background()

	for _, path := range []string{"/healthz", "/readyz"} {
		st, body := c.do(ctx, http.MethodGet, path, nil)
		mustStatus(st, body, http.StatusOK, path)
	}

	creds := map[string]string{"phone": *phone, "password": *password}
	st, body := c.do(ctx, http.MethodPost, "/register", creds)
	if st != http.StatusOK && st != http.StatusConflict {
		fatalf("register: status=%d body=%s", st, body)
	}

	st, body = c.do(ctx, http.MethodPost, "/login", creds)
	mustStatus(st, body, http.StatusOK, "login")
	var login struct {
		Message   string `json:"message"`
		Session   string `json:"session"`
		SessionID int64  `json:"sessionId"`
	}
	mustDecode(body, &login, "login")
	if login.Session == "" || login.SessionID <= 0 {
		fatalf("login: missing session in %s", body)
	}
	c.token = login.Session
	logf("login ok: session_id=%d (%s)", login.SessionID, login.Message)

	st, body = c.do(ctx, http.MethodGet, "/profile", nil)
	mustStatus(st, body, http.StatusForbidden, "profile before activation")

	activation := strings.TrimSpace(*code)
	if activation == "" {
		activation = promptCode()
	}
	st, body = c.do(ctx, http.MethodPost, "/activate", map[string]string{"activationCode": activation})
	mustStatus(st, body, http.StatusOK, "activate")

	st, body = c.do(ctx, http.MethodGet, "/profile", nil)
	mustStatus(st, body, http.StatusOK, "profile")

	st, body = c.do(ctx, http.MethodGet, "/sessions", nil)
	mustStatus(st, body, http.StatusOK, "sessions")
	var sessions []struct {
		ID      int64 `json:"id"`
		Current bool  `json:"current"`
	}
	mustDecode(body, &sessions, "sessions")
	found := false
	for _, s := range sessions {
		if s.ID == login.SessionID && s.Current {
			found = true
		}
	}
	if !found {
		fatalf("sessions: current session %d not listed in %s", login.SessionID, body)
	}

	st, body = c.do(ctx, http.MethodPost, "/logout", nil)
	mustStatus(st, body, http.StatusOK, "logout")

	st, body = c.do(ctx, http.MethodGet, "/profile", nil)
	mustStatus(st, body, http.StatusForbidden, "profile after logout")

	fmt.Println("PASS: auth smoke")
}

func (c *smokeClient) do(ctx context.Context, method, path string, payload any) (int, []byte) {
	var body io.Reader = http.NoBody
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			fatalf("%s %s: encode: %v", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("DeviceId", c.device[0])
	req.Header.Set("DeviceName", c.device[1])
	if c.token != "" {
		req.Header.Set("session", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		fatalf("%s %s: read body: %v", method, path, err)
	}
	if c.verbose {
		logf("%s %s -> %d %s", method, path, resp.StatusCode, bytes.TrimSpace(b))
	}
	return resp.StatusCode, b
}

func mustStatus(got int, body []byte, want int, step string) {
	if got != want {
		fatalf("%s: status=%d want=%d body=%s", step, got, want, body)
	}
	logf("%s ok", step)
}

func mustDecode(body []byte, v any, step string) {
	if err := json.Unmarshal(body, v); err != nil {
		fatalf("%s: decode: %v (%s)", step, err, body)
	}
}

func promptCode() string {
	fmt.Fprint(os.Stderr, "activation code: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		fatalf("read code: %v", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		fatalf("no activation code given")
	}
	return line
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must be http/https, got: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("url missing host")
	}
	return nil
}

func logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ok: "+format+"\n", args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
