package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewSMSClient_Defaults(t *testing.T) {
	c := NewSMSClient("k", "http://gw", "", 0)
	if c.HTTPClient == nil || c.HTTPClient.Timeout != defaultSMSTimeout {
		t.Fatalf("expected default timeout, got %+v", c.HTTPClient)
	}
}

func TestSMSClient_SendCode_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.Header.Get("Authorization") != "test-api-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}

		var body smsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.To != "0712345678" || body.From != "WEBSEC" {
			t.Errorf("unexpected body %+v", body)
		}
		if !strings.HasSuffix(body.Message, "4821") {
			t.Errorf("message %q does not carry the code", body.Message)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	c := NewSMSClient("test-api-key", server.URL, "WEBSEC", time.Second)
	if err := c.SendCode(context.Background(), "0712345678", "4821"); err != nil {
		t.Fatalf("SendCode: %v", err)
	}
}

func TestSMSClient_SendCode_StatusClassification(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}))
			defer server.Close()

			err := NewSMSClient("k", server.URL, "", time.Second).SendCode(context.Background(), "1", "1111")
			var de *DeliveryError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DeliveryError, got %v", err)
			}
			if de.Status != tc.status || de.Retryable != tc.retryable {
				t.Fatalf("got status=%d retryable=%v", de.Status, de.Retryable)
			}
			if !strings.Contains(err.Error(), "nope") {
				t.Fatalf("error should carry gateway body: %v", err)
			}
		})
	}
}

func TestSMSClient_SendCode_NetworkErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	err := NewSMSClient("k", url, "", time.Second).SendCode(context.Background(), "1", "1111")
	if !IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestSMSClient_SendCode_NotConfigured(t *testing.T) {
	err := NewSMSClient("", "", "", 0).SendCode(context.Background(), "1", "1111")
	if err == nil || IsRetryable(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}
