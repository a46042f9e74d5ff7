package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultSMSTimeout = 15 * time.Second

// maxErrorBody caps how much of a gateway error body ends up in errors and logs.
const maxErrorBody = 512

// SMSClient sends activation codes through an HTTP SMS gateway.
//
// The request is a JSON POST of {to, from, message} authenticated with the
// API key in the Authorization header. Any 2xx is success.
type SMSClient struct {
	APIKey     string
	BaseURL    string
	Sender     string
	HTTPClient *http.Client
}

type smsRequest struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Message string `json:"message"`
}

// NewSMSClient returns a gateway client. A zero timeout uses 15s.
func NewSMSClient(apiKey, baseURL, sender string, timeout time.Duration) *SMSClient {
	if timeout <= 0 {
		timeout = defaultSMSTimeout
	}
	return &SMSClient{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Sender:     sender,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// SendCode posts the activation message. It never logs the code.
func (c *SMSClient) SendCode(ctx context.Context, phone, code string) error {
	if c.APIKey == "" || c.BaseURL == "" {
		return &DeliveryError{Driver: DriverSMS, Err: errors.New("gateway not configured")}
	}

	raw, err := json.Marshal(smsRequest{
		To:      phone,
		From:    c.Sender,
		Message: activationMessage(code),
	})
	if err != nil {
		return &DeliveryError{Driver: DriverSMS, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return &DeliveryError{Driver: DriverSMS, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// Transport errors are retryable unless the caller gave up.
		return &DeliveryError{Driver: DriverSMS, Retryable: ctx.Err() == nil, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &DeliveryError{
		Driver:    DriverSMS,
		Status:    resp.StatusCode,
		Retryable: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		Err:       fmt.Errorf("request failed body=%s", string(b)),
	}
}

func activationMessage(code string) string {
	return "Your activation code is " + code
}
