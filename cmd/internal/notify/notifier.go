package notify

import (
	"context"
	"errors"
	"fmt"
)

// Notifier sends an activation code to a phone number.
type Notifier interface {
	SendCode(ctx context.Context, phone, code string) error
}

// ErrConfig is returned for invalid configuration.
var ErrConfig = errors.New("invalid notify config")

// DeliveryError describes a failed send.
type DeliveryError struct {
	Driver    string
	Status    int // gateway HTTP status, 0 when no response was received
	Retryable bool
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("notify %s: status=%d: %v", e.Driver, e.Status, e.Err)
	}
	return fmt.Sprintf("notify %s: %v", e.Driver, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a delivery failure that may succeed on retry.
func IsRetryable(err error) bool {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}
