package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retrying retries retryable delivery failures with exponential backoff.
type Retrying struct {
	next       Notifier
	maxRetries uint64
	baseDelay  time.Duration
	budget     time.Duration
	logger     *slog.Logger
}

// NewRetrying wraps next. maxRetries is the number of attempts after the first.
func NewRetrying(next Notifier, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Retrying {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrying{
		next:       next,
		maxRetries: uint64(maxRetries),
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// WithBudget bounds every SendCode call to d in total. Zero means unbounded.
func (r *Retrying) WithBudget(d time.Duration) *Retrying {
	r.budget = d
	return r
}

func (r *Retrying) SendCode(ctx context.Context, phone, code string) error {
	parent := ctx
	if r.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.budget)
		defer cancel()
	}

	b := retry.NewExponential(r.baseDelay)
	b = retry.WithJitterPercent(20, b)
	b = retry.WithMaxRetries(r.maxRetries, b)

	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := r.next.SendCode(ctx, phone, code)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		r.logger.LogAttrs(ctx, slog.LevelWarn, "notify.sms.retry",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		return retry.RetryableError(err)
	})

	// Running out of budget is a transient condition for the caller, unlike
	// the caller's own context going away.
	if err != nil && parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		r.logger.LogAttrs(parent, slog.LevelWarn, "notify.sms.budget_exhausted",
			slog.Int("attempts", attempt),
			slog.Duration("budget", r.budget),
		)
		return &DeliveryError{
			Driver:    DriverSMS,
			Retryable: true,
			Err:       fmt.Errorf("send budget %s exhausted: %w", r.budget, err),
		}
	}
	return err
}
