package notify

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the notification collectors.
type Metrics struct {
	sends   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewMetrics registers notification collectors on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "websec",
			Subsystem: "notify",
			Name:      "sends_total",
			Help:      "Activation code sends by driver and result.",
		}, []string{"driver", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "websec",
			Subsystem: "notify",
			Name:      "send_duration_seconds",
			Help:      "Activation code send latency including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"driver"}),
	}
	if reg != nil {
		reg.MustRegister(m.sends, m.latency)
	}
	return m
}

// Instrumented records outcome and latency of every send.
type Instrumented struct {
	next    Notifier
	driver  string
	metrics *Metrics
}

// NewInstrumented wraps next.
func NewInstrumented(next Notifier, driver string, m *Metrics) *Instrumented {
	return &Instrumented{next: next, driver: driver, metrics: m}
}

func (n *Instrumented) SendCode(ctx context.Context, phone, code string) error {
	start := time.Now()
	err := n.next.SendCode(ctx, phone, code)
	n.metrics.latency.WithLabelValues(n.driver).Observe(time.Since(start).Seconds())

	result := "ok"
	switch {
	case err == nil:
	case IsRetryable(err):
		result = "unavailable"
	default:
		result = "failed"
	}
	n.metrics.sends.WithLabelValues(n.driver, result).Inc()
	return err
}
