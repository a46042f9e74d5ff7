package core

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts authentication outcomes.
type Metrics struct {
	OutcomesTotal *prometheus.CounterVec
}

// NewMetrics creates the auth collectors and registers them on reg when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websec_auth_outcomes_total",
				Help: "Total number of auth operations by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.OutcomesTotal)
	}
	return m
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.OutcomesTotal.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) deny(op string, r Reason) {
	if m == nil {
		return
	}
	m.OutcomesTotal.WithLabelValues(op, "deny_"+string(r)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range []error{ErrValidation, ErrNotFound, ErrAuth, ErrForbidden, ErrConflict, ErrUnavailable, ErrDelivery} {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return "error"
}
