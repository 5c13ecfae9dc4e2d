// Package monitoring holds the observability bootstrap: prometheus metrics
// and the OpenTelemetry tracer provider.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the auth-core counters.
type Metrics struct {
	AuthDecisions    *prometheus.CounterVec
	RateLimitDenials *prometheus.CounterVec
	Revocations      prometheus.Counter
}

// NewMetrics registers the counters with reg. Tests pass a fresh registry;
// the server passes prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AuthDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redline_auth_decisions_total",
				Help: "Authorization decisions by action and outcome.",
			},
			[]string{"action", "result"},
		),
		RateLimitDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redline_rate_limit_denials_total",
				Help: "Requests denied by the in-process rate limiter.",
			},
			[]string{"action"},
		),
		Revocations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "redline_token_revocations_total",
				Help: "Tokens blacklisted before their natural expiry.",
			},
		),
	}
}

// RecordDecision counts one authorization outcome.
func (m *Metrics) RecordDecision(action, result string) {
	m.AuthDecisions.WithLabelValues(action, result).Inc()
}

// RecordRateLimitDenial counts one rate-limited request.
func (m *Metrics) RecordRateLimitDenial(action string) {
	m.RateLimitDenials.WithLabelValues(action).Inc()
}

// RecordRevocation counts one blacklist write.
func (m *Metrics) RecordRevocation() {
	m.Revocations.Inc()
}
