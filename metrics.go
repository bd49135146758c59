package identity

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus counters for the auth flows. All methods are
// nil-safe so the collector stays optional.
type Metrics struct {
	logins         *prometheus.CounterVec
	signups        prometheus.Counter
	sessionsIssued prometheus.Counter
}

// NewMetrics creates the collector and registers it on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "identity_logins_total",
			Help: "Login attempts by provider and outcome",
		}, []string{"provider", "outcome"}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "identity_signups_total",
			Help: "Local account registrations",
		}),
		sessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "identity_sessions_issued_total",
			Help: "Session tokens issued",
		}),
	}
	reg.MustRegister(m.logins, m.signups, m.sessionsIssued)
	return m
}

// RecordLogin records one login attempt for a provider.
func (m *Metrics) RecordLogin(provider, outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(provider, outcome).Inc()
}

// RecordSignup records a completed registration.
func (m *Metrics) RecordSignup() {
	if m == nil {
		return
	}
	m.signups.Inc()
}

// RecordSessionIssued records an issued session token.
func (m *Metrics) RecordSessionIssued() {
	if m == nil {
		return
	}
	m.sessionsIssued.Inc()
}
