package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

type noopMetrics struct{}

func (noopMetrics) LoginAttempt(string)    {}
func (noopMetrics) SignupCompleted(string) {}
func (noopMetrics) TokenRefreshed(string)  {}
func (noopMetrics) SessionRevoked(string)  {}
func (noopMetrics) PasswordReset(string)   {}

// PrometheusMetrics counts session lifecycle events. Refresh outcomes
// include replayed_or_revoked, which is the signal to watch for token
// theft or misbehaving client retry loops.
type PrometheusMetrics struct {
	logins    *prometheus.CounterVec
	signups   *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	revoked   *prometheus.CounterVec
	resets    *prometheus.CounterVec
}

var _ Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the session counters on reg. Pass
// prometheus.DefaultRegisterer for the stock setup.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "castlink",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "castlink",
			Subsystem: "auth",
			Name:      "signups_total",
			Help:      "Completed signups by account type.",
		}, []string{"type"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "castlink",
			Subsystem: "auth",
			Name:      "token_refreshes_total",
			Help:      "Refresh rotations by outcome.",
		}, []string{"outcome"}),
		revoked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "castlink",
			Subsystem: "auth",
			Name:      "sessions_revoked_total",
			Help:      "Sessions revoked by reason.",
		}, []string{"reason"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "castlink",
			Subsystem: "auth",
			Name:      "password_resets_total",
			Help:      "Password reset flow events by stage.",
		}, []string{"stage"}),
	}

	if reg != nil {
		reg.MustRegister(m.logins, m.signups, m.refreshes, m.revoked, m.resets)
	}

	return m
}

func (m *PrometheusMetrics) LoginAttempt(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) SignupCompleted(userType string) {
	m.signups.WithLabelValues(userType).Inc()
}

func (m *PrometheusMetrics) TokenRefreshed(outcome string) {
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) SessionRevoked(reason string) {
	m.revoked.WithLabelValues(reason).Inc()
}

func (m *PrometheusMetrics) PasswordReset(stage string) {
	m.resets.WithLabelValues(stage).Inc()
}
