package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the portal. Every method is safe
// on a nil receiver so components can run without metrics in tests.
type Metrics struct {
	RequestLatency       *prometheus.HistogramVec
	LoginAttempts        *prometheus.CounterVec
	Logouts              prometheus.Counter
	SessionContexts      prometheus.Gauge
	VerificationOutcomes *prometheus.CounterVec
	VerificationLatency  prometheus.Histogram
	GateTransitions      *prometheus.CounterVec
}

// New creates and registers all portal metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}), // outcome: "success", "invalid_credentials", "conflict"
		Logouts: f.NewCounter(prometheus.CounterOpts{
			Name: "portal_logouts_total",
			Help: "Total number of logouts",
		}),
		SessionContexts: f.NewGauge(prometheus.GaugeOpts{
			Name: "portal_session_contexts",
			Help: "Number of client session contexts held in memory",
		}),
		VerificationOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_verification_outcomes_total",
			Help: "Verification results by status",
		}, []string{"status"}), // status: "granted", "denied", "error"
		VerificationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "portal_verification_duration_seconds",
			Help:    "Duration of verification calls",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 2.5, 5, 10},
		}),
		GateTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_gate_transitions_total",
			Help: "Project detail gate transitions by target state",
		}, []string{"to"}),
	}
}

// ObserveRequest records an HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}

// IncrementLogin records a login outcome.
func (m *Metrics) IncrementLogin(outcome string) {
	if m != nil {
		m.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}

// IncrementLogout records a logout.
func (m *Metrics) IncrementLogout() {
	if m != nil {
		m.Logouts.Inc()
	}
}

// SetSessionContexts records how many session contexts are live.
func (m *Metrics) SetSessionContexts(n int) {
	if m != nil {
		m.SessionContexts.Set(float64(n))
	}
}

// ObserveVerification records a verification outcome and its duration.
func (m *Metrics) ObserveVerification(status string, d time.Duration) {
	if m != nil {
		m.VerificationOutcomes.WithLabelValues(status).Inc()
		m.VerificationLatency.Observe(d.Seconds())
	}
}

// IncrementGateTransition records a gate entering state to.
func (m *Metrics) IncrementGateTransition(to string) {
	if m != nil {
		m.GateTransitions.WithLabelValues(to).Inc()
	}
}
