package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Attempt outcomes
const (
	OutcomeSuccess     = "success"
	OutcomeRateLimited = "rate_limited"
	OutcomeUpstream    = "upstream_error"
)

// Session eviction reasons
const (
	EvictionExpired  = "expired"
	EvictionCapacity = "capacity"
)

// Metrics collects gateway metrics.
type Metrics interface {
	RecordAttempt(provider, model, outcome string, duration time.Duration)
	RecordCooldown(provider string)
	RecordFailOpen(model string)
	RecordExhausted(model string)
	SetActiveSessions(n int)
	RecordSessionEviction(reason string, n int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordAttempt(string, string, string, time.Duration) {}
func (NopMetrics) RecordCooldown(string)                               {}
func (NopMetrics) RecordFailOpen(string)                               {}
func (NopMetrics) RecordExhausted(string)                              {}
func (NopMetrics) SetActiveSessions(int)                               {}
func (NopMetrics) RecordSessionEviction(string, int)                   {}

// PrometheusMetrics implements Metrics with Prometheus collectors.
//
// Metrics:
//   - <ns>_upstream_attempts_total{provider,model,outcome}
//   - <ns>_upstream_attempt_duration_seconds{provider,outcome}
//   - <ns>_circuit_cooldowns_total{provider}
//   - <ns>_circuit_fail_open_total{model}
//   - <ns>_requests_exhausted_total{model}
//   - <ns>_sessions_active
//   - <ns>_session_evictions_total{reason}
type PrometheusMetrics struct {
	registry *prometheus.Registry

	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	cooldowns       *prometheus.CounterVec
	failOpen        *prometheus.CounterVec
	exhausted       *prometheus.CounterVec
	sessions        prometheus.Gauge
	evictions       *prometheus.CounterVec
}

// NewPrometheusMetrics creates and registers gateway metrics with registry.
// A nil registry gets a fresh one.
func NewPrometheusMetrics(namespace string, registry *prometheus.Registry) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &PrometheusMetrics{
		registry: registry,

		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_attempts_total",
				Help:      "Upstream provider attempts by outcome",
			},
			[]string{"provider", "model", "outcome"},
		),

		attemptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_attempt_duration_seconds",
				Help:      "Time until the upstream returned response headers",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider", "outcome"},
		),

		cooldowns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_cooldowns_total",
				Help:      "Cooldowns opened after rate-limit failures",
			},
			[]string{"provider"},
		),

		failOpen: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_fail_open_total",
				Help:      "Plans that ignored the breaker because every candidate was cooling down",
			},
			[]string{"model"},
		),

		exhausted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_exhausted_total",
				Help:      "Requests where every candidate failed",
			},
			[]string{"model"},
		),

		sessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Sessions held in memory",
			},
		),

		evictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_evictions_total",
				Help:      "Sessions removed by TTL sweep or capacity pressure",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		m.attempts,
		m.attemptDuration,
		m.cooldowns,
		m.failOpen,
		m.exhausted,
		m.sessions,
		m.evictions,
	)

	return m
}

func (m *PrometheusMetrics) RecordAttempt(provider, model, outcome string, duration time.Duration) {
	m.attempts.WithLabelValues(provider, model, outcome).Inc()
	m.attemptDuration.WithLabelValues(provider, outcome).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordCooldown(provider string) {
	m.cooldowns.WithLabelValues(provider).Inc()
}

func (m *PrometheusMetrics) RecordFailOpen(model string) {
	m.failOpen.WithLabelValues(model).Inc()
}

func (m *PrometheusMetrics) RecordExhausted(model string) {
	m.exhausted.WithLabelValues(model).Inc()
}

func (m *PrometheusMetrics) SetActiveSessions(n int) {
	m.sessions.Set(float64(n))
}

func (m *PrometheusMetrics) RecordSessionEviction(reason string, n int) {
	if n > 0 {
		m.evictions.WithLabelValues(reason).Add(float64(n))
	}
}

// Handler exposes the registry in the Prometheus exposition format
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
