package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"policyguard/internal/domain"
)

// Metrics holds the service collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	checks        *prometheus.CounterVec
	ruleMatches   *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	checkDuration prometheus.Histogram
}

// NewMetrics registers the collectors. Process and Go runtime collectors are
// included so /metrics is useful on its own.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "policyguard_checks_total",
			Help: "Completed compliance checks by overall risk.",
		}, []string{"risk"}),
		ruleMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "policyguard_rule_matches_total",
			Help: "Rule firings by rule id.",
		}, []string{"rule"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "policyguard_checks_rejected_total",
			Help: "Checks rejected by input validation, by field.",
		}, []string{"field"}),
		checkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "policyguard_check_duration_seconds",
			Help:    "Time to evaluate and record a check.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	m.Registry.MustRegister(
		m.checks, m.ruleMatches, m.rejected, m.checkDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCheck records a completed check.
func (m *Metrics) ObserveCheck(risk domain.RiskLevel, ruleIDs []string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(risk.String()).Inc()
	for _, id := range ruleIDs {
		m.ruleMatches.WithLabelValues(id).Inc()
	}
	m.checkDuration.Observe(elapsed.Seconds())
}

// ObserveRejected records a validation failure.
func (m *Metrics) ObserveRejected(field string) {
	if m == nil {
		return
	}
	if field == "" {
		field = "unknown"
	}
	m.rejected.WithLabelValues(field).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
