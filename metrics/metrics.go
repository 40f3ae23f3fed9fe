// Package metrics exposes audit counters for Prometheus scraping.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/use-agent/a11yaudit/models"
)

// Metrics holds the collectors for one process. All methods are safe on a
// nil receiver so one-shot CLI runs can skip instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	auditsTotal   *prometheus.CounterVec
	findingsTotal *prometheus.CounterVec
	auditSeconds  *prometheus.HistogramVec
	activeAudits  prometheus.Gauge
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		auditsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "a11yaudit_audits_total",
				Help: "Audit runs by engine and outcome (success or error code)",
			},
			[]string{"engine", "outcome"},
		),
		findingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "a11yaudit_findings_total",
				Help: "Projected records (violations or issues) produced by successful audits",
			},
			[]string{"engine"},
		),
		auditSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "a11yaudit_audit_duration_seconds",
				Help:    "Wall time of audit runs, browser launch included",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"engine"},
		),
		activeAudits: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "a11yaudit_active_audits",
			Help: "Audits currently holding a browser",
		}),
	}

	m.registry.MustRegister(m.auditsTotal, m.findingsTotal, m.auditSeconds, m.activeAudits)
	return m
}

// Start marks an audit as running and returns the func that records its
// outcome.
func (m *Metrics) Start(engine string) func(findings int, err error) {
	if m == nil {
		return func(int, error) {}
	}
	m.activeAudits.Inc()
	start := time.Now()
	return func(findings int, err error) {
		m.activeAudits.Dec()
		m.auditSeconds.WithLabelValues(engine).Observe(time.Since(start).Seconds())
		m.auditsTotal.WithLabelValues(engine, Outcome(err)).Inc()
		if err == nil {
			m.findingsTotal.WithLabelValues(engine).Add(float64(findings))
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Outcome is the outcome label for err.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	var ae *models.AuditError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return models.ErrCodeInternal
}
