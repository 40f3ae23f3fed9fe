package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/a11yaudit/models"
)

func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	next:
		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			if c := metric.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				return g.GetValue()
			}
		}
	}
	return 0
}

func TestMetrics_Start(t *testing.T) {
	m := New()

	done := m.Start("axe")
	assert.Equal(t, 1.0, counterValue(t, m, "a11yaudit_active_audits", nil))
	done(3, nil)

	m.Start("axe")(0, models.NewAuditError(models.ErrCodeAuditEngine, "nav", nil))
	m.Start("htmlcs")(5, nil)

	assert.Equal(t, 0.0, counterValue(t, m, "a11yaudit_active_audits", nil))
	assert.Equal(t, 1.0, counterValue(t, m, "a11yaudit_audits_total", map[string]string{"engine": "axe", "outcome": "success"}))
	assert.Equal(t, 1.0, counterValue(t, m, "a11yaudit_audits_total", map[string]string{"engine": "axe", "outcome": models.ErrCodeAuditEngine}))
	assert.Equal(t, 3.0, counterValue(t, m, "a11yaudit_findings_total", map[string]string{"engine": "axe"}))
	assert.Equal(t, 5.0, counterValue(t, m, "a11yaudit_findings_total", map[string]string{"engine": "htmlcs"}))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.Start("axe")(1, nil) })
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Start("htmlcs")(2, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `a11yaudit_findings_total{engine="htmlcs"} 2`)
	assert.Contains(t, string(body), "a11yaudit_audit_duration_seconds_bucket")
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, models.ErrCodeIO, Outcome(models.NewAuditError(models.ErrCodeIO, "disk", nil)))
	assert.Equal(t, models.ErrCodeInternal, Outcome(errors.New("boom")))
}
