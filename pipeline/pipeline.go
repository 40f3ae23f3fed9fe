// Package pipeline wires an audit engine to result projection and
// persistence. Each run is strictly sequential: acquire results, persist,
// project, emit.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/use-agent/a11yaudit/engine"
	"github.com/use-agent/a11yaudit/metrics"
	"github.com/use-agent/a11yaudit/models"
	"github.com/use-agent/a11yaudit/report"
)

// HTMLCSRun is the outcome of an HTML_CodeSniffer audit.
type HTMLCSRun struct {
	// Raw is the engine result exactly as returned by the page.
	Raw     []byte
	Results *models.HTMLCSResults
	Issues  []models.IssueRecord
}

// Runner executes audit pipelines. A nil metrics collector is allowed.
type Runner struct {
	metrics *metrics.Metrics
}

// NewRunner creates a Runner.
func NewRunner(m *metrics.Metrics) *Runner {
	return &Runner{metrics: m}
}

// Axe runs eng against targetURL and returns the flattened report without
// writing anything.
func (r *Runner) Axe(ctx context.Context, eng engine.Engine, targetURL string) (rep *models.AxeReport, err error) {
	done := r.metrics.Start(eng.Name())
	defer func() {
		n := 0
		if rep != nil {
			n = len(rep.Violations)
		}
		done(n, err)
	}()

	return axeReport(ctx, eng, targetURL)
}

// HTMLCS runs eng against targetURL and returns the raw result with its
// projection without writing anything.
func (r *Runner) HTMLCS(ctx context.Context, eng engine.Engine, targetURL string) (run *HTMLCSRun, err error) {
	done := r.metrics.Start(eng.Name())
	defer func() {
		n := 0
		if run != nil {
			n = len(run.Issues)
		}
		done(n, err)
	}()

	return htmlcsRun(ctx, eng, targetURL)
}

// RunAxe is the full axe pipeline: audit, project, then write the
// {url, violations} envelope to outPath. Nothing is written unless every
// earlier step succeeded.
func (r *Runner) RunAxe(ctx context.Context, eng engine.Engine, targetURL, outPath string, out io.Writer) (*models.AxeReport, error) {
	rep, err := r.Axe(ctx, eng, targetURL)
	if err != nil {
		return nil, err
	}

	if err := report.WriteJSON(outPath, rep); err != nil {
		return nil, err
	}
	slog.Info("axe report written", "url", targetURL, "path", outPath, "violations", len(rep.Violations))
	fmt.Fprintf(out, "Axe accessibility report saved to %s\n", outPath)
	return rep, nil
}

// RunHTMLCS is the full HTML_CodeSniffer pipeline: audit, persist the raw
// result to outPath, then print the simplified issue list to out. The
// simplified list is never persisted.
func (r *Runner) RunHTMLCS(ctx context.Context, eng engine.Engine, targetURL, outPath string, out io.Writer) (*HTMLCSRun, error) {
	run, err := r.HTMLCS(ctx, eng, targetURL)
	if err != nil {
		return nil, err
	}

	if err := report.WriteRawJSON(outPath, run.Raw); err != nil {
		return nil, err
	}
	slog.Info("htmlcs results written", "url", targetURL, "path", outPath, "issues", len(run.Issues))
	fmt.Fprintf(out, "Pa11y results saved to %s\n", outPath)

	if err := report.Encode(out, run.Issues); err != nil {
		return nil, models.NewAuditError(models.ErrCodeIO, "failed to print issues", err)
	}
	return run, nil
}

func axeReport(ctx context.Context, eng engine.Engine, targetURL string) (*models.AxeReport, error) {
	// ── 1. Acquire ──
	raw, err := eng.Audit(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	// ── 2. Validate and project ──
	res, err := report.DecodeAxeResults(raw)
	if err != nil {
		return nil, err
	}
	records, err := report.ProjectViolations(res)
	if err != nil {
		return nil, err
	}

	return &models.AxeReport{URL: targetURL, Violations: records}, nil
}

func htmlcsRun(ctx context.Context, eng engine.Engine, targetURL string) (*HTMLCSRun, error) {
	raw, err := eng.Audit(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	res, err := report.DecodeHTMLCSResults(raw)
	if err != nil {
		return nil, err
	}
	issues, err := report.ProjectIssues(res)
	if err != nil {
		return nil, err
	}

	return &HTMLCSRun{Raw: raw, Results: res, Issues: issues}, nil
}
