package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/use-agent/a11yaudit/engine"
	"github.com/use-agent/a11yaudit/models"
	"github.com/use-agent/a11yaudit/pipeline"
)

// AuditAxe returns a handler for POST /api/v1/audit/axe.
//
// Flow:
//  1. Parse & validate request.
//  2. Wait for a browser slot.
//  3. Run the axe pipeline (launch, inject, run, project, close).
//  4. Respond with the report. Nothing is written to disk.
func AuditAxe(runner *pipeline.Runner, axe *engine.AxeEngine, slots *Slots) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		runID := uuid.New().String()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.AxeAuditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidInput(c, err)
			return
		}
		eng := axe
		if len(req.RuleTags) > 0 {
			eng = axe.WithRuleTags(req.RuleTags)
		}

		// ── 2. Slot ─────────────────────────────────────────────────
		if err := slots.Acquire(c.Request.Context()); err != nil {
			respondAxeError(c, runID, err, start)
			return
		}
		defer slots.Release()

		// ── 3. Audit ────────────────────────────────────────────────
		rep, err := runner.Axe(c.Request.Context(), eng, req.URL)
		if err != nil {
			slog.Warn("axe audit failed", "run_id", runID, "url", req.URL, "error", err)
			respondAxeError(c, runID, err, start)
			return
		}

		// ── 4. Respond ──────────────────────────────────────────────
		slog.Info("axe audit finished", "run_id", runID, "url", req.URL, "violations", len(rep.Violations))
		c.JSON(http.StatusOK, models.AxeAuditResponse{
			Success: true,
			RunID:   runID,
			Report:  rep,
			Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
		})
	}
}

// AuditHTMLCS returns a handler for POST /api/v1/audit/htmlcs. The response
// carries both the raw engine result and the simplified issue list.
func AuditHTMLCS(runner *pipeline.Runner, htmlcs *engine.HTMLCSEngine, defaults HTMLCSDefaults, slots *Slots) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		runID := uuid.New().String()

		var req models.HTMLCSAuditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidInput(c, err)
			return
		}
		eng := htmlcs.WithOptions(req.Standard,
			boolOr(req.IncludeWarnings, defaults.IncludeWarnings),
			boolOr(req.IncludeNotices, defaults.IncludeNotices),
		)

		if err := slots.Acquire(c.Request.Context()); err != nil {
			respondHTMLCSError(c, runID, err, start)
			return
		}
		defer slots.Release()

		run, err := runner.HTMLCS(c.Request.Context(), eng, req.URL)
		if err != nil {
			slog.Warn("htmlcs audit failed", "run_id", runID, "url", req.URL, "error", err)
			respondHTMLCSError(c, runID, err, start)
			return
		}

		slog.Info("htmlcs audit finished", "run_id", runID, "url", req.URL, "issues", len(run.Issues))
		c.JSON(http.StatusOK, htmlcsResponse(runID, run, start))
	}
}

// htmlcsResponse passes the engine output through untouched, so fields the
// decoder does not model still reach the client.
func htmlcsResponse(runID string, run *pipeline.HTMLCSRun, start time.Time) models.HTMLCSAuditResponse {
	return models.HTMLCSAuditResponse{
		Success: true,
		RunID:   runID,
		Raw:     json.RawMessage(run.Raw),
		Issues:  run.Issues,
		Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
	}
}

// HTMLCSDefaults are the server-side issue type filters applied when a
// request leaves them unset.
type HTMLCSDefaults struct {
	IncludeWarnings bool
	IncludeNotices  bool
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func respondAxeError(c *gin.Context, runID string, err error, start time.Time) {
	ae := toAuditError(err)
	c.JSON(mapErrorToStatus(ae), models.AxeAuditResponse{
		Success: false,
		RunID:   runID,
		Error:   ae.ToDetail(),
		Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
	})
}

func respondHTMLCSError(c *gin.Context, runID string, err error, start time.Time) {
	ae := toAuditError(err)
	c.JSON(mapErrorToStatus(ae), models.HTMLCSAuditResponse{
		Success: false,
		RunID:   runID,
		Error:   ae.ToDetail(),
		Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
	})
}
