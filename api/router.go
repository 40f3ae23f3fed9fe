package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/a11yaudit/api/handler"
	"github.com/use-agent/a11yaudit/api/middleware"
	"github.com/use-agent/a11yaudit/config"
	"github.com/use-agent/a11yaudit/discovery"
	"github.com/use-agent/a11yaudit/engine"
	"github.com/use-agent/a11yaudit/llm"
	"github.com/use-agent/a11yaudit/metrics"
	"github.com/use-agent/a11yaudit/pipeline"
	"github.com/use-agent/a11yaudit/snapshot"
)

// Services are the collaborators the HTTP handlers call into.
type Services struct {
	Runner     *pipeline.Runner
	Axe        *engine.AxeEngine
	HTMLCS     *engine.HTMLCSEngine
	Discoverer *discovery.Discoverer
	Render     snapshot.Renderer
	LLM        *llm.Client
	Metrics    *metrics.Metrics
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics stay outside auth so monitoring probes always work.
// ctx bounds background middleware goroutines.
func NewRouter(ctx context.Context, svc Services, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	slots := handler.NewSlots(cfg.Browser.MaxConcurrent)

	r.GET("/metrics", gin.WrapH(svc.Metrics.Handler()))

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(slots, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	// Audits
	protected.POST("/audit/axe", handler.AuditAxe(svc.Runner, svc.Axe, slots))
	protected.POST("/audit/htmlcs", handler.AuditHTMLCS(svc.Runner, svc.HTMLCS, handler.HTMLCSDefaults{
		IncludeWarnings: cfg.HTMLCS.IncludeWarnings,
		IncludeNotices:  cfg.HTMLCS.IncludeNotices,
	}, slots))

	// Site tooling
	protected.POST("/discover", handler.Discover(svc.Discoverer))
	protected.POST("/snapshot", handler.Snapshot(svc.Render, slots))

	// Remediation (LLM)
	protected.POST("/fix", handler.Fix(svc.LLM, cfg.LLM))

	return r
}
