package main

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/use-agent/a11yaudit/cache"
	"github.com/use-agent/a11yaudit/config"
	"github.com/use-agent/a11yaudit/engine"
	"github.com/use-agent/a11yaudit/scraper"
	"github.com/use-agent/a11yaudit/webhook"
)

// scriptLoader builds the engine script loader. c may be nil for one-shot
// runs.
func scriptLoader(cfg *config.Config, c *cache.Cache) *engine.SourceLoader {
	fetcher := scraper.NewHTTPFetcher(cfg.Browser.DefaultProxy, cfg.Discovery.RequestTimeout)
	return engine.NewSourceLoader(fetcher, c)
}

func newAxeEngine(cfg *config.Config, loader engine.ScriptLoader) *engine.AxeEngine {
	return engine.NewAxeEngine(cfg.Axe, engine.RodLauncher(cfg.Browser), loader)
}

func newHTMLCSEngine(cfg *config.Config, loader engine.ScriptLoader) *engine.HTMLCSEngine {
	return engine.NewHTMLCSEngine(cfg.HTMLCS, cfg.Browser, loader)
}

func newRunID() string {
	return uuid.New().String()
}

// notify sends the completion webhook when one is configured.
func notify(ctx context.Context, cfg *config.Config, runID string, summary webhook.AuditSummary, err error) {
	if cfg.Webhook.URL == "" {
		return
	}
	slog.Debug("sending completion webhook", "run_id", runID, "url", cfg.Webhook.URL)
	webhook.Notify(context.WithoutCancel(ctx), cfg.Webhook.URL, cfg.Webhook.Secret, webhook.NewEvent(runID, summary, err))
}
