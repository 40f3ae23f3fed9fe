package engine

import (
	"context"
	"log/slog"

	"github.com/use-agent/a11yaudit/config"
	"github.com/use-agent/a11yaudit/scraper"
)

// axeRunJS invokes the injected axe-core engine on the whole document,
// restricted to rules carrying one of the given tags.
const axeRunJS = `(tags) => {
	if (typeof window.axe === 'undefined') {
		throw new Error('axe-core is not loaded');
	}
	return window.axe.run(document, {
		runOnly: { type: 'tag', values: tags }
	});
}`

// Browser is a launched browser owned by exactly one audit run.
type Browser interface {
	Open(ctx context.Context, targetURL string) (Page, error)
	Close() error
}

// Page is a loaded tab the engine can script.
type Page interface {
	InjectScript(ctx context.Context, source string) error
	EvalJSON(ctx context.Context, js string, args ...interface{}) ([]byte, error)
}

// LaunchFunc starts a new browser.
type LaunchFunc func() (Browser, error)

// AxeEngine drives a browser directly: launch, navigate, inject axe-core,
// run it in the page, close.
type AxeEngine struct {
	launch   LaunchFunc
	loader   ScriptLoader
	source   string
	ruleTags []string
}

// NewAxeEngine creates an axe engine that launches browsers with launch.
func NewAxeEngine(cfg config.AxeConfig, launch LaunchFunc, loader ScriptLoader) *AxeEngine {
	return &AxeEngine{
		launch:   launch,
		loader:   loader,
		source:   cfg.ScriptSource,
		ruleTags: cfg.RuleTags,
	}
}

// WithRuleTags returns a copy of e restricted to tags.
func (e *AxeEngine) WithRuleTags(tags []string) *AxeEngine {
	c := *e
	c.ruleTags = tags
	return &c
}

func (e *AxeEngine) Name() string { return "axe" }

// Audit runs axe-core against targetURL. The browser is closed exactly once
// on every path out of this method, including failures.
func (e *AxeEngine) Audit(ctx context.Context, targetURL string) ([]byte, error) {
	source, err := e.loader.Load(ctx, e.source)
	if err != nil {
		return nil, err
	}

	browser, err := e.launch()
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			slog.Warn("browser close failed", "engine", e.Name(), "error", closeErr)
		}
	}()

	page, err := browser.Open(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	if err := page.InjectScript(ctx, source); err != nil {
		return nil, err
	}

	raw, err := page.EvalJSON(ctx, axeRunJS, e.ruleTags)
	if err != nil {
		return nil, err
	}

	slog.Debug("axe run finished", "url", targetURL, "bytes", len(raw))
	return raw, nil
}

// RodLauncher returns a LaunchFunc backed by a rod-controlled Chromium.
func RodLauncher(cfg config.BrowserConfig) LaunchFunc {
	return func() (Browser, error) {
		sc, err := scraper.NewScraper(cfg)
		if err != nil {
			return nil, err
		}
		return rodBrowser{sc: sc}, nil
	}
}

type rodBrowser struct {
	sc *scraper.Scraper
}

func (b rodBrowser) Open(ctx context.Context, targetURL string) (Page, error) {
	p, err := b.sc.Open(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (b rodBrowser) Close() error {
	return b.sc.Close()
}
