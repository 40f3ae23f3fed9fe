package scraper

import (
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/a11yaudit/config"
	"github.com/use-agent/a11yaudit/models"
)

// Scraper owns one launched browser process for the duration of a single run.
// Close must be called on every exit path; it is safe to call more than once.
type Scraper struct {
	browser    *rod.Browser
	launcher   *launcher.Launcher
	browserCfg config.BrowserConfig
	closeOnce  sync.Once
	closeErr   error
}

// NewScraper launches a headless browser and connects to it.
func NewScraper(browserCfg config.BrowserConfig) (*Scraper, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("no-first-run"))
	if browserCfg.Stealth {
		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewAuditError(
			models.ErrCodeAuditEngine,
			"failed to launch browser",
			err,
		)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewAuditError(
			models.ErrCodeAuditEngine,
			"failed to connect to browser",
			err,
		)
	}

	return &Scraper{
		browser:    browser,
		launcher:   l,
		browserCfg: browserCfg,
	}, nil
}

// Close kills the browser process and removes its profile directory.
// Only the first call does any work; later calls return the first result.
func (s *Scraper) Close() error {
	s.closeOnce.Do(func() {
		slog.Debug("closing browser")
		if err := s.browser.Close(); err != nil {
			s.closeErr = err
			s.launcher.Kill()
		}
		s.launcher.Cleanup()
	})
	return s.closeErr
}
