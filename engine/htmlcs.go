package engine

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/use-agent/a11yaudit/config"
	"github.com/use-agent/a11yaudit/models"
)

//go:embed js/htmlcs_run.js
var htmlcsRunJS string

// htmlcsOptions is passed verbatim to the in-page runner.
type htmlcsOptions struct {
	Standard        string `json:"standard"`
	IncludeWarnings bool   `json:"includeWarnings"`
	IncludeNotices  bool   `json:"includeNotices"`
}

// HTMLCSEngine runs HTML_CodeSniffer in a browser it launches and owns for
// the duration of a single audit. The result mirrors the pa11y report
// shape: {documentTitle, pageUrl, issues}.
type HTMLCSEngine struct {
	loader     ScriptLoader
	source     string
	opts       htmlcsOptions
	args       []string
	headless   bool
	execPath   string
	proxy      string
	navTimeout time.Duration

	// run executes the page work; swapped out in tests.
	run func(ctx context.Context, targetURL, source string) ([]byte, error)
}

// NewHTMLCSEngine creates an HTML_CodeSniffer engine. Browser binary, proxy
// and navigation timeout come from browserCfg; launch switches come from
// cfg.BrowserArgs.
func NewHTMLCSEngine(cfg config.HTMLCSConfig, browserCfg config.BrowserConfig, loader ScriptLoader) *HTMLCSEngine {
	e := &HTMLCSEngine{
		loader: loader,
		source: cfg.ScriptSource,
		opts: htmlcsOptions{
			Standard:        cfg.Standard,
			IncludeWarnings: cfg.IncludeWarnings,
			IncludeNotices:  cfg.IncludeNotices,
		},
		args:       cfg.BrowserArgs,
		headless:   browserCfg.Headless,
		execPath:   browserCfg.BrowserBin,
		proxy:      browserCfg.DefaultProxy,
		navTimeout: browserCfg.NavigationTimeout,
	}
	e.run = e.runChrome
	return e
}

// WithOptions returns a copy of e using a different standard and issue
// type filter.
func (e *HTMLCSEngine) WithOptions(standard string, includeWarnings, includeNotices bool) *HTMLCSEngine {
	c := *e
	if standard != "" {
		c.opts.Standard = standard
	}
	c.opts.IncludeWarnings = includeWarnings
	c.opts.IncludeNotices = includeNotices
	c.run = c.runChrome
	return &c
}

func (e *HTMLCSEngine) Name() string { return "htmlcs" }

// Audit runs HTML_CodeSniffer against targetURL and returns the pa11y-shaped
// result as JSON.
func (e *HTMLCSEngine) Audit(ctx context.Context, targetURL string) ([]byte, error) {
	source, err := e.loader.Load(ctx, e.source)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := e.run(ctx, targetURL, source)
	if err != nil {
		return nil, err
	}

	slog.Debug("htmlcs run finished",
		"url", targetURL,
		"standard", e.opts.Standard,
		"bytes", len(raw),
		"elapsed", time.Since(start),
	)
	return raw, nil
}

// runChrome launches a dedicated Chromium through chromedp. Cancelling the
// allocator context terminates the browser process, so the deferred cancels
// release it on every return path.
func (e *HTMLCSEngine) runChrome(ctx context.Context, targetURL, source string) ([]byte, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, e.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			slog.Debug(fmt.Sprintf(format, args...), "engine", "htmlcs")
		}),
	)
	defer cancelBrowser()

	// ── 1. Start the browser on the long-lived context ──
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, models.NewAuditError(models.ErrCodeAuditEngine, "failed to launch browser", err)
	}

	// ── 2. Navigate within the navigation budget ──
	navCtx := browserCtx
	if e.navTimeout > 0 {
		var cancelNav context.CancelFunc
		navCtx, cancelNav = context.WithTimeout(browserCtx, e.navTimeout)
		defer cancelNav()
	}
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return nil, chromeError(fmt.Sprintf("navigation to %s failed", targetURL), err)
	}

	// ── 3. Inject the sniffer and run it ──
	expr, err := runnerExpression(e.opts)
	if err != nil {
		return nil, models.NewAuditError(models.ErrCodeAuditEngine, "failed to encode runner options", err)
	}

	var raw []byte
	if err := chromedp.Run(browserCtx,
		chromedp.Evaluate(source+"\n;void 0;", nil),
		chromedp.Evaluate(expr, &raw, awaitPromise),
	); err != nil {
		return nil, chromeError("HTML_CodeSniffer run failed", err)
	}
	if len(raw) == 0 {
		return nil, models.NewAuditError(models.ErrCodeAuditEngine, "HTML_CodeSniffer returned no result", nil)
	}
	return raw, nil
}

func (e *HTMLCSEngine) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !e.headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if e.execPath != "" {
		opts = append(opts, chromedp.ExecPath(e.execPath))
	}
	if e.proxy != "" {
		opts = append(opts, chromedp.ProxyServer(e.proxy))
	}
	for _, arg := range e.args {
		name, value, ok := parseLaunchArg(arg)
		if !ok {
			slog.Warn("ignoring malformed browser argument", "arg", arg)
			continue
		}
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// parseLaunchArg splits a command-line switch such as "--no-sandbox" or
// "--window-size=1280,800" into a chromedp flag name and value.
func parseLaunchArg(arg string) (string, interface{}, bool) {
	trimmed := strings.TrimLeft(strings.TrimSpace(arg), "-")
	if trimmed == "" {
		return "", nil, false
	}
	name, value, hasValue := strings.Cut(trimmed, "=")
	if name == "" {
		return "", nil, false
	}
	if !hasValue {
		return name, true, true
	}
	return name, value, true
}

// runnerExpression applies the embedded runner function to opts.
func runnerExpression(opts htmlcsOptions) (string, error) {
	b, err := json.Marshal(opts)
	if err != nil {
		return "", err
	}
	return "(" + strings.TrimSpace(htmlcsRunJS) + ")(" + string(b) + ")", nil
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func chromeError(prefix string, err error) *models.AuditError {
	var exc *runtime.ExceptionDetails
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewAuditError(models.ErrCodeAuditEngine, prefix+": timed out", err)
	case errors.Is(err, context.Canceled):
		return models.NewAuditError(models.ErrCodeAuditEngine, prefix+": canceled", err)
	case errors.As(err, &exc):
		return models.NewAuditError(models.ErrCodeAuditEngine, prefix+": "+exc.Error(), err)
	default:
		return models.NewAuditError(models.ErrCodeAuditEngine, prefix, err)
	}
}
