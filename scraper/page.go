package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/a11yaudit/models"
	"github.com/ysmood/gson"
)

// idleWindow is how long the network must stay quiet before a page counts
// as loaded (the networkidle0 convention).
const idleWindow = 500 * time.Millisecond

// Page is a loaded tab. It has no Close of its own: the tab is released
// when its Scraper closes the browser.
type Page struct {
	page *rod.Page
}

// Open creates a tab and navigates it to targetURL.
//
// Lifecycle:
//
//  1. Create target          : a fresh tab per run
//  2. Stealth injection      : before navigation, or it has no effect
//  3. Extra headers
//  4. Idle listener setup    : MUST be registered before Navigate to capture all requests
//  5. Navigate + wait idle   : bounded by the navigation timeout
func (s *Scraper) Open(ctx context.Context, targetURL string) (*Page, error) {
	// ── 1. Create target ──────────────────────────────────────────────
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewAuditError(
			models.ErrCodeAuditEngine,
			"failed to create page",
			err,
		)
	}

	// ── 2. Stealth injection ──────────────────────────────────────────
	if s.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// ── 3. Extra headers ──────────────────────────────────────────────
	if len(s.browserCfg.Headers) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(s.browserCfg.Headers),
		}).Call(page); err != nil {
			slog.Warn("failed to set extra headers", "error", err)
		}
	}

	// ── 4. Bind navigation deadline, set up idle waiter BEFORE navigation
	navCtx, cancel := context.WithTimeout(ctx, s.browserCfg.NavigationTimeout)
	defer cancel()
	p := page.Context(navCtx)
	waitIdle := p.WaitRequestIdle(idleWindow, nil, nil, nil)

	// ── 5. Navigate + wait ────────────────────────────────────────────
	if err := p.Navigate(targetURL); err != nil {
		_ = page.Close()
		return nil, categorizeError(err, "navigation to target URL failed")
	}
	if err := p.WaitLoad(); err != nil {
		_ = page.Close()
		return nil, categorizeError(err, "page did not finish loading")
	}
	waitIdle()
	if err := navCtx.Err(); err != nil {
		_ = page.Close()
		return nil, categorizeError(err, "network did not become idle")
	}

	return &Page{page: page}, nil
}

// InjectScript evaluates source at global scope, the way a classic <script>
// would, but through the DevTools protocol so page CSP does not apply.
func (p *Page) InjectScript(ctx context.Context, source string) error {
	res, err := proto.RuntimeEvaluate{
		Expression: source,
	}.Call(p.page.Context(ctx))
	if err != nil {
		return categorizeError(err, "script injection failed")
	}
	if res.ExceptionDetails != nil {
		return models.NewAuditError(
			models.ErrCodeAuditEngine,
			"script injection threw",
			errors.New(exceptionText(res.ExceptionDetails)),
		)
	}
	return nil
}

// EvalJSON calls the JavaScript function js with args, awaits the returned
// promise and returns the result serialized as JSON.
func (p *Page) EvalJSON(ctx context.Context, js string, args ...interface{}) ([]byte, error) {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return nil, categorizeError(err, "in-page evaluation failed")
	}
	return rawJSON(res.Value), nil
}

// HTML returns the rendered document markup.
func (p *Page) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", categorizeError(err, "failed to extract page HTML")
	}
	return html, nil
}

// rawJSON returns the compact JSON encoding of a CDP value.
func rawJSON(v gson.JSON) []byte {
	return []byte(v.JSON("", ""))
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

func exceptionText(d *proto.RuntimeExceptionDetails) string {
	if d.Exception != nil && d.Exception.Description != "" {
		return d.Exception.Description
	}
	return d.Text
}

// categorizeError wraps raw errors into typed AuditErrors. Timeouts keep the
// engine code but say so in the message.
func categorizeError(err error, msg string) *models.AuditError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewAuditError(models.ErrCodeAuditEngine, fmt.Sprintf("%s: timed out", msg), err)
	case errors.Is(err, context.Canceled):
		return models.NewAuditError(models.ErrCodeAuditEngine, fmt.Sprintf("%s: canceled", msg), err)
	default:
		return models.NewAuditError(models.ErrCodeAuditEngine, msg, err)
	}
}
