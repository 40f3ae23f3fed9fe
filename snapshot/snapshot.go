// Package snapshot resolves CSS selectors against a rendered page and
// returns the markup of the first element each one matches.
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/use-agent/a11yaudit/config"
	"github.com/use-agent/a11yaudit/models"
	"github.com/use-agent/a11yaudit/scraper"
)

const (
	// NotFound is reported for selectors that match nothing.
	NotFound = "element not found"

	// snapshotChars is how much of the page is attached to selector errors.
	snapshotChars = 5000

	errorPrefix = "Error: "
)

// IsError reports whether an Extract value describes a failure to resolve
// the selector rather than matched markup.
func IsError(value string) bool {
	return strings.HasPrefix(value, errorPrefix)
}

// Renderer returns the DOM of targetURL after scripts have run.
type Renderer func(ctx context.Context, targetURL string) (string, error)

// RodRenderer renders pages in a fresh rod-controlled browser per call.
func RodRenderer(cfg config.BrowserConfig) Renderer {
	return func(ctx context.Context, targetURL string) (string, error) {
		sc, err := scraper.NewScraper(cfg)
		if err != nil {
			return "", err
		}
		defer func() {
			if err := sc.Close(); err != nil {
				slog.Warn("browser close failed", "error", err)
			}
		}()

		page, err := sc.Open(ctx, targetURL)
		if err != nil {
			return "", err
		}
		return page.HTML(ctx)
	}
}

// Take renders targetURL once and resolves every selector against it.
func Take(ctx context.Context, render Renderer, targetURL string, selectors []string) (map[string]string, error) {
	rawHTML, err := render(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	out, err := Extract(rawHTML, selectors)
	if err != nil {
		return nil, err
	}
	slog.Debug("snapshot taken", "url", targetURL, "selectors", len(selectors))
	return out, nil
}

// Extract maps each selector to the outer HTML of its first match in
// rawHTML, NotFound when nothing matches, or an error note followed by the
// start of the page when the selector cannot be parsed.
func Extract(rawHTML string, selectors []string) (map[string]string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewAuditError(models.ErrCodeAuditEngine, "failed to parse page HTML", err)
	}

	out := make(map[string]string, len(selectors))
	for _, selector := range selectors {
		if _, done := out[selector]; done {
			continue
		}
		out[selector] = resolve(doc, rawHTML, selector)
	}
	return out, nil
}

func resolve(doc *html.Node, rawHTML, selector string) string {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return fmt.Sprintf(errorPrefix+"%v\n\n Page Snapshot:\n%s...", err, truncate(rawHTML, snapshotChars))
	}

	node := cascadia.Query(doc, sel)
	if node == nil {
		return NotFound
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return fmt.Sprintf(errorPrefix+"%v", err)
	}
	return buf.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
