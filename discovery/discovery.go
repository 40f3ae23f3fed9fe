// Package discovery finds the pages of a site that can be audited, from its
// sitemaps or, failing that, from the links on its homepage.
package discovery

import (
	"bytes"
	"context"
	"encoding/xml"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/a11yaudit/models"
)

const (
	SourceSitemap  = "sitemap"
	SourceHomepage = "homepage"

	// maxSitemapDepth bounds sitemap index nesting.
	maxSitemapDepth = 5
)

// Fetcher downloads a URL body. *scraper.HTTPFetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) ([]byte, error)
}

// sitemapIndex represents a sitemap index XML file.
type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc string `xml:"loc"`
}

// urlset represents a sitemap URL set XML file.
type urlset struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc string `xml:"loc"`
}

// Discoverer collects page URLs for a site.
type Discoverer struct {
	fetcher Fetcher
	maxURLs int
}

// New creates a Discoverer that returns at most maxURLs URLs (0 = no cap).
func New(fetcher Fetcher, maxURLs int) *Discoverer {
	return &Discoverer{fetcher: fetcher, maxURLs: maxURLs}
}

// Discover returns the pages of the site rooted at homepage. Sitemaps listed
// in robots.txt are tried first, then /sitemap.xml. When no sitemap yields a
// URL, the same-host links of the homepage are used instead. The homepage
// is always the first URL.
func (d *Discoverer) Discover(ctx context.Context, homepage string) (*models.SiteURLs, error) {
	base, err := url.Parse(homepage)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, models.NewAuditError(models.ErrCodeInvalidInput, "homepage must be an absolute http(s) URL", err)
	}
	origin := base.Scheme + "://" + base.Host

	// ── 1. robots.txt Sitemap: directives ──
	sitemaps := d.robotsSitemaps(ctx, origin+"/robots.txt")

	// ── 2. Fall back to the conventional location ──
	if len(sitemaps) == 0 {
		sitemaps = []string{origin + "/sitemap.xml"}
	}

	// ── 3. Parse sitemaps, grouped by the sitemap that listed them ──
	g := &grouping{grouped: make(map[string][]string), visited: make(map[string]bool)}
	for _, sm := range sitemaps {
		d.collectSitemap(ctx, sm, g, 0)
	}

	if len(g.order) > 0 {
		var flat []string
		for _, sm := range g.order {
			flat = append(flat, g.grouped[sm]...)
		}
		urls := d.finish(homepage, flat)
		slog.Info("discovery finished", "url", homepage, "source", SourceSitemap,
			"sitemaps", len(g.order), "urls", len(urls))
		return &models.SiteURLs{Source: SourceSitemap, Grouped: g.grouped, URLs: urls}, nil
	}

	// ── 4. Homepage links ──
	urls := d.finish(homepage, d.homepageLinks(ctx, homepage, base))
	slog.Info("discovery finished", "url", homepage, "source", SourceHomepage, "urls", len(urls))
	return &models.SiteURLs{Source: SourceHomepage, URLs: urls}, nil
}

type grouping struct {
	grouped map[string][]string
	order   []string
	visited map[string]bool
}

// collectSitemap fetches and parses one sitemap. Index files recurse into
// their children; URL sets with at least one entry become a group.
func (d *Discoverer) collectSitemap(ctx context.Context, sitemapURL string, g *grouping, depth int) {
	if depth > maxSitemapDepth || g.visited[sitemapURL] {
		return
	}
	g.visited[sitemapURL] = true

	body, err := d.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		slog.Debug("discovery: sitemap unavailable", "sitemap", sitemapURL, "error", err)
		return
	}

	var idx sitemapIndex
	if err := xml.Unmarshal(body, &idx); err == nil {
		slog.Debug("discovery: sitemap index", "sitemap", sitemapURL, "children", len(idx.Sitemaps))
		for _, s := range idx.Sitemaps {
			if loc := strings.TrimSpace(s.Loc); loc != "" {
				d.collectSitemap(ctx, loc, g, depth+1)
			}
		}
		return
	}

	var us urlset
	if err := xml.Unmarshal(body, &us); err != nil {
		slog.Debug("discovery: sitemap not parseable", "sitemap", sitemapURL, "error", err)
		return
	}
	var urls []string
	for _, u := range us.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	if len(urls) == 0 {
		return
	}
	g.grouped[sitemapURL] = urls
	g.order = append(g.order, sitemapURL)
}

// robotsSitemaps fetches robots.txt and extracts Sitemap: directives.
func (d *Discoverer) robotsSitemaps(ctx context.Context, robotsURL string) []string {
	body, err := d.fetcher.Fetch(ctx, robotsURL)
	if err != nil {
		slog.Debug("discovery: robots.txt unavailable", "url", robotsURL, "error", err)
		return nil
	}

	var sitemaps []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if len(line) < len("sitemap:") || !strings.EqualFold(line[:len("sitemap:")], "sitemap:") {
			continue
		}
		if sm := strings.TrimSpace(line[len("sitemap:"):]); sm != "" {
			sitemaps = append(sitemaps, sm)
		}
	}
	return sitemaps
}

// homepageLinks returns the same-host http(s) links of the homepage with
// fragments removed, in document order.
func (d *Discoverer) homepageLinks(ctx context.Context, homepage string, base *url.URL) []string {
	body, err := d.fetcher.Fetch(ctx, homepage)
	if err != nil {
		slog.Warn("discovery: homepage unavailable", "url", homepage, "error", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		resolved, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if !strings.EqualFold(resolved.Host, base.Host) {
			return
		}
		resolved.Fragment = ""
		resolved.RawFragment = ""
		links = append(links, resolved.String())
	})
	return links
}

// finish puts homepage first, removes duplicates and applies the cap.
func (d *Discoverer) finish(homepage string, urls []string) []string {
	seen := map[string]bool{homepage: true}
	out := []string{homepage}
	for _, u := range urls {
		if seen[u] {
			continue
		}
		if d.maxURLs > 0 && len(out) >= d.maxURLs {
			break
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
