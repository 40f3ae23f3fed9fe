package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/use-agent/a11yaudit/cache"
	"github.com/use-agent/a11yaudit/models"
)

// Fetcher downloads a URL body. *scraper.HTTPFetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) ([]byte, error)
}

// SourceLoader reads engine scripts from disk or downloads them. Downloads
// are kept in an optional cache so a long-running server fetches each
// pinned build once.
type SourceLoader struct {
	fetcher Fetcher
	cache   *cache.Cache
}

// NewSourceLoader creates a loader. cache may be nil.
func NewSourceLoader(fetcher Fetcher, c *cache.Cache) *SourceLoader {
	return &SourceLoader{fetcher: fetcher, cache: c}
}

// Load returns the script at location, which is either an http(s) URL or a
// local file path.
func (l *SourceLoader) Load(ctx context.Context, location string) (string, error) {
	if !isRemote(location) {
		data, err := os.ReadFile(location)
		if err != nil {
			return "", models.NewAuditError(
				models.ErrCodeAuditEngine,
				fmt.Sprintf("failed to read engine script %s", location),
				err,
			)
		}
		return string(data), nil
	}

	key := cache.Key(location)
	if l.cache != nil {
		if src, ok := l.cache.Get(key); ok {
			slog.Debug("engine script cache hit", "location", location)
			return src, nil
		}
	}

	body, err := l.fetcher.Fetch(ctx, location)
	if err != nil {
		return "", models.NewAuditError(
			models.ErrCodeAuditEngine,
			fmt.Sprintf("failed to download engine script %s", location),
			err,
		)
	}
	src := string(body)
	if strings.TrimSpace(src) == "" {
		return "", models.NewAuditError(
			models.ErrCodeAuditEngine,
			fmt.Sprintf("engine script %s is empty", location),
			nil,
		)
	}

	if l.cache != nil {
		l.cache.Set(key, src)
	}
	slog.Debug("engine script downloaded", "location", location, "bytes", len(src))
	return src, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
