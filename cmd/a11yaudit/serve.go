package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/a11yaudit/api"
	"github.com/use-agent/a11yaudit/cache"
	"github.com/use-agent/a11yaudit/discovery"
	"github.com/use-agent/a11yaudit/llm"
	"github.com/use-agent/a11yaudit/metrics"
	"github.com/use-agent/a11yaudit/pipeline"
	"github.com/use-agent/a11yaudit/scraper"
	"github.com/use-agent/a11yaudit/snapshot"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (default: 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := appCfg
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.Info("a11yaudit starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxConcurrent", cfg.Browser.MaxConcurrent,
	)
	if cfg.Auth.Enabled && len(cfg.Auth.APIKeys) == 0 {
		slog.Warn("auth is enabled but no API keys are configured; every protected request will be rejected")
	}

	// ── 1. Shared services ──
	ctx := cmd.Context()
	scripts := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	loader := scriptLoader(cfg, scripts)
	fetcher := scraper.NewHTTPFetcher(cfg.Browser.DefaultProxy, cfg.Discovery.RequestTimeout)
	defer fetcher.CloseIdleConnections()

	m := metrics.New()
	svc := api.Services{
		Runner:     pipeline.NewRunner(m),
		Axe:        newAxeEngine(cfg, loader),
		HTMLCS:     newHTMLCSEngine(cfg, loader),
		Discoverer: discovery.New(fetcher, cfg.Discovery.MaxURLs),
		Render:     snapshot.RodRenderer(cfg.Browser),
		LLM:        llm.NewClient(nil),
		Metrics:    m,
	}

	// ── 2. Router ──
	router := api.NewRouter(ctx, svc, cfg, time.Now())

	// ── 3. Start HTTP server ──
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// ── 4. Graceful shutdown ──
	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give in-flight audits 5 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("a11yaudit stopped")
	return nil
}
