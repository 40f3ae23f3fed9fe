package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/a11yaudit/pipeline"
	"github.com/use-agent/a11yaudit/webhook"
)

var axeCmd = &cobra.Command{
	Use:   "axe",
	Short: "Audit a page with axe-core",
	Long:  "Loads the page in a headless browser, injects axe-core, runs the configured WCAG rule tags and writes the flattened violations to a JSON report.",
	RunE:  runAxe,
}

var (
	axeOut  string
	axeTags []string
)

func init() {
	axeCmd.Flags().StringVarP(&axeOut, "out", "o", "", "Report path (default: axe_report.json)")
	axeCmd.Flags().StringSliceVar(&axeTags, "tags", nil, "Rule tags to run (default: wcag2a,wcag2aa,wcag2aaa)")
	rootCmd.AddCommand(axeCmd)
}

func runAxe(cmd *cobra.Command, _ []string) error {
	cfg := appCfg
	if cmd.Flags().Changed("out") {
		cfg.Axe.OutputPath = axeOut
	}
	if cmd.Flags().Changed("tags") {
		cfg.Axe.RuleTags = axeTags
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireTarget(); err != nil {
		return err
	}

	ctx := cmd.Context()
	runID := newRunID()
	slog.Info("axe audit starting", "run_id", runID, "url", cfg.Target.URL, "tags", cfg.Axe.RuleTags)

	eng := newAxeEngine(cfg, scriptLoader(cfg, nil))
	rep, err := pipeline.NewRunner(nil).RunAxe(ctx, eng, cfg.Target.URL, cfg.Axe.OutputPath, os.Stdout)

	summary := webhook.AuditSummary{URL: cfg.Target.URL, Engine: eng.Name(), OutputPath: cfg.Axe.OutputPath}
	if rep != nil {
		summary.Findings = len(rep.Violations)
	}
	notify(ctx, cfg, runID, summary, err)
	return err
}
