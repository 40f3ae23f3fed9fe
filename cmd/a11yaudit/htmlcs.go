package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/a11yaudit/pipeline"
	"github.com/use-agent/a11yaudit/webhook"
)

var htmlcsCmd = &cobra.Command{
	Use:     "htmlcs",
	Aliases: []string{"pa11y"},
	Short:   "Audit a page with HTML_CodeSniffer",
	Long:    "Runs HTML_CodeSniffer against the page in a self-managed browser, writes the raw result to a JSON file and prints the simplified issue list.",
	RunE:    runHTMLCS,
}

var (
	htmlcsOut             string
	htmlcsStandard        string
	htmlcsIncludeWarnings bool
	htmlcsIncludeNotices  bool
	htmlcsBrowserArgs     []string
)

func init() {
	f := htmlcsCmd.Flags()
	f.StringVarP(&htmlcsOut, "out", "o", "", "Raw result path (default: pa11y_output.json)")
	f.StringVar(&htmlcsStandard, "standard", "", "WCAG2A, WCAG2AA or WCAG2AAA (default: WCAG2AAA)")
	f.BoolVar(&htmlcsIncludeWarnings, "include-warnings", true, "Report warnings")
	f.BoolVar(&htmlcsIncludeNotices, "include-notices", true, "Report notices")
	f.StringSliceVar(&htmlcsBrowserArgs, "browser-arg", nil, "Browser launch switch, repeatable (default: --no-sandbox,--disable-setuid-sandbox)")
	rootCmd.AddCommand(htmlcsCmd)
}

func runHTMLCS(cmd *cobra.Command, _ []string) error {
	cfg := appCfg
	f := cmd.Flags()
	if f.Changed("out") {
		cfg.HTMLCS.OutputPath = htmlcsOut
	}
	if f.Changed("standard") {
		cfg.HTMLCS.Standard = htmlcsStandard
	}
	if f.Changed("include-warnings") {
		cfg.HTMLCS.IncludeWarnings = htmlcsIncludeWarnings
	}
	if f.Changed("include-notices") {
		cfg.HTMLCS.IncludeNotices = htmlcsIncludeNotices
	}
	if f.Changed("browser-arg") {
		cfg.HTMLCS.BrowserArgs = htmlcsBrowserArgs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireTarget(); err != nil {
		return err
	}

	ctx := cmd.Context()
	runID := newRunID()
	slog.Info("htmlcs audit starting", "run_id", runID, "url", cfg.Target.URL, "standard", cfg.HTMLCS.Standard)

	eng := newHTMLCSEngine(cfg, scriptLoader(cfg, nil))
	run, err := pipeline.NewRunner(nil).RunHTMLCS(ctx, eng, cfg.Target.URL, cfg.HTMLCS.OutputPath, os.Stdout)

	summary := webhook.AuditSummary{URL: cfg.Target.URL, Engine: eng.Name(), OutputPath: cfg.HTMLCS.OutputPath}
	if run != nil {
		summary.Findings = len(run.Issues)
	}
	notify(ctx, cfg, runID, summary, err)
	return err
}
