package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/a11yaudit/llm"
	"github.com/use-agent/a11yaudit/models"
	"github.com/use-agent/a11yaudit/report"
	"github.com/use-agent/a11yaudit/snapshot"
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Merge both engines' reports into one issue list",
	Long: `Reads axe_report.json and pa11y_output.json, normalizes their findings and
writes accessibility_issues_<host>.json. With --snapshot the page is rendered
once to attach each element's markup; with --fix every located element is
sent to the LLM for a corrected version.`,
	RunE: runCombine,
}

var (
	combineAxePath    string
	combineHTMLCSPath string
	combineOut        string
	combineSnapshot   bool
	combineFix        bool
)

func init() {
	f := combineCmd.Flags()
	f.StringVar(&combineAxePath, "axe", "", "axe report path (default: the axe output path)")
	f.StringVar(&combineHTMLCSPath, "htmlcs", "", "HTML_CodeSniffer raw result path (default: the htmlcs output path)")
	f.StringVarP(&combineOut, "out", "o", "", "Output path (default: accessibility_issues_<host>.json)")
	f.BoolVar(&combineSnapshot, "snapshot", false, "Render the page and attach each element's markup")
	f.BoolVar(&combineFix, "fix", false, "Suggest a fix for every located element (implies --snapshot)")
	rootCmd.AddCommand(combineCmd)
}

// fixFunc returns corrected markup for one issue.
type fixFunc func(ctx context.Context, issue models.CombinedIssue) (string, error)

type combineOptions struct {
	AxePath    string
	HTMLCSPath string
	OutPath    string
	PageURL    string

	// Render is set when element markup should be attached.
	Render snapshot.Renderer

	// Fix is set when fixes should be requested. Requires Render.
	Fix fixFunc
}

func runCombine(cmd *cobra.Command, _ []string) error {
	cfg := appCfg
	opts := combineOptions{
		AxePath:    firstNonEmpty(combineAxePath, cfg.Axe.OutputPath),
		HTMLCSPath: firstNonEmpty(combineHTMLCSPath, cfg.HTMLCS.OutputPath),
		OutPath:    combineOut,
		PageURL:    cfg.Target.URL,
	}
	if combineSnapshot || combineFix {
		opts.Render = snapshot.RodRenderer(cfg.Browser)
	}
	if combineFix {
		client := llm.NewClient(nil)
		params := llmParams(cfg.LLM)
		opts.Fix = func(ctx context.Context, issue models.CombinedIssue) (string, error) {
			res, err := client.SuggestFix(ctx, llm.Finding{
				Rule:    issue.Rule,
				Message: issue.Message,
				HTML:    *issue.MatchedHTML,
			}, params)
			if err != nil {
				return "", err
			}
			return res.FixedHTML, nil
		}
	}

	issues, outPath, err := combineReports(cmd.Context(), opts)
	if err != nil {
		return err
	}
	slog.Info("combined report written", "path", outPath, "issues", len(issues))
	return nil
}

// combineReports loads both reports, merges them, optionally enriches the
// result and writes it. It returns the issues and the path written.
func combineReports(ctx context.Context, opts combineOptions) ([]models.CombinedIssue, string, error) {
	// ── 1. Load whichever reports exist ──
	axe, err := loadAxeReport(opts.AxePath)
	if err != nil {
		return nil, "", err
	}
	htmlcs, err := loadHTMLCSResults(opts.HTMLCSPath)
	if err != nil {
		return nil, "", err
	}
	if axe == nil && htmlcs == nil {
		return nil, "", models.NewAuditError(models.ErrCodeIO,
			fmt.Sprintf("neither %s nor %s exists", opts.AxePath, opts.HTMLCSPath), nil)
	}

	pageURL := opts.PageURL
	if pageURL == "" && axe != nil {
		pageURL = axe.URL
	}
	if pageURL == "" && htmlcs != nil {
		pageURL = htmlcs.PageURL
	}

	// ── 2. Normalize ──
	issues := report.Combine(axe, htmlcs)

	// ── 3. Attach element markup ──
	if opts.Render != nil && len(issues) > 0 {
		snaps, err := snapshot.Take(ctx, opts.Render, pageURL, report.Selectors(issues))
		if err != nil {
			// The report is still useful without markup; every element
			// reads as not found.
			slog.Warn("snapshot failed, continuing without element markup", "url", pageURL, "error", err)
			snaps = nil
		}
		report.AttachSnapshots(issues, snaps)
	}

	// ── 4. Suggest fixes ──
	if opts.Fix != nil {
		suggestFixes(ctx, issues, opts.Fix)
	}

	// ── 5. Write ──
	outPath := opts.OutPath
	if outPath == "" {
		outPath = report.CombinedFileName(pageURL)
	}
	if err := report.WriteJSON(outPath, issues); err != nil {
		return nil, "", err
	}
	return issues, outPath, nil
}

// suggestFixes fills fixed_html for issues whose element was located. A
// failed suggestion is logged and leaves that issue's fixed_html null.
func suggestFixes(ctx context.Context, issues []models.CombinedIssue, fix fixFunc) {
	for idx := range issues {
		issue := issues[idx]
		if !located(issue.MatchedHTML) {
			continue
		}
		fixed, err := fix(ctx, issue)
		if err != nil {
			slog.Warn("fix suggestion failed", "rule", issue.Rule, "selector", issue.Selector, "error", err)
			continue
		}
		issues[idx].FixedHTML = &fixed
	}
}

// located reports whether matched holds element markup, as opposed to a
// not-found marker or a selector error note.
func located(matched *string) bool {
	if matched == nil {
		return false
	}
	switch m := *matched; {
	case m == report.NotFound, m == snapshot.NotFound, snapshot.IsError(m):
		return false
	default:
		return true
	}
}

func loadAxeReport(path string) (*models.AxeReport, error) {
	data, err := readOptional(path)
	if err != nil || data == nil {
		return nil, err
	}
	var rep models.AxeReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, models.NewAuditError(models.ErrCodeMalformedResult, fmt.Sprintf("%s is not an axe report", path), err)
	}
	return &rep, nil
}

func loadHTMLCSResults(path string) (*models.HTMLCSResults, error) {
	data, err := readOptional(path)
	if err != nil || data == nil {
		return nil, err
	}
	return report.DecodeHTMLCSResults(data)
}

// readOptional returns nil data when path does not exist.
func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("report not found, skipping", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, models.NewAuditError(models.ErrCodeIO, fmt.Sprintf("failed to read %s", path), err)
	}
	return data, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
