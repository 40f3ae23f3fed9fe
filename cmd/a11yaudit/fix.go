package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/a11yaudit/config"
	"github.com/use-agent/a11yaudit/llm"
)

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Ask the LLM for an accessible version of an element",
	RunE:  runFix,
}

var (
	fixRule     string
	fixMessage  string
	fixHTML     string
	fixHTMLFile string
)

func init() {
	f := fixCmd.Flags()
	f.StringVar(&fixRule, "rule", "", "Violated rule id, e.g. image-alt")
	f.StringVar(&fixMessage, "message", "", "Violation description")
	f.StringVar(&fixHTML, "html", "", "Offending element markup")
	f.StringVar(&fixHTMLFile, "html-file", "", "Read the element markup from a file")
	_ = fixCmd.MarkFlagRequired("rule")
	rootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, _ []string) error {
	markup := fixHTML
	if fixHTMLFile != "" {
		data, err := os.ReadFile(fixHTMLFile)
		if err != nil {
			return err
		}
		markup = string(data)
	}
	if markup == "" {
		return fmt.Errorf("one of --html or --html-file is required")
	}

	res, err := llm.NewClient(nil).SuggestFix(cmd.Context(), llm.Finding{
		Rule:    fixRule,
		Message: fixMessage,
		HTML:    markup,
	}, llmParams(appCfg.LLM))
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, res.FixedHTML)
	return nil
}

func llmParams(cfg config.LLMConfig) llm.Params {
	return llm.Params{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}
