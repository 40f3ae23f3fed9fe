// Package main is the a11yaudit command line: one-shot accessibility audits
// with axe-core or HTML_CodeSniffer, site discovery, reporting and the
// HTTP API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/use-agent/a11yaudit/config"
)

var (
	configPath string
	targetURL  string
	logLevel   string
	logFormat  string

	// appCfg is built once in PersistentPreRunE and read by every command.
	appCfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "a11yaudit",
	Short:         "Accessibility audits for web pages",
	Long:          "a11yaudit runs axe-core or HTML_CodeSniffer against a page in a headless browser and writes the findings as JSON.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		initLogger(cfg.Log, os.Stderr)
		appCfg = cfg
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", os.Getenv("A11Y_CONFIG"), "YAML config file (overrides environment)")
	pf.StringVarP(&targetURL, "url", "u", "", "Page to audit (overrides A11Y_TARGET_URL)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json")
}

// loadConfig layers environment, the optional YAML file and global flags,
// then validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.Target.URL = targetURL
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
