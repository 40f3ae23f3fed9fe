package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/a11yaudit/discovery"
	"github.com/use-agent/a11yaudit/report"
	"github.com/use-agent/a11yaudit/scraper"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List a site's pages from its sitemaps",
	Long:  "Reads robots.txt and the sitemaps it names (falling back to /sitemap.xml and then to the homepage links) and writes the de-duplicated URL list.",
	RunE:  runDiscover,
}

var (
	discoverOut     string
	discoverMaxURLs int
)

func init() {
	discoverCmd.Flags().StringVarP(&discoverOut, "out", "o", "", "Output path (default: site_urls.json)")
	discoverCmd.Flags().IntVar(&discoverMaxURLs, "max-urls", 0, "Cap on the number of URLs (default: 5000)")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	cfg := appCfg
	if cmd.Flags().Changed("out") {
		cfg.Discovery.OutputPath = discoverOut
	}
	if cmd.Flags().Changed("max-urls") {
		cfg.Discovery.MaxURLs = discoverMaxURLs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireTarget(); err != nil {
		return err
	}

	fetcher := scraper.NewHTTPFetcher(cfg.Browser.DefaultProxy, cfg.Discovery.RequestTimeout)
	defer fetcher.CloseIdleConnections()

	site, err := discovery.New(fetcher, cfg.Discovery.MaxURLs).Discover(cmd.Context(), cfg.Target.URL)
	if err != nil {
		return err
	}
	slog.Info("discovery finished", "url", cfg.Target.URL, "source", site.Source, "urls", len(site.URLs))

	if cfg.Discovery.OutputPath == "-" {
		return report.Encode(os.Stdout, site)
	}
	return report.WriteJSON(cfg.Discovery.OutputPath, site)
}
