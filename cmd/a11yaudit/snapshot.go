package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/use-agent/a11yaudit/report"
	"github.com/use-agent/a11yaudit/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [selector...]",
	Short: "Print the markup matched by CSS selectors",
	Long:  "Renders the target page once and prints a JSON object mapping each selector to the outer HTML of the first element it matches.",
	RunE:  runSnapshot,
}

var snapshotSelectorsFile string

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotSelectorsFile, "selectors-file", "f", "", "File with one selector per line")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	if err := cfg.RequireTarget(); err != nil {
		return err
	}

	selectors := append([]string{}, args...)
	if snapshotSelectorsFile != "" {
		fromFile, err := readLines(snapshotSelectorsFile)
		if err != nil {
			return err
		}
		selectors = append(selectors, fromFile...)
	}
	if len(selectors) == 0 {
		return fmt.Errorf("no selectors given")
	}

	out, err := snapshot.Take(cmd.Context(), snapshot.RodRenderer(cfg.Browser), cfg.Target.URL, selectors)
	if err != nil {
		return err
	}
	return report.Encode(os.Stdout, out)
}

// readLines returns the non-blank lines of path.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
