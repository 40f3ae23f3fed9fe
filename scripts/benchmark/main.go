// Command benchmark times both audit engines against a running a11yaudit
// server across a fixed set of sites.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/a11yaudit/models"
	"github.com/use-agent/a11yaudit/report"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "a11yaudit API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per URL and engine for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test URLs covering 5 site types.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Static", "https://example.com"},
	{"Blog", "https://go.dev/blog/go1.21"},
	{"Docs", "https://go.dev/doc/effective_go"},
	{"News", "https://www.bbc.com/news"},
	{"Complex", "https://github.com/go-rod/rod"},
}

var engines = []string{"axe", "htmlcs"}

// --- Benchmark result types ---

type runResult struct {
	Run      int    `json:"run"`
	TotalMs  int64  `json:"total_ms"`
	Findings int    `json:"findings"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

type averages struct {
	TotalMs     float64 `json:"total_ms"`
	Findings    float64 `json:"findings"`
	SuccessRate float64 `json:"success_rate"`
}

type engineResult struct {
	URL      string      `json:"url"`
	Label    string      `json:"label"`
	Engine   string      `json:"engine"`
	Runs     []runResult `json:"runs"`
	Averages *averages   `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string         `json:"timestamp"`
	APIURL     string         `json:"api_url"`
	RunsPerURL int            `json:"runs_per_url"`
	Results    []engineResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== a11yaudit Benchmark Suite ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure the server is running (a11yaudit serve)\n")
		os.Exit(1)
	}

	rep := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	client := &http.Client{Timeout: 180 * time.Second}
	for _, t := range testURLs {
		for _, eng := range engines {
			fmt.Printf("Benchmarking [%s/%s] %s ...\n", t.Label, eng, t.URL)
			er := engineResult{URL: t.URL, Label: t.Label, Engine: eng}

			for i := 1; i <= *runs; i++ {
				fmt.Printf("  Run %d/%d ... ", i, *runs)
				rr := auditOnce(client, eng, t.URL, i)
				if rr.Success {
					fmt.Printf("OK  %dms  %d findings\n", rr.TotalMs, rr.Findings)
				} else {
					fmt.Printf("FAILED: %s\n", rr.Error)
				}
				er.Runs = append(er.Runs, rr)
			}

			er.Averages = computeAverages(er.Runs)
			rep.Results = append(rep.Results, er)
			fmt.Println()
		}
	}

	printTable(rep.Results)

	if err := report.WriteJSON(*output, rep); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func auditOnce(client *http.Client, eng, url string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/audit/"+eng, bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("X-API-Key", *apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var detail *models.ErrorDetail
	switch eng {
	case "axe":
		var ar models.AxeAuditResponse
		if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
			rr.Error = fmt.Sprintf("decode error: %v", err)
			return rr
		}
		rr.Success, rr.TotalMs, detail = ar.Success, ar.Timing.TotalMs, ar.Error
		if ar.Report != nil {
			rr.Findings = len(ar.Report.Violations)
		}
	default:
		var hr models.HTMLCSAuditResponse
		if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
			rr.Error = fmt.Sprintf("decode error: %v", err)
			return rr
		}
		rr.Success, rr.TotalMs, detail = hr.Success, hr.Timing.TotalMs, hr.Error
		rr.Findings = len(hr.Issues)
	}

	if detail != nil {
		rr.Error = fmt.Sprintf("[%s] %s", detail.Code, detail.Message)
	}
	return rr
}

func computeAverages(runs []runResult) *averages {
	var successCount int
	var avg averages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.TotalMs += float64(r.TotalMs)
		avg.Findings += float64(r.Findings)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.Findings /= n
	avg.SuccessRate = n / float64(len(runs))
	return &avg
}

func printTable(results []engineResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tEngine\tAvg Latency\tAvg Findings\tSuccess\n")
	fmt.Fprintf(w, "───\t──────\t───────────\t────────────\t───────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\t%s\tFAILED\t-\t0%%\n", truncateURL(r.URL, 40), r.Engine)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%dms\t%.1f\t%.0f%%\n",
			truncateURL(r.URL, 40),
			r.Engine,
			int64(r.Averages.TotalMs),
			r.Averages.Findings,
			r.Averages.SuccessRate*100,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}
