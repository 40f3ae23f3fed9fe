package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/a11yaudit/models"
)

// apiClient calls the a11yaudit HTTP API.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newAPIClient(baseURL, apiKey string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		// Audits launch a browser and can take a while.
		http: &http.Client{Timeout: 180 * time.Second},
	}
}

// post sends payload to path and decodes the JSON response into out.
func (c *apiClient) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response (HTTP %d): %w", resp.StatusCode, err)
	}
	return nil
}

func errorResult(fallback string, detail *models.ErrorDetail) *mcp.CallToolResult {
	if detail == nil {
		return mcp.NewToolResultError(fallback)
	}
	return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", detail.Code, detail.Message))
}

func handleAuditAxe(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := models.AxeAuditRequest{
			URL:      url,
			RuleTags: request.GetStringSlice("rule_tags", nil),
		}

		var resp models.AxeAuditResponse
		if err := api.post(ctx, "/api/v1/audit/axe", payload, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success || resp.Report == nil {
			return errorResult("axe audit failed", resp.Error), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "axe audit of %s: %d violations (%d ms)\n\n", resp.Report.URL, len(resp.Report.Violations), resp.Timing.TotalMs)
		for i, v := range resp.Report.Violations {
			impact := "none"
			if v.Impact != nil {
				impact = *v.Impact
			}
			fmt.Fprintf(&sb, "--- [%d] %s (%s) ---\n", i+1, v.Rule, impact)
			fmt.Fprintf(&sb, "Selector: %s\nHelp: %s\nHTML: %s\n%s\n\n", v.Selector, v.Help, v.HTML, v.FailureSummary)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleAuditHTMLCS(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := models.HTMLCSAuditRequest{
			URL:      url,
			Standard: request.GetString("standard", ""),
		}
		args := request.GetArguments()
		if _, ok := args["include_warnings"]; ok {
			v := request.GetBool("include_warnings", true)
			payload.IncludeWarnings = &v
		}
		if _, ok := args["include_notices"]; ok {
			v := request.GetBool("include_notices", true)
			payload.IncludeNotices = &v
		}

		var resp models.HTMLCSAuditResponse
		if err := api.post(ctx, "/api/v1/audit/htmlcs", payload, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return errorResult("HTML_CodeSniffer audit failed", resp.Error), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "HTML_CodeSniffer audit of %s: %d issues (%d ms)\n\n", url, len(resp.Issues), resp.Timing.TotalMs)
		for i, issue := range resp.Issues {
			fmt.Fprintf(&sb, "--- [%d] %s: %s ---\n", i+1, issue.Type, issue.Code)
			fmt.Fprintf(&sb, "Selector: %s\n%s\n", issue.Selector, issue.Message)
			if issue.Context != nil {
				fmt.Fprintf(&sb, "Context: %s\n", *issue.Context)
			}
			sb.WriteString("\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleDiscoverSite(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		var resp models.DiscoverResponse
		if err := api.post(ctx, "/api/v1/discover", models.DiscoverRequest{URL: url}, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success || resp.Site == nil {
			return errorResult("discovery failed", resp.Error), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Found %d URLs (from %s):\n\n", resp.Total, resp.Site.Source)
		for _, u := range resp.Site.URLs {
			sb.WriteString(u + "\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleSnapshot(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		selectors, err := request.RequireStringSlice("selectors")
		if err != nil || len(selectors) == 0 {
			return mcp.NewToolResultError("selectors is required and must be an array of strings"), nil
		}

		var resp models.SnapshotResponse
		if err := api.post(ctx, "/api/v1/snapshot", models.SnapshotRequest{URL: url, Selectors: selectors}, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return errorResult("snapshot failed", resp.Error), nil
		}

		keys := make([]string, 0, len(resp.Elements))
		for k := range resp.Elements {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sb strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&sb, "--- %s ---\n%s\n\n", k, resp.Elements[k])
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleSuggestFix(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rule, err := request.RequireString("rule")
		if err != nil {
			return mcp.NewToolResultError("rule is required"), nil
		}
		markup, err := request.RequireString("html")
		if err != nil {
			return mcp.NewToolResultError("html is required"), nil
		}

		payload := models.FixRequest{
			Rule:       rule,
			HTML:       markup,
			Message:    request.GetString("message", ""),
			LLMAPIKey:  request.GetString("llm_api_key", ""),
			LLMModel:   request.GetString("llm_model", ""),
			LLMBaseURL: request.GetString("llm_base_url", ""),
		}

		var resp models.FixResponse
		if err := api.post(ctx, "/api/v1/fix", payload, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return errorResult("fix suggestion failed", resp.Error), nil
		}
		return mcp.NewToolResultText(resp.FixedHTML), nil
	}
}
