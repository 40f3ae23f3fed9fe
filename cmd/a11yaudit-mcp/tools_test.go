package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/a11yaudit/models"
)

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

// fakeAPI records the last request body and answers with resp.
func fakeAPI(t *testing.T, path string, status int, resp interface{}, got interface{}) *apiClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, path, r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return newAPIClient(srv.URL+"/", "secret")
}

func TestAuditAxe_FormatsViolations(t *testing.T) {
	impact := "critical"
	var sent models.AxeAuditRequest
	api := fakeAPI(t, "/api/v1/audit/axe", http.StatusOK, models.AxeAuditResponse{
		Success: true,
		Report: &models.AxeReport{
			URL: "https://example.com",
			Violations: []models.ViolationRecord{{
				Rule: "image-alt", Impact: &impact, Help: "Images must have alternate text",
				HTML: `<img src="a.png">`, Selector: "img", FailureSummary: "Fix any of the following",
			}},
		},
		Timing: models.TimingInfo{TotalMs: 42},
	}, &sent)

	res, err := handleAuditAxe(api)(context.Background(), callTool("audit_axe", map[string]interface{}{
		"url":       "https://example.com",
		"rule_tags": []interface{}{"wcag2a"},
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	assert.Equal(t, "https://example.com", sent.URL)
	assert.Equal(t, []string{"wcag2a"}, sent.RuleTags)

	text := resultText(t, res)
	assert.Contains(t, text, "1 violations (42 ms)")
	assert.Contains(t, text, "image-alt (critical)")
	assert.Contains(t, text, "Selector: img")
}

func TestAuditAxe_MissingURL(t *testing.T) {
	res, err := handleAuditAxe(newAPIClient("http://unused", "secret"))(context.Background(), callTool("audit_axe", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "url is required", resultText(t, res))
}

func TestAuditHTMLCS_PassesFiltersAndReportsErrors(t *testing.T) {
	var sent models.HTMLCSAuditRequest
	api := fakeAPI(t, "/api/v1/audit/htmlcs", http.StatusBadGateway, models.HTMLCSAuditResponse{
		Success: false,
		Error:   &models.ErrorDetail{Code: models.ErrCodeAuditEngine, Message: "navigation timed out"},
	}, &sent)

	res, err := handleAuditHTMLCS(api)(context.Background(), callTool("audit_htmlcs", map[string]interface{}{
		"url":             "https://example.com",
		"standard":        "WCAG2AA",
		"include_notices": false,
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "[AUDIT_ENGINE_FAILED] navigation timed out", resultText(t, res))

	assert.Equal(t, "WCAG2AA", sent.Standard)
	assert.Nil(t, sent.IncludeWarnings)
	require.NotNil(t, sent.IncludeNotices)
	assert.False(t, *sent.IncludeNotices)
}

func TestDiscoverSite(t *testing.T) {
	api := fakeAPI(t, "/api/v1/discover", http.StatusOK, models.DiscoverResponse{
		Success: true,
		Site:    &models.SiteURLs{Source: "sitemap", URLs: []string{"https://example.com/", "https://example.com/about"}},
		Total:   2,
	}, nil)

	res, err := handleDiscoverSite(api)(context.Background(), callTool("discover_site", map[string]interface{}{
		"url": "https://example.com/",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Found 2 URLs (from sitemap):\n\nhttps://example.com/\nhttps://example.com/about\n", resultText(t, res))
}

func TestSnapshotSelectors_SortedOutput(t *testing.T) {
	api := fakeAPI(t, "/api/v1/snapshot", http.StatusOK, models.SnapshotResponse{
		Success:  true,
		Elements: map[string]string{"img": `<img src="a.png"/>`, "#nav": "element not found"},
	}, nil)

	res, err := handleSnapshot(api)(context.Background(), callTool("snapshot_selectors", map[string]interface{}{
		"url":       "https://example.com/",
		"selectors": []interface{}{"img", "#nav"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "--- #nav ---\nelement not found\n\n--- img ---\n<img src=\"a.png\"/>\n\n", resultText(t, res))
}

func TestSuggestFix(t *testing.T) {
	var sent models.FixRequest
	api := fakeAPI(t, "/api/v1/fix", http.StatusOK, models.FixResponse{
		Success:   true,
		FixedHTML: `<img src="a.png" alt="Company logo">`,
	}, &sent)

	res, err := handleSuggestFix(api)(context.Background(), callTool("suggest_fix", map[string]interface{}{
		"rule":      "image-alt",
		"html":      `<img src="a.png">`,
		"llm_model": "gpt-4o-mini",
	}))
	require.NoError(t, err)
	assert.Equal(t, `<img src="a.png" alt="Company logo">`, resultText(t, res))
	assert.Equal(t, "gpt-4o-mini", sent.LLMModel)
	assert.Empty(t, sent.LLMAPIKey)
}
