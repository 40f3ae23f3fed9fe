// Command a11yaudit-mcp exposes the a11yaudit HTTP API as MCP tools over
// stdio.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	_ = godotenv.Load()

	apiURL := os.Getenv("A11Y_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("A11Y_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "A11Y_API_KEY is required")
		os.Exit(1)
	}

	if err := server.ServeStdio(newServer(newAPIClient(apiURL, apiKey))); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(api *apiClient) *server.MCPServer {
	s := server.NewMCPServer(
		"a11yaudit",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	auditAxeTool := mcp.NewTool("audit_axe",
		mcp.WithDescription("Audit a web page with axe-core in a headless browser. Returns one entry per failing element with the rule, impact, selector and failure summary."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the page to audit"),
		),
		mcp.WithArray("rule_tags",
			mcp.Description("axe rule tags to run (default: wcag2a, wcag2aa, wcag2aaa)"),
			mcp.WithStringItems(),
		),
	)
	s.AddTool(auditAxeTool, handleAuditAxe(api))

	auditHTMLCSTool := mcp.NewTool("audit_htmlcs",
		mcp.WithDescription("Audit a web page with HTML_CodeSniffer. Returns errors, warnings and notices with their sniff code, selector and context."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the page to audit"),
		),
		mcp.WithString("standard",
			mcp.Description("Conformance standard (default: WCAG2AAA)"),
			mcp.Enum("WCAG2A", "WCAG2AA", "WCAG2AAA"),
		),
		mcp.WithBoolean("include_warnings",
			mcp.Description("Report warnings (default: true)"),
		),
		mcp.WithBoolean("include_notices",
			mcp.Description("Report notices (default: true)"),
		),
	)
	s.AddTool(auditHTMLCSTool, handleAuditHTMLCS(api))

	discoverTool := mcp.NewTool("discover_site",
		mcp.WithDescription("List the pages of a website from robots.txt and its sitemaps, falling back to the homepage links."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The homepage of the site"),
		),
	)
	s.AddTool(discoverTool, handleDiscoverSite(api))

	snapshotTool := mcp.NewTool("snapshot_selectors",
		mcp.WithDescription("Render a page and return the outer HTML of the first element matched by each CSS selector."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the page to render"),
		),
		mcp.WithArray("selectors",
			mcp.Required(),
			mcp.Description("CSS selectors to resolve"),
			mcp.WithStringItems(),
		),
	)
	s.AddTool(snapshotTool, handleSnapshot(api))

	fixTool := mcp.NewTool("suggest_fix",
		mcp.WithDescription("Ask an LLM for an accessible version of an HTML element that fails a rule. Returns only the corrected markup."),
		mcp.WithString("rule",
			mcp.Required(),
			mcp.Description("The violated rule id or sniff code"),
		),
		mcp.WithString("html",
			mcp.Required(),
			mcp.Description("The offending element's markup"),
		),
		mcp.WithString("message",
			mcp.Description("Description of the violation"),
		),
		mcp.WithString("llm_api_key",
			mcp.Description("API key for the LLM service (default: the server's key)"),
		),
		mcp.WithString("llm_model",
			mcp.Description("LLM model to use (default: 'gpt-4o')"),
		),
		mcp.WithString("llm_base_url",
			mcp.Description("Base URL for the LLM API. Supports any OpenAI-compatible API."),
		),
	)
	s.AddTool(fixTool, handleSuggestFix(api))

	return s
}
