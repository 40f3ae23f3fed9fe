package models

// AxeAuditRequest is the payload for POST /api/v1/audit/axe.
type AxeAuditRequest struct {
	// URL is the page to audit. Required.
	URL string `json:"url" binding:"required,url"`

	// RuleTags restricts the run to rules carrying one of these tags.
	// Default: the server's configured tags (wcag2a, wcag2aa, wcag2aaa).
	RuleTags []string `json:"rule_tags,omitempty" binding:"omitempty,dive,required"`
}

// HTMLCSAuditRequest is the payload for POST /api/v1/audit/htmlcs.
type HTMLCSAuditRequest struct {
	// URL is the page to audit. Required.
	URL string `json:"url" binding:"required,url"`

	// Standard is the conformance standard to sniff against.
	// Default: the server's configured standard (WCAG2AAA).
	Standard string `json:"standard,omitempty" binding:"omitempty,oneof=WCAG2A WCAG2AA WCAG2AAA"`

	// IncludeWarnings and IncludeNotices default to the server configuration.
	IncludeWarnings *bool `json:"include_warnings,omitempty"`
	IncludeNotices  *bool `json:"include_notices,omitempty"`
}

// DiscoverRequest is the payload for POST /api/v1/discover.
type DiscoverRequest struct {
	// URL is the homepage of the site. Required.
	URL string `json:"url" binding:"required,url"`
}

// SnapshotRequest is the payload for POST /api/v1/snapshot.
type SnapshotRequest struct {
	URL       string   `json:"url" binding:"required,url"`
	Selectors []string `json:"selectors" binding:"required,min=1,dive,required"`
}

// FixRequest is the payload for POST /api/v1/fix.
type FixRequest struct {
	// Rule is the violated rule or sniff code. Required.
	Rule string `json:"rule" binding:"required"`

	// Message describes the violation.
	Message string `json:"message"`

	// HTML is the offending markup. Required.
	HTML string `json:"html" binding:"required"`

	// LLMAPIKey overrides the server's configured key (BYOK).
	LLMAPIKey string `json:"llm_api_key,omitempty"`

	// LLMModel overrides the configured model. Default: "gpt-4o".
	LLMModel string `json:"llm_model,omitempty"`

	// LLMBaseURL overrides the configured base URL.
	// Supports any OpenAI-compatible API.
	LLMBaseURL string `json:"llm_base_url,omitempty" binding:"omitempty,url"`
}
