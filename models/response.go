package models

import "encoding/json"

// AxeAuditResponse is the response for POST /api/v1/audit/axe.
type AxeAuditResponse struct {
	Success bool         `json:"success"`
	RunID   string       `json:"run_id,omitempty"`
	Report  *AxeReport   `json:"report,omitempty"`
	Timing  TimingInfo   `json:"timing"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// HTMLCSAuditResponse is the response for POST /api/v1/audit/htmlcs.
type HTMLCSAuditResponse struct {
	Success bool   `json:"success"`
	RunID   string `json:"run_id,omitempty"`

	// Raw is the engine result exactly as the page returned it.
	Raw    json.RawMessage `json:"raw,omitempty"`
	Issues []IssueRecord   `json:"issues,omitempty"`
	Timing TimingInfo      `json:"timing"`
	Error  *ErrorDetail    `json:"error,omitempty"`
}

// DiscoverResponse is the response for POST /api/v1/discover.
type DiscoverResponse struct {
	Success bool         `json:"success"`
	Site    *SiteURLs    `json:"site,omitempty"`
	Total   int          `json:"total"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// SnapshotResponse is the response for POST /api/v1/snapshot.
type SnapshotResponse struct {
	Success  bool              `json:"success"`
	Elements map[string]string `json:"elements,omitempty"`
	Error    *ErrorDetail      `json:"error,omitempty"`
}

// FixResponse is the response for POST /api/v1/fix.
type FixResponse struct {
	Success   bool         `json:"success"`
	FixedHTML string       `json:"fixed_html,omitempty"`
	Usage     *LLMUsage    `json:"usage,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

// LLMUsage reports token consumption of one completion.
type LLMUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// TimingInfo breaks down the time spent in an audit.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string `json:"status"` // "healthy" or "degraded"
	Uptime       string `json:"uptime"`
	ActiveAudits int    `json:"active_audits"`
	MaxAudits    int    `json:"max_audits"`
	Version      string `json:"version"`
}

// ErrorResponse is the body of requests rejected before reaching a handler.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
