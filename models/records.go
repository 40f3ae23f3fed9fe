package models

// ViolationRecord is one flattened (rule, affected element) pair from an
// axe-core run.
type ViolationRecord struct {
	Rule           string  `json:"rule"`
	Impact         *string `json:"impact"`
	Help           string  `json:"help"`
	HelpURL        string  `json:"helpUrl"`
	HTML           string  `json:"html"`
	Selector       string  `json:"selector"`
	FailureSummary string  `json:"failureSummary"`
}

// AxeReport is the envelope persisted to axe_report.json.
type AxeReport struct {
	URL        string            `json:"url"`
	Violations []ViolationRecord `json:"violations"`
}

// IssueRecord is the simplified view of one HTML_CodeSniffer issue.
type IssueRecord struct {
	Code     string  `json:"code"`
	Message  string  `json:"message"`
	Selector string  `json:"selector"`
	Context  *string `json:"context"`
	Type     string  `json:"type"`
}

// CombinedIssue is a normalized finding from either engine, enriched with
// the element markup and an optional suggested fix.
type CombinedIssue struct {
	Source         string  `json:"source"` // "axe" or "htmlcs"
	Rule           string  `json:"rule"`
	Impact         string  `json:"impact"`
	Selector       string  `json:"selector"`
	Message        string  `json:"message"`
	FailureSummary *string `json:"failure_summary"`
	MatchedHTML    *string `json:"matched_html"`
	FixedHTML      *string `json:"fixed_html"`
}

// SiteURLs is the result of URL discovery for a site.
type SiteURLs struct {
	// Source is "sitemap" when sitemaps yielded URLs, otherwise "homepage".
	Source string `json:"source"`

	// Grouped maps each parsed sitemap URL to the page URLs it listed.
	Grouped map[string][]string `json:"grouped,omitempty"`

	// URLs is the flat, de-duplicated list; the homepage always comes first.
	URLs []string `json:"urls"`
}
