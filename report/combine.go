package report

import (
	"net/url"

	"github.com/use-agent/a11yaudit/models"
)

// NotFound is the matched_html value for selectors the snapshot could not
// resolve.
const NotFound = "(not found)"

const defaultImpact = "minor"

var impactByTypeCode = map[int]string{
	1: "critical",
	2: "serious",
	3: "moderate",
}

// Combine merges both engines' output into one normalized issue list,
// HTML_CodeSniffer issues first. Either input may be nil. Issues without a
// selector are dropped since they cannot be located in the page.
func Combine(axe *models.AxeReport, htmlcs *models.HTMLCSResults) []models.CombinedIssue {
	issues := make([]models.CombinedIssue, 0)

	if htmlcs != nil {
		for _, i := range htmlcs.Issues {
			if i.Selector == "" {
				continue
			}
			impact, ok := impactByTypeCode[i.TypeCode]
			if !ok {
				impact = defaultImpact
			}
			issues = append(issues, models.CombinedIssue{
				Source:   "htmlcs",
				Rule:     i.Code,
				Impact:   impact,
				Selector: i.Selector,
				Message:  i.Message,
			})
		}
	}

	if axe != nil {
		for _, v := range axe.Violations {
			if v.Selector == "" {
				continue
			}
			impact := defaultImpact
			if v.Impact != nil && *v.Impact != "" {
				impact = *v.Impact
			}
			summary := v.FailureSummary
			issues = append(issues, models.CombinedIssue{
				Source:         "axe",
				Rule:           v.Rule,
				Impact:         impact,
				Selector:       v.Selector,
				Message:        v.Help,
				FailureSummary: &summary,
			})
		}
	}
	return issues
}

// Selectors returns the distinct selectors of issues in first-seen order.
func Selectors(issues []models.CombinedIssue) []string {
	seen := make(map[string]bool, len(issues))
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		if seen[i.Selector] {
			continue
		}
		seen[i.Selector] = true
		out = append(out, i.Selector)
	}
	return out
}

// AttachSnapshots fills matched_html from a selector → markup map.
func AttachSnapshots(issues []models.CombinedIssue, htmlBySelector map[string]string) {
	for idx := range issues {
		html, ok := htmlBySelector[issues[idx].Selector]
		if !ok {
			html = NotFound
		}
		issues[idx].MatchedHTML = &html
	}
}

// CombinedFileName is the default output name for a combined report of
// pageURL: accessibility_issues_<host>.json.
func CombinedFileName(pageURL string) string {
	host := "unknown"
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return "accessibility_issues_" + host + ".json"
}
