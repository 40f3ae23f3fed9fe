package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AxeResults is the subset of the axe.run() result object the projection reads.
type AxeResults struct {
	URL        string          `json:"url"`
	Timestamp  string          `json:"timestamp"`
	TestEngine *AxeTestEngine  `json:"testEngine,omitempty"`
	Violations []AxeRuleResult `json:"violations"`
}

// AxeTestEngine identifies the axe-core build that produced a result.
type AxeTestEngine struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// AxeRuleResult is one rule's aggregated outcome (a violation group).
type AxeRuleResult struct {
	ID          string    `json:"id"`
	Impact      *string   `json:"impact"`
	Tags        []string  `json:"tags"`
	Description string    `json:"description"`
	Help        string    `json:"help"`
	HelpURL     string    `json:"helpUrl"`
	Nodes       []AxeNode `json:"nodes"`
}

// AxeNode is one affected element of a rule result.
type AxeNode struct {
	HTML           string          `json:"html"`
	Target         []TargetSegment `json:"target"`
	FailureSummary string          `json:"failureSummary"`
	Impact         *string         `json:"impact"`
}

// TargetSegment is one entry of an axe node target path. Elements inside
// shadow roots are addressed by a nested list of selectors instead of a
// single string.
type TargetSegment []string

// UnmarshalJSON accepts either a selector string or a list of selectors.
func (t *TargetSegment) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = TargetSegment{s}
		return nil
	}
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("target segment must be a string or a list of strings: %w", err)
	}
	*t = TargetSegment(parts)
	return nil
}

// MarshalJSON writes single selectors back as plain strings.
func (t TargetSegment) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

// String renders the segment the way a JavaScript array coerces to string.
func (t TargetSegment) String() string {
	return strings.Join(t, ",")
}

// HTMLCSResults is the pa11y-shaped result of an HTML_CodeSniffer run.
type HTMLCSResults struct {
	DocumentTitle string        `json:"documentTitle"`
	PageURL       string        `json:"pageUrl"`
	Issues        []HTMLCSIssue `json:"issues"`
}

// HTMLCSIssue is a single reported issue.
type HTMLCSIssue struct {
	Code         string          `json:"code"`
	Type         string          `json:"type"`
	TypeCode     int             `json:"typeCode"`
	Message      string          `json:"message"`
	Context      *string         `json:"context"`
	Selector     string          `json:"selector"`
	Runner       string          `json:"runner"`
	RunnerExtras json.RawMessage `json:"runnerExtras,omitempty"`
}
