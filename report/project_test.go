package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/a11yaudit/models"
)

func strPtr(s string) *string { return &s }

func TestProjectViolations_GroupThenNodeOrder(t *testing.T) {
	res := &models.AxeResults{Violations: []models.AxeRuleResult{
		{ID: "a", Impact: strPtr("minor"), Nodes: []models.AxeNode{
			{HTML: "<a1>", Target: []models.TargetSegment{{"a1"}}},
			{HTML: "<a2>", Target: []models.TargetSegment{{"a2"}}},
		}},
		{ID: "empty", Nodes: []models.AxeNode{}},
		{ID: "b", Nodes: []models.AxeNode{
			{HTML: "<b1>", Target: []models.TargetSegment{{"b1"}}},
		}},
	}}

	records, err := ProjectViolations(res)
	require.NoError(t, err)
	require.Len(t, records, 3)

	got := make([]string, 0, len(records))
	for _, r := range records {
		got = append(got, r.Rule+":"+r.HTML)
	}
	assert.Equal(t, []string{"a:<a1>", "a:<a2>", "b:<b1>"}, got)
	assert.Equal(t, "minor", *records[0].Impact)
	assert.Nil(t, records[2].Impact)
}

func TestProjectViolations_Empty(t *testing.T) {
	records, err := ProjectViolations(&models.AxeResults{Violations: []models.AxeRuleResult{}})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestProjectViolations_OnlyEmptyGroups(t *testing.T) {
	records, err := ProjectViolations(&models.AxeResults{Violations: []models.AxeRuleResult{
		{ID: "x", Nodes: []models.AxeNode{}},
		{ID: "y", Nodes: []models.AxeNode{}},
	}})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestProjectViolations_Selector(t *testing.T) {
	tests := []struct {
		name   string
		target []models.TargetSegment
		want   string
	}{
		{"single", []models.TargetSegment{{"p"}}, "p"},
		{"frames", []models.TargetSegment{{"iframe"}, {"#main"}, {"p"}}, "iframe #main p"},
		{"shadow", []models.TargetSegment{{"#host", "button"}}, "#host,button"},
		{"empty", []models.TargetSegment{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ProjectViolations(&models.AxeResults{Violations: []models.AxeRuleResult{
				{ID: "r", Nodes: []models.AxeNode{{Target: tt.target}}},
			}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, records[0].Selector)
		})
	}
}

func TestProjectViolations_Malformed(t *testing.T) {
	tests := []struct {
		name string
		res  *models.AxeResults
	}{
		{"nil result", nil},
		{"nil violations", &models.AxeResults{}},
		{"nil nodes", &models.AxeResults{Violations: []models.AxeRuleResult{{ID: "a"}}}},
		{"nil target", &models.AxeResults{Violations: []models.AxeRuleResult{
			{ID: "a", Nodes: []models.AxeNode{{HTML: "<p>"}}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProjectViolations(tt.res)
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.ErrCodeMalformedResult))
		})
	}
}

func TestProjectIssues(t *testing.T) {
	ctx := "<img>"
	res := &models.HTMLCSResults{Issues: []models.HTMLCSIssue{
		{Code: "c1", Type: "error", TypeCode: 1, Message: "m1", Context: &ctx, Selector: "img", Runner: "htmlcs"},
		{Code: "c2", Type: "notice", TypeCode: 3, Message: "m2", Selector: "html"},
	}}

	records, err := ProjectIssues(res)
	require.NoError(t, err)
	assert.Equal(t, []models.IssueRecord{
		{Code: "c1", Message: "m1", Selector: "img", Context: &ctx, Type: "error"},
		{Code: "c2", Message: "m2", Selector: "html", Type: "notice"},
	}, records)
}

func TestProjectIssues_Malformed(t *testing.T) {
	_, err := ProjectIssues(&models.HTMLCSResults{})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.ErrCodeMalformedResult))
}

func TestColorContrastEndToEnd(t *testing.T) {
	raw := []byte(`{"violations":[{"id":"color-contrast","impact":"serious",` +
		`"help":"Elements must meet minimum color contrast ratio thresholds",` +
		`"helpUrl":"https://dequeuniversity.com/rules/axe/4.10/color-contrast",` +
		`"nodes":[{"html":"<p>x</p>","target":["p"],"failureSummary":"low contrast"}]}]}`)

	res, err := DecodeAxeResults(raw)
	require.NoError(t, err)
	records, err := ProjectViolations(res)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "axe_report.json")
	require.NoError(t, WriteJSON(path, models.AxeReport{URL: "https://example.com", Violations: records}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{
  "url": "https://example.com",
  "violations": [
    {
      "rule": "color-contrast",
      "impact": "serious",
      "help": "Elements must meet minimum color contrast ratio thresholds",
      "helpUrl": "https://dequeuniversity.com/rules/axe/4.10/color-contrast",
      "html": "<p>x</p>",
      "selector": "p",
      "failureSummary": "low contrast"
    }
  ]
}`, string(data))

	var back models.AxeReport
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, records, back.Violations)
}
