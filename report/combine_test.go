package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/a11yaudit/models"
)

func TestCombine(t *testing.T) {
	axe := &models.AxeReport{URL: "https://example.com", Violations: []models.ViolationRecord{
		{Rule: "color-contrast", Impact: strPtr("serious"), Help: "contrast", Selector: "p", FailureSummary: "low contrast"},
		{Rule: "region", Help: "landmarks", Selector: "div"},
		{Rule: "dropped", Selector: ""},
	}}
	htmlcs := &models.HTMLCSResults{Issues: []models.HTMLCSIssue{
		{Code: "H37", TypeCode: 1, Message: "alt", Selector: "img"},
		{Code: "G18", TypeCode: 2, Message: "contrast", Selector: "p"},
		{Code: "H25", TypeCode: 3, Message: "title", Selector: "title"},
		{Code: "X", TypeCode: 9, Message: "other", Selector: "span"},
		{Code: "doc", TypeCode: 3, Message: "document", Selector: ""},
	}}

	issues := Combine(axe, htmlcs)
	require.Len(t, issues, 6)

	impacts := make([]string, 0, len(issues))
	for _, i := range issues {
		impacts = append(impacts, i.Source+":"+i.Impact)
	}
	assert.Equal(t, []string{
		"htmlcs:critical", "htmlcs:serious", "htmlcs:moderate", "htmlcs:minor",
		"axe:serious", "axe:minor",
	}, impacts)

	assert.Nil(t, issues[0].FailureSummary)
	require.NotNil(t, issues[4].FailureSummary)
	assert.Equal(t, "low contrast", *issues[4].FailureSummary)
	assert.Equal(t, "contrast", issues[4].Message)
}

func TestCombine_NilInputs(t *testing.T) {
	issues := Combine(nil, nil)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)
}

func TestSelectorsAndSnapshots(t *testing.T) {
	issues := []models.CombinedIssue{{Selector: "p"}, {Selector: "img"}, {Selector: "p"}}
	assert.Equal(t, []string{"p", "img"}, Selectors(issues))

	AttachSnapshots(issues, map[string]string{"p": "<p>x</p>"})
	assert.Equal(t, "<p>x</p>", *issues[0].MatchedHTML)
	assert.Equal(t, NotFound, *issues[1].MatchedHTML)
	assert.Equal(t, "<p>x</p>", *issues[2].MatchedHTML)
}

func TestCombinedFileName(t *testing.T) {
	assert.Equal(t, "accessibility_issues_www.example.com.json", CombinedFileName("https://www.example.com/about"))
	assert.Equal(t, "accessibility_issues_localhost:8080.json", CombinedFileName("http://localhost:8080/"))
	assert.Equal(t, "accessibility_issues_unknown.json", CombinedFileName("not a url"))
}
