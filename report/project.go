package report

import (
	"fmt"
	"strings"

	"github.com/use-agent/a11yaudit/models"
)

// ProjectViolations flattens axe rule results into one record per affected
// element, in group-then-node order. Groups without nodes contribute
// nothing.
func ProjectViolations(res *models.AxeResults) ([]models.ViolationRecord, error) {
	if res == nil || res.Violations == nil {
		return nil, missingField("axe", "violations")
	}

	records := make([]models.ViolationRecord, 0, countNodes(res.Violations))
	for i, group := range res.Violations {
		if group.Nodes == nil {
			return nil, missingField("axe", fmt.Sprintf("violations.%d.nodes", i))
		}
		for j, node := range group.Nodes {
			if node.Target == nil {
				return nil, missingField("axe", fmt.Sprintf("violations.%d.nodes.%d.target", i, j))
			}
			records = append(records, models.ViolationRecord{
				Rule:           group.ID,
				Impact:         group.Impact,
				Help:           group.Help,
				HelpURL:        group.HelpURL,
				HTML:           node.HTML,
				Selector:       JoinTarget(node.Target),
				FailureSummary: node.FailureSummary,
			})
		}
	}
	return records, nil
}

// ProjectIssues selects the simplified fields of each HTML_CodeSniffer
// issue, preserving engine order.
func ProjectIssues(res *models.HTMLCSResults) ([]models.IssueRecord, error) {
	if res == nil || res.Issues == nil {
		return nil, missingField("htmlcs", "issues")
	}

	records := make([]models.IssueRecord, 0, len(res.Issues))
	for _, issue := range res.Issues {
		records = append(records, models.IssueRecord{
			Code:     issue.Code,
			Message:  issue.Message,
			Selector: issue.Selector,
			Context:  issue.Context,
			Type:     issue.Type,
		})
	}
	return records, nil
}

// JoinTarget renders an axe target path as a single selector string.
func JoinTarget(target []models.TargetSegment) string {
	parts := make([]string, 0, len(target))
	for _, seg := range target {
		parts = append(parts, seg.String())
	}
	return strings.Join(parts, " ")
}

func countNodes(groups []models.AxeRuleResult) int {
	n := 0
	for _, g := range groups {
		n += len(g.Nodes)
	}
	return n
}

func missingField(engine, field string) *models.AuditError {
	return malformed(engine, "result is missing required fields",
		&ValidationError{Errors: []FieldError{{Field: field, Message: field + " is required"}}})
}
