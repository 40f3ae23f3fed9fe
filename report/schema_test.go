package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/a11yaudit/models"
)

func TestDecodeAxeResults_Valid(t *testing.T) {
	raw := []byte(`{
		"url": "https://example.com/",
		"testEngine": {"name": "axe-core", "version": "4.10.2"},
		"violations": [{
			"id": "image-alt",
			"impact": null,
			"tags": ["wcag2a"],
			"help": "Images must have alternate text",
			"helpUrl": "https://dequeuniversity.com/rules/axe/4.10/image-alt",
			"nodes": [{"html": "<img src=\"a.png\">", "target": [["#host", "img"]], "failureSummary": "Fix any"}]
		}],
		"passes": []
	}`)

	res, err := DecodeAxeResults(raw)
	require.NoError(t, err)
	require.Len(t, res.Violations, 1)
	assert.Nil(t, res.Violations[0].Impact)
	assert.Equal(t, "4.10.2", res.TestEngine.Version)
	assert.Equal(t, models.TargetSegment{"#host", "img"}, res.Violations[0].Nodes[0].Target[0])
}

func TestDecodeAxeResults_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantField string
	}{
		{"missing violations", `{"url": "x"}`, "(root)"},
		{"missing nodes", `{"violations": [{"id": "a"}]}`, "violations.0"},
		{"missing target", `{"violations": [{"id": "a", "nodes": [{"html": "<p>"}]}]}`, "violations.0.nodes.0"},
		{"bad target type", `{"violations": [{"id": "a", "nodes": [{"html": "<p>", "target": [1]}]}]}`, "violations.0.nodes.0.target.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAxeResults([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.ErrCodeMalformedResult))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Fields(), tt.wantField)
		})
	}
}

func TestDecodeAxeResults_NotJSON(t *testing.T) {
	_, err := DecodeAxeResults([]byte(`<html>`))
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.ErrCodeMalformedResult))
}

func TestDecodeHTMLCSResults(t *testing.T) {
	raw := []byte(`{
		"documentTitle": "Home",
		"pageUrl": "https://example.com/",
		"issues": [{
			"code": "WCAG2AAA.Principle1.Guideline1_1.1_1_1.H37",
			"type": "error",
			"typeCode": 1,
			"message": "Img element missing an alt attribute.",
			"context": "<img src=\"a.png\">",
			"selector": "html > body > img",
			"runner": "htmlcs",
			"runnerExtras": {}
		}, {
			"code": "WCAG2AAA.Principle2.Guideline2_4.2_4_2.H25.2",
			"type": "notice",
			"typeCode": 3,
			"message": "Check that the title element describes the document.",
			"context": null,
			"selector": "",
			"runner": "htmlcs"
		}]
	}`)

	res, err := DecodeHTMLCSResults(raw)
	require.NoError(t, err)
	require.Len(t, res.Issues, 2)
	require.NotNil(t, res.Issues[0].Context)
	assert.Equal(t, `<img src="a.png">`, *res.Issues[0].Context)
	assert.Nil(t, res.Issues[1].Context)
}

func TestDecodeHTMLCSResults_Malformed(t *testing.T) {
	_, err := DecodeHTMLCSResults([]byte(`{"documentTitle": "x", "issues": [{"code": "a"}]}`))
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.ErrCodeMalformedResult))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.NotEmpty(t, ve.Errors)
	assert.Contains(t, err.Error(), "issues.0")
}
