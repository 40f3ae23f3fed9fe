// Package report validates raw engine results, projects them into records
// and writes the JSON artifacts of an audit run.
package report

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/use-agent/a11yaudit/models"
)

var (
	//go:embed schemas/axe_results.json
	axeSchemaJSON string

	//go:embed schemas/htmlcs_results.json
	htmlcsSchemaJSON string
)

var (
	axeSchema    = sync.OnceValues(func() (*gojsonschema.Schema, error) { return compile(axeSchemaJSON) })
	htmlcsSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) { return compile(htmlcsSchemaJSON) })
)

func compile(src string) (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
}

// FieldError is one schema violation at a specific field path.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every field of a raw result that failed validation.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	parts := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(parts, "; ")
}

// Fields returns the offending field paths in report order.
func (ve *ValidationError) Fields() []string {
	fields := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		fields = append(fields, fe.Field)
	}
	return fields
}

// DecodeAxeResults validates raw against the axe result schema and decodes it.
func DecodeAxeResults(raw []byte) (*models.AxeResults, error) {
	var res models.AxeResults
	if err := decode("axe", axeSchema, raw, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DecodeHTMLCSResults validates raw against the HTML_CodeSniffer result
// schema and decodes it.
func DecodeHTMLCSResults(raw []byte) (*models.HTMLCSResults, error) {
	var res models.HTMLCSResults
	if err := decode("htmlcs", htmlcsSchema, raw, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func decode(engine string, schema func() (*gojsonschema.Schema, error), raw []byte, dst interface{}) error {
	s, err := schema()
	if err != nil {
		return models.NewAuditError(models.ErrCodeInternal, "failed to compile "+engine+" result schema", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return malformed(engine, "result is not valid JSON", err)
	}
	if !result.Valid() {
		ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
		}
		return malformed(engine, "result does not match the expected shape", ve)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return malformed(engine, "failed to decode result", err)
	}
	return nil
}

func malformed(engine, msg string, err error) *models.AuditError {
	return models.NewAuditError(models.ErrCodeMalformedResult, engine+" "+msg, err)
}
