package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/use-agent/a11yaudit/models"
)

const indent = "  "

// Encode writes v to w as 2-space indented JSON without escaping HTML
// characters, so markup snippets stay readable.
func Encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	return enc.Encode(v)
}

// WriteJSON serializes v and replaces the file at path with it.
func WriteJSON(path string, v interface{}) error {
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		return models.NewAuditError(models.ErrCodeInternal, "failed to encode report", err)
	}
	return writeFile(path, bytes.TrimRight(buf.Bytes(), "\n"))
}

// WriteRawJSON re-indents raw and replaces the file at path with it. Keys,
// values and their order are preserved.
func WriteRawJSON(path string, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", indent); err != nil {
		return models.NewAuditError(models.ErrCodeMalformedResult, "raw result is not valid JSON", err)
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return models.NewAuditError(models.ErrCodeIO, fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}
