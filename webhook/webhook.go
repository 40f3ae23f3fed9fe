package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/a11yaudit/models"
)

// Event types.
const (
	EventAuditCompleted = "audit.completed"
	EventAuditFailed    = "audit.failed"
)

const signatureHeader = "X-A11yaudit-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string       `json:"type"`
	RunID     string       `json:"run_id"`
	Timestamp int64        `json:"timestamp"`
	Data      AuditSummary `json:"data"`
}

// AuditSummary describes the finished run.
type AuditSummary struct {
	URL        string              `json:"url"`
	Engine     string              `json:"engine"`
	OutputPath string              `json:"output_path,omitempty"`
	Findings   int                 `json:"findings"`
	Error      *models.ErrorDetail `json:"error,omitempty"`
}

// NewEvent builds the completion event for a run. err selects
// audit.failed and is reported in the summary.
func NewEvent(runID string, summary AuditSummary, err error) *Event {
	ev := &Event{
		Type:      EventAuditCompleted,
		RunID:     runID,
		Timestamp: time.Now().Unix(),
		Data:      summary,
	}
	if err != nil {
		ev.Type = EventAuditFailed
		ev.Data.Findings = 0
		var ae *models.AuditError
		if errors.As(err, &ae) {
			ev.Data.Error = ae.ToDetail()
		} else {
			ev.Data.Error = &models.ErrorDetail{Code: models.ErrCodeInternal, Message: err.Error()}
		}
	}
	return ev
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
// Header: X-A11yaudit-Signature: sha256=<hex>
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "A11yaudit-Webhook/1.0")

	if secret != "" {
		req.Header.Set(signatureHeader, "sha256="+Sign(secret, body))
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Notify makes a single delivery attempt and logs the outcome. Runs are
// one-shot, so a failed delivery is not retried.
func Notify(ctx context.Context, url, secret string, event *Event) {
	if url == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := Deliver(ctx, url, secret, event); err != nil {
		slog.Warn("webhook delivery failed",
			"url", url,
			"event", event.Type,
			"run_id", event.RunID,
			"error", err,
		)
		return
	}
	slog.Info("webhook delivered",
		"url", url,
		"event", event.Type,
		"run_id", event.RunID,
	)
}
