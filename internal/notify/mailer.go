// Package notify sends transactional notification emails through an external
// email-webhook collaborator. Delivery is always best-effort: callers log a
// failed send and move on.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Message is a plain-text notification email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Mailer sends notification emails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// WebhookMailer posts messages to an HTTP email webhook.
type WebhookMailer struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewWebhookMailer creates a mailer targeting the given webhook URL. An empty
// URL yields a mailer whose sends are skipped with a warning, so the billing
// handler can run without email configured.
func NewWebhookMailer(url string, logger *slog.Logger) *WebhookMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookMailer{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Send posts the message to the email webhook.
func (m *WebhookMailer) Send(ctx context.Context, msg Message) error {
	if m.url == "" {
		m.logger.Warn("email webhook URL not configured, skipping send",
			"to", msg.To,
			"subject", msg.Subject,
		)
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("post email webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email webhook returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

var _ Mailer = (*WebhookMailer)(nil)
