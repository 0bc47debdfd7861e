// Package notify delivers user-facing notifications when a session ends.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single webhook delivery. Notifications fire from
// the poll loop, so a slow endpoint must not stall the countdown for long.
const DefaultTimeout = 5 * time.Second

// Webhook POSTs notifications as JSON to a configured URL. That covers
// ntfy.sh-style endpoints and home-automation hooks alike.
type Webhook struct {
	url        string
	httpClient *http.Client
}

// NewWebhook creates a notifier for the given URL.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:        url,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

type payload struct {
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// Notify delivers one notification.
func (w *Webhook) Notify(ctx context.Context, title, body string) error {
	data, err := json.Marshal(payload{
		Title:  title,
		Body:   body,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}
