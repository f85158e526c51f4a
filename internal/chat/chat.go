package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Sender posts a text message to a chat destination. The core never calls
// the chat platform directly; everything goes through this interface so
// tests and dry runs can swap it out.
type Sender interface {
	Send(ctx context.Context, destination, text string) error
}

// WebhookSender posts messages to an incoming-webhook URL. The destination,
// when non-empty, is attached as a thread key so consecutive reminders for
// one period land in the same thread.
type WebhookSender struct {
	httpClient *http.Client
	webhookURL string
}

// NewWebhookSender creates a sender for the given incoming-webhook URL.
func NewWebhookSender(webhookURL string) *WebhookSender {
	return &WebhookSender{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		webhookURL: webhookURL,
	}
}

type webhookPayload struct {
	Text string `json:"text"`
}

// Send implements Sender.
func (s *WebhookSender) Send(ctx context.Context, destination, text string) error {
	endpoint := s.webhookURL
	if destination != "" {
		sep := "?"
		if u, err := url.Parse(endpoint); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		endpoint += sep + "threadKey=" + url.QueryEscape(destination)
	}

	body, err := json.Marshal(webhookPayload{Text: text})
	if err != nil {
		return fmt.Errorf("encoding chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chat webhook request failed: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading chat response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("chat webhook error %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
