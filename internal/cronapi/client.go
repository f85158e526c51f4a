package cronapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Job is one scheduled trigger managed on the external cron service. The
// service calls back into the webhook relay on Schedule.
type Job struct {
	ID       int64  `json:"id,omitempty"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Schedule string `json:"schedule"` // 5-field cron expression
	Enabled  bool   `json:"enabled"`
}

// Client wraps the third-party cron-scheduling HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates an API-key authenticated client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cron API request failed: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("cron API error %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding cron API response: %w", err)
		}
	}
	return nil
}

// List returns all jobs registered on the service.
func (c *Client) List(ctx context.Context) ([]Job, error) {
	var out struct {
		Jobs []Job `json:"jobs"`
	}
	if err := c.do(ctx, http.MethodGet, "/jobs", nil, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// Create registers a new job and returns it with its assigned ID.
func (c *Client) Create(ctx context.Context, job Job) (Job, error) {
	var out Job
	if err := c.do(ctx, http.MethodPost, "/jobs", job, &out); err != nil {
		return Job{}, err
	}
	return out, nil
}

// Update replaces an existing job definition.
func (c *Client) Update(ctx context.Context, id int64, job Job) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/jobs/%d", id), job, nil)
}

// Delete removes a job from the service.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/jobs/%d", id), nil, nil)
}
