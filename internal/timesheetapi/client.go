package timesheetapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/paywatch/paywatch/internal/dateutil"
)

// Config holds the OAuth2 client-credentials settings for the timesheet API.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// Client is an authenticated timesheet-API client. It is only a raw data
// source: it returns the service's CSV export verbatim and leaves all
// validation to the record processor.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client using the OAuth2 client-credentials flow.
// Tokens are fetched and refreshed lazily by the underlying transport.
func NewClient(ctx context.Context, cfg Config) *Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	return &Client{
		httpClient: cc.Client(ctx),
		baseURL:    cfg.BaseURL,
	}
}

// ExportCSV fetches the raw timesheet export for the inclusive date range
// [from, to], both interpreted as calendar dates in loc.
func (c *Client) ExportCSV(ctx context.Context, from, to time.Time, loc *time.Location) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/reports/export?start=%s&end=%s&format=csv",
		c.baseURL,
		url.QueryEscape(from.In(loc).Format(dateutil.DateLayout)),
		url.QueryEscape(to.In(loc).Format(dateutil.DateLayout)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("timesheet API request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timesheet API error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
