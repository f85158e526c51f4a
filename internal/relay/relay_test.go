package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paywatch/paywatch/internal/relay"
)

func newTestServer(t *testing.T, token string, triggers relay.Triggers) *httptest.Server {
	t.Helper()
	s := relay.New(":0", token, nil, triggers)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, token string) (*http.Response, map[string]string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("X-Relay-Token", token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, "", relay.Triggers{})
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHookRunsJob(t *testing.T) {
	ran := false
	srv := newTestServer(t, "s3cret", relay.Triggers{
		Extract: func(ctx context.Context) error { ran = true; return nil },
	})

	resp, body := post(t, srv.URL+"/hooks/extract", "s3cret")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, ran)
	require.Equal(t, "ok", body["status"])
	require.NotEmpty(t, body["delivery_id"])
}

func TestHookRejectsBadToken(t *testing.T) {
	ran := false
	srv := newTestServer(t, "s3cret", relay.Triggers{
		Remind: func(ctx context.Context) error { ran = true; return nil },
	})

	resp, _ := post(t, srv.URL+"/hooks/remind", "wrong")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.False(t, ran)

	resp, _ = post(t, srv.URL+"/hooks/remind", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHookReportsJobError(t *testing.T) {
	srv := newTestServer(t, "", relay.Triggers{
		Extract: func(ctx context.Context) error { return errors.New("source unavailable") },
	})

	resp, body := post(t, srv.URL+"/hooks/extract", "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Contains(t, body["error"], "source unavailable")
}

func TestHookNotConfigured(t *testing.T) {
	srv := newTestServer(t, "", relay.Triggers{})
	resp, _ := post(t, srv.URL+"/hooks/remind", "")
	require.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestHookMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, "", relay.Triggers{})
	resp, err := http.Get(srv.URL + "/hooks/extract")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
