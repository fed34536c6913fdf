package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"

	"cryptics.app/cryptics-client/auth"
	"cryptics.app/cryptics-client/config"
	"cryptics.app/cryptics-client/model"
)

// Client talks to the dashboard backend. Requests carry the session's bearer
// token; a 401 triggers exactly one refresh-and-retry, and a second 401 is
// surfaced to the caller.
type Client struct {
	baseURL      string
	insightsBase string
	httpClient   *http.Client
	session      *auth.Session
	log          *slog.Logger
}

func NewClient(options config.APIOptions, session *auth.Session) *Client {
	insightsBase := options.InsightsBase
	if insightsBase == "" {
		insightsBase = options.BaseURL
	}
	return &Client{
		baseURL:      strings.TrimRight(options.BaseURL, "/"),
		insightsBase: strings.TrimRight(insightsBase, "/"),
		httpClient:   &http.Client{Timeout: options.Timeout},
		session:      session,
		log:          slog.Default().With(slog.String("component", "api")),
	}
}

// BaseURL returns the backend root, with the scheme swapped for websocket
// dialing when asWebsocket is set.
func (c *Client) BaseURL(asWebsocket bool) string {
	if !asWebsocket {
		return c.baseURL
	}
	switch {
	case strings.HasPrefix(c.baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.baseURL, "https://")
	case strings.HasPrefix(c.baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.baseURL, "http://")
	}
	return c.baseURL
}

func (c *Client) get(ctx context.Context, base, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, base, path, query, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, base, path string, query url.Values, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = sonic.Marshal(payload)
		if err != nil {
			return err
		}
	}

	endpoint := base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	data, err := c.roundTrip(ctx, method, endpoint, body, false)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return sonic.Unmarshal(data, out)
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, body []byte, retried bool) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if token := c.session.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.session != nil && !retried {
		if _, err := c.session.Refresh(ctx); err != nil {
			return nil, model.ParseAPIError(resp.StatusCode, data)
		}
		c.log.Debug("retrying request after token refresh", "endpoint", endpoint)
		return c.roundTrip(ctx, method, endpoint, body, true)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, model.ParseAPIError(resp.StatusCode, data)
	}
	return data, nil
}
