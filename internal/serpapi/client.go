// Package serpapi is a small client for the SerpAPI Google search endpoint.
package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// DefaultBaseURL is the public SerpAPI search endpoint.
const DefaultBaseURL = "https://serpapi.com/search"

// ErrNoAPIKey is returned when the client has no usable key.
var ErrNoAPIKey = errors.New("SERPAPI_KEY not configured")

// Client queries SerpAPI directly over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// New creates a client. The default HTTP timeout is 10 seconds.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// SearchRaw runs a Google search and returns the decoded JSON body.
// num limits the number of results when positive.
func (c *Client) SearchRaw(ctx context.Context, query string, t v1alpha1.SearchType, num int) (map[string]any, error) {
	if !c.Configured() {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("engine", "google")
	switch t {
	case v1alpha1.SearchNews:
		params.Set("tbm", "nws")
	case v1alpha1.SearchImages:
		params.Set("tbm", "isch")
	}
	if num > 0 {
		params.Set("num", strconv.Itoa(num))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("serpapi error (status %d): %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	if msg, ok := out["error"].(string); ok && msg != "" {
		return nil, fmt.Errorf("serpapi error: %s", msg)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("serpapi error (status %d)", resp.StatusCode)
	}
	return out, nil
}

// Search runs a Google search and decodes the result lists.
func (c *Client) Search(ctx context.Context, query string, t v1alpha1.SearchType, num int) (*Response, error) {
	raw, err := c.SearchRaw(ctx, query, t, num)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}
