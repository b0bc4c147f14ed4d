// Package composio runs clerk actions through the Composio tool platform.
package composio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/klubi/clerk/internal/actions"
)

// DefaultBaseURL is the hosted Composio API.
const DefaultBaseURL = "https://backend.composio.dev"

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("COMPOSIO_API_KEY not configured")

// Client executes actions against the Composio REST API.
type Client struct {
	baseURL    string
	apiKey     string
	entityID   string
	httpClient *http.Client
	logger     *zap.Logger

	mu        sync.RWMutex
	available []actions.Action
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithEntityID sets the Composio entity actions run as.
func WithEntityID(id string) Option {
	return func(c *Client) { c.entityID = id }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// New creates a Composio client.
func New(apiKey string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		entityID:   "default",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Name() string { return "composio" }

// Actions returns the actions found by Discover, or the whole catalogue when
// discovery has not run.
func (c *Client) Actions() []actions.Action {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.available != nil {
		return append([]actions.Action(nil), c.available...)
	}
	var out []actions.Action
	for _, d := range actions.Catalogue() {
		out = append(out, d.Action)
	}
	return out
}

type actionList struct {
	Items []struct {
		Name string `json:"name"`
	} `json:"items"`
}

// Discover asks Composio which filetool and serpapi actions are enabled and
// keeps the ones clerk knows.
func (c *Client) Discover(ctx context.Context) ([]actions.Action, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	var list actionList
	q := url.Values{"apps": {"filetool,serpapi"}}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v2/actions?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}

	found := []actions.Action{}
	for _, item := range list.Items {
		if a := actions.Parse(item.Name); a != actions.Unknown {
			found = append(found, a)
		}
	}

	c.mu.Lock()
	c.available = found
	c.mu.Unlock()

	c.logger.Debug("discovered composio actions", zap.Int("count", len(found)))
	return found, nil
}

type executeRequest struct {
	EntityID string         `json:"entityId"`
	Input    map[string]any `json:"input"`
}

type executeResponse struct {
	Data        map[string]any `json:"data"`
	Error       any            `json:"error"`
	Successful  *bool          `json:"successful"`
	Successfull *bool          `json:"successfull"`
}

func (r *executeResponse) ok() bool {
	if r.Successful != nil {
		return *r.Successful
	}
	if r.Successfull != nil {
		return *r.Successfull
	}
	return r.Error == nil
}

// Execute runs one action. Parameters are passed through unchanged.
func (c *Client) Execute(ctx context.Context, a actions.Action, params map[string]any) (map[string]any, error) {
	if c.apiKey == "" {
		return nil, &actions.Error{Action: a, Err: ErrNotConfigured}
	}
	if params == nil {
		params = map[string]any{}
	}

	c.logger.Debug("executing composio action", zap.String("action", string(a)))

	var resp executeResponse
	body := executeRequest{EntityID: c.entityID, Input: params}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v2/actions/"+url.PathEscape(string(a))+"/execute", body, &resp); err != nil {
		return nil, &actions.Error{Action: a, Err: err}
	}
	if !resp.ok() {
		return nil, &actions.Error{Action: a, Err: fmt.Errorf("composio: %v", resp.Error)}
	}
	return resp.Data, nil
}

// doJSON executes a request, checks for a 2xx status, and JSON-decodes the
// response body into target.
func (c *Client) doJSON(ctx context.Context, method, path string, body, target any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if target != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}
