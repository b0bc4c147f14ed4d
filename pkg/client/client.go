// Package client provides a Go client library for the clerk API server.
package client

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
	"time"

	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// Client communicates with the clerk API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new clerk API client pointing at the given base URL
// (e.g. "http://127.0.0.1:7118"). Requests may run a language model, so the
// timeout is generous.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode  int
	Message     string
	Suggestions []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// doRequest builds and executes an HTTP request.
// If body is non-nil it is JSON-encoded and sent as the request body.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// doJSON executes a request, checks for a 2xx status, and JSON-decodes
// the response body into target (when target is non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, body, target any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var envelope struct {
			Error       string   `json:"error"`
			Suggestions []string `json:"suggestions"`
		}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error != "" {
			apiErr.Message = envelope.Error
			apiErr.Suggestions = envelope.Suggestions
		}
		return apiErr
	}

	if target != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

// Healthz checks whether the API server is healthy.
func (c *Client) Healthz(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("healthz failed (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// Status returns the server's collaborator summary.
func (c *Client) Status(ctx context.Context) (*v1alpha1.AgentStatus, error) {
	var out v1alpha1.AgentStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1alpha1/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// Resolve asks the server how it would interpret text.
func (c *Client) Resolve(ctx context.Context, text string) (*v1alpha1.ParsedCommand, error) {
	var out v1alpha1.ParsedCommand
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1alpha1/resolve", v1alpha1.TextRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Run resolves and executes text on the server.
func (c *Client) Run(ctx context.Context, text string) (*v1alpha1.RunResponse, error) {
	var out v1alpha1.RunResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1alpha1/run", v1alpha1.TextRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dispatch executes an already resolved command on the server.
func (c *Client) Dispatch(ctx context.Context, cmd v1alpha1.ParsedCommand) (*v1alpha1.Result, error) {
	var out v1alpha1.Result
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1alpha1/commands", cmd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs a web search on the server.
func (c *Client) Search(ctx context.Context, query string, t v1alpha1.SearchType) (*v1alpha1.Result, error) {
	var out v1alpha1.Result
	req := v1alpha1.SearchRequest{Query: query, Type: t}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1alpha1/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---------------------------------------------------------------------------
// Tools
// ---------------------------------------------------------------------------

// ListTools returns tool descriptors, optionally filtered by category and
// a search term.
func (c *Client) ListTools(ctx context.Context, category, search string) ([]v1alpha1.ToolDescriptor, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if search != "" {
		q.Set("search", search)
	}
	path := "/api/v1alpha1/tools"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []v1alpha1.ToolDescriptor
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTool retrieves one tool descriptor by name.
func (c *Client) GetTool(ctx context.Context, name string) (*v1alpha1.ToolDescriptor, error) {
	var out v1alpha1.ToolDescriptor
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1alpha1/tools/"+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
