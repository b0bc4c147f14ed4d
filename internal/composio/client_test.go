package composio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/klubi/clerk/internal/actions"
)

func TestExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/actions/SERPAPI_SEARCH/execute", r.URL.Path)
		assert.Equal(t, "ck_test_key_123", r.Header.Get("X-API-Key"))

		var body executeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "default", body.EntityID)
		assert.Equal(t, "golang", body.Input["query"])

		_, _ = w.Write([]byte(`{"successfull": true, "error": null, "data": {"organic_results": [{"title": "Go"}]}}`))
	}))
	defer srv.Close()

	c := New("ck_test_key_123", zap.NewNop(), WithBaseURL(srv.URL))
	out, err := c.Execute(context.Background(), actions.Search, map[string]any{"query": "golang"})
	require.NoError(t, err)
	assert.Contains(t, out, "organic_results")
}

func TestExecute_Unsuccessful(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"successful": false, "error": "quota exceeded", "data": {}}`))
	}))
	defer srv.Close()

	c := New("key", zap.NewNop(), WithBaseURL(srv.URL))
	_, err := c.Execute(context.Background(), actions.NewsSearch, nil)
	require.Error(t, err)

	var actionErr *actions.Error
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, actions.NewsSearch, actionErr.Action)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestExecute_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New("key", zap.NewNop(), WithBaseURL(srv.URL)).Execute(context.Background(), actions.OpenFile, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestExecute_NoKey(t *testing.T) {
	_, err := New("", zap.NewNop()).Execute(context.Background(), actions.ListFiles, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/actions", r.URL.Path)
		assert.Equal(t, "filetool,serpapi", r.URL.Query().Get("apps"))
		_, _ = w.Write([]byte(`{"items": [
			{"name": "FILETOOL_OPEN_FILE"},
			{"name": "SERPAPI_SEARCH"},
			{"name": "FILETOOL_GIT_CLONE"}
		]}`))
	}))
	defer srv.Close()

	c := New("key", zap.NewNop(), WithBaseURL(srv.URL))
	assert.Len(t, c.Actions(), len(actions.Catalogue()))

	found, err := c.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []actions.Action{actions.OpenFile, actions.Search}, found)
	assert.Equal(t, found, c.Actions())
	assert.True(t, actions.Supports(c, actions.Search))
	assert.False(t, actions.Supports(c, actions.NewsSearch))
}
