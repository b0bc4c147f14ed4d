package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/klubi/clerk/internal/agent"
	"github.com/klubi/clerk/internal/config"
	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

type nopGemini struct{}

func (nopGemini) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{Text: "hi from gemini"}}},
	}}}, nil
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Workspace.Root = t.TempDir()
	cfg.LLM.Provider = config.ProviderNone
	return cfg
}

func TestNew_NoCredentials(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	st := a.Status()
	assert.Equal(t, "none", st.LLMProvider)
	assert.Equal(t, "local", st.ToolProvider)
	assert.Equal(t, 5, st.AvailableTools)
	assert.Equal(t, cfg.Workspace.Root, st.Workspace)
	assert.False(t, st.Keys["SERPAPI_KEY"])

	res := a.WebSearch(context.Background(), "golang", v1alpha1.SearchGeneral)
	assert.Equal(t, v1alpha1.FailureCollaboratorUnavailable, res.FailureKind())

	_, res = a.Run(context.Background(), "tell me a joke")
	assert.Equal(t, v1alpha1.FailureCollaboratorUnavailable, res.FailureKind())
}

func TestWebSearch_LocalProviderSendsOneRequest(t *testing.T) {
	var requests atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusTooManyRequests)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(int(status.Load()))
		if status.Load() != http.StatusOK {
			_, _ = w.Write([]byte(`{"error": "quota exceeded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"organic_results": [{"title": "Go", "link": "https://go.dev"}]}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Search.SerpAPIKey = "serpapi-test-key-123"
	cfg.Search.BaseURL = srv.URL
	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Equal(t, "local", a.Provider.Name())

	for _, st := range []v1alpha1.SearchType{v1alpha1.SearchGeneral, v1alpha1.SearchNews, v1alpha1.SearchImages} {
		requests.Store(0)
		res := a.WebSearch(context.Background(), "golang", st)
		assert.Equal(t, v1alpha1.FailureCollaboratorUnavailable, res.FailureKind(), st)
		assert.EqualValues(t, 1, requests.Load(), st)
	}

	status.Store(http.StatusOK)
	requests.Store(0)
	res := a.WebSearch(context.Background(), "golang", v1alpha1.SearchGeneral)
	require.True(t, res.OK(), "%+v", res.Failure)
	assert.False(t, res.Search.Fallback)
	assert.EqualValues(t, 1, requests.Load())
}

func TestNew_FileRoundTripThroughRun(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	parsed, res := a.Run(context.Background(), "create a file called notes.txt with hello world")
	require.True(t, res.OK(), "%+v", res.Failure)
	assert.Equal(t, "notes.txt", v1alpha1.Value(parsed.Path))

	data, err := os.ReadFile(filepath.Join(cfg.Workspace.Root, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	_, res = a.Run(context.Background(), "read file notes.txt")
	require.True(t, res.OK())
	assert.Equal(t, "hello world", res.File.Content)
}

func TestNew_Gemini(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = config.ProviderAuto
	cfg.LLM.GeminiAPIKey = "gemini-test-key-123"

	a, err := New(context.Background(), cfg, zaptest.NewLogger(t),
		WithGeminiClient(func(context.Context, string) (agent.GeminiClient, error) { return nopGemini{}, nil }))
	require.NoError(t, err)

	st := a.Status()
	assert.Equal(t, "gemini", st.LLMProvider)
	assert.Equal(t, agent.DefaultGeminiModel, st.Model)

	_, res := a.Run(context.Background(), "how are you")
	require.True(t, res.OK())
	assert.Equal(t, "hi from gemini", res.Reply.Text)
}

func TestNew_GeminiClientError(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = config.ProviderGemini
	cfg.LLM.GeminiAPIKey = "gemini-test-key-123"

	_, err := New(context.Background(), cfg, zaptest.NewLogger(t),
		WithGeminiClient(func(context.Context, string) (agent.GeminiClient, error) { return nil, errors.New("boom") }))
	assert.ErrorContains(t, err, "boom")
}

func TestNew_ComposioDiscovery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/actions", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []map[string]string{
			{"name": "FILETOOL_LIST_FILES"},
			{"name": "SERPAPI_SEARCH"},
			{"name": "GITHUB_STAR_REPO"},
		}})
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Composio.APIKey = "composio-test-key"
	cfg.Composio.BaseURL = srv.URL

	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	st := a.Status()
	assert.Equal(t, "composio", st.ToolProvider)
	assert.Equal(t, 2, st.AvailableTools)
	assert.True(t, st.Keys["COMPOSIO_API_KEY"])
	assert.Equal(t, 1, a.Search.Available())
}

func TestResolve(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, v1alpha1.IntentListFiles, a.Resolve("ls").Intent)
}
