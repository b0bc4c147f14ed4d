package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:7118", cfg.ServerAddress())
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, int64(1<<20), cfg.Workspace.MaxReadBytes)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: claude
  model: claude-haiku
search:
  maxResults: 8
log:
  format: json
`), 0o644))

	t.Setenv("CLERK_MODEL", "claude-opus")
	t.Setenv("SERPAPI_KEY", "")
	t.Setenv("SERPAPI_API_KEY", "serp-key-from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderClaude, cfg.LLM.Provider)
	assert.Equal(t, "claude-opus", cfg.LLM.Model)
	assert.Equal(t, 8, cfg.Search.MaxResults)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "serp-key-from-env", cfg.Search.SerpAPIKey)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unterminated"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestApplyEnv_Numbers(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.applyEnv(env(map[string]string{
		"MAX_TOKENS":         "1024",
		"TEMPERATURE":        "0.3",
		"MAX_SEARCH_RESULTS": "3",
		"GOOGLE_API_KEY":     "google-key",
	}))
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, 3, cfg.Search.MaxResults)
	assert.Equal(t, "google-key", cfg.LLM.GeminiAPIKey)
}

func TestApplyEnv_CollectsErrors(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.applyEnv(env(map[string]string{
		"MAX_TOKENS":  "lots",
		"TEMPERATURE": "warm",
	}))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
}

func TestValidate_ReportsEverything(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "openai"
	cfg.LLM.Temperature = 3
	cfg.Search.MaxResults = 0
	cfg.Log.Format = "xml"
	cfg.Server.Port = 70000

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 5)
	assert.ErrorContains(t, err, `unknown provider "openai"`)
}

func TestAPIKeyConfigured(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", false},
		{"short", false},
		{"your_api_key_here", false},
		{"YOUR_KEY_GOES_HERE", false},
		{"  sk-1234567890abcdef  ", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, APIKeyConfigured(tt.key), tt.key)
	}
}

func TestKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Composio.APIKey = "composio-real-key"
	keys := cfg.Keys()
	assert.True(t, keys["COMPOSIO_API_KEY"])
	assert.False(t, keys["GEMINI_API_KEY"])
	assert.False(t, keys["SERPAPI_KEY"])
}
