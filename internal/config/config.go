package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// LLM provider names.
const (
	ProviderAuto   = "auto"
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
	ProviderNone   = "none"
)

type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	LLM       LLMConfig       `yaml:"llm"`
	Composio  ComposioConfig  `yaml:"composio"`
	Search    SearchConfig    `yaml:"search"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
}

type WorkspaceConfig struct {
	Root         string `yaml:"root"`         // relative paths resolve here; default: process cwd
	MaxReadBytes int64  `yaml:"maxReadBytes"` // default 1 MiB
}

type LLMConfig struct {
	Provider     string  `yaml:"provider"` // auto|gemini|claude|none
	GeminiAPIKey string  `yaml:"geminiAPIKey"`
	Model        string  `yaml:"model"`
	ClaudeCLI    string  `yaml:"claudeCLI"` // default "claude", resolved via PATH
	MaxTokens    int     `yaml:"maxTokens"`
	Temperature  float32 `yaml:"temperature"`
}

type ComposioConfig struct {
	APIKey   string `yaml:"apiKey"`
	BaseURL  string `yaml:"baseURL"`
	EntityID string `yaml:"entityID"`
}

type SearchConfig struct {
	SerpAPIKey string `yaml:"serpAPIKey"`
	BaseURL    string `yaml:"baseURL"`
	MaxResults int    `yaml:"maxResults"` // default 5
}

type LogConfig struct {
	Level  string `yaml:"level"`  // default "warn"
	Format string `yaml:"format"` // console|json
	File   string `yaml:"file"`   // optional extra output
}

type ServerConfig struct {
	Port int    `yaml:"port"` // default 7118
	Host string `yaml:"host"` // default "127.0.0.1"
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			MaxReadBytes: 1 << 20,
		},
		LLM: LLMConfig{
			Provider:    ProviderAuto,
			ClaudeCLI:   "claude",
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		Composio: ComposioConfig{
			EntityID: "default",
		},
		Search: SearchConfig{
			MaxResults: 5,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Server: ServerConfig{
			Port: 7118,
			Host: "127.0.0.1",
		},
	}
}

// DefaultPath returns ~/.clerk/config.yaml, or "" if the home directory
// cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".clerk", "config.yaml")
}

// Load builds a Config from defaults, then the YAML file at path, then the
// environment. A missing file is not an error unless path was given
// explicitly.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from environment variables. Malformed numbers
// are collected and reported together.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.Workspace.Root, "CLERK_WORKSPACE")
	str(&c.LLM.Provider, "CLERK_LLM_PROVIDER")
	str(&c.LLM.GeminiAPIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	str(&c.LLM.Model, "CLERK_MODEL")
	str(&c.LLM.ClaudeCLI, "CLERK_CLAUDE_CLI")
	str(&c.Composio.APIKey, "COMPOSIO_API_KEY")
	str(&c.Search.SerpAPIKey, "SERPAPI_KEY", "SERPAPI_API_KEY")
	str(&c.Log.Level, "LOG_LEVEL")
	str(&c.Log.File, "LOG_FILE")

	var errs error
	if v, ok := lookup("MAX_TOKENS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("MAX_TOKENS: %w", err))
		} else {
			c.LLM.MaxTokens = n
		}
	}
	if v, ok := lookup("TEMPERATURE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("TEMPERATURE: %w", err))
		} else {
			c.LLM.Temperature = float32(f)
		}
	}
	if v, ok := lookup("MAX_SEARCH_RESULTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("MAX_SEARCH_RESULTS: %w", err))
		} else {
			c.Search.MaxResults = n
		}
	}
	return errs
}

// Validate checks value ranges. All problems are reported at once.
func (c *Config) Validate() error {
	var errs error
	switch c.LLM.Provider {
	case ProviderAuto, ProviderGemini, ProviderClaude, ProviderNone:
	default:
		errs = multierr.Append(errs, fmt.Errorf("llm.provider: unknown provider %q", c.LLM.Provider))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("llm.maxTokens: must be positive, got %d", c.LLM.MaxTokens))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = multierr.Append(errs, fmt.Errorf("llm.temperature: must be within [0, 2], got %g", c.LLM.Temperature))
	}
	if c.Search.MaxResults <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("search.maxResults: must be positive, got %d", c.Search.MaxResults))
	}
	if c.Workspace.MaxReadBytes <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("workspace.maxReadBytes: must be positive, got %d", c.Workspace.MaxReadBytes))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = multierr.Append(errs, fmt.Errorf("log.format: want console or json, got %q", c.Log.Format))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("server.port: out of range: %d", c.Server.Port))
	}
	return errs
}

// ServerAddress returns the listen address in "host:port" format.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// APIKeyConfigured reports whether key looks like a real credential rather
// than an empty value or a template placeholder.
func APIKeyConfigured(key string) bool {
	key = strings.TrimSpace(key)
	return len(key) > 10 && !strings.HasPrefix(strings.ToLower(key), "your_")
}

// Keys reports which credentials are configured, by environment name.
func (c *Config) Keys() map[string]bool {
	return map[string]bool{
		"COMPOSIO_API_KEY": APIKeyConfigured(c.Composio.APIKey),
		"GEMINI_API_KEY":   APIKeyConfigured(c.LLM.GeminiAPIKey),
		"SERPAPI_KEY":      APIKeyConfigured(c.Search.SerpAPIKey),
	}
}
