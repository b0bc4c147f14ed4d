// Package app wires configuration into the collaborators, the dispatcher and
// the tool registry. The CLI, the API server and the console share one App.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/klubi/clerk/internal/actions"
	"github.com/klubi/clerk/internal/agent"
	"github.com/klubi/clerk/internal/composio"
	"github.com/klubi/clerk/internal/config"
	"github.com/klubi/clerk/internal/dispatch"
	"github.com/klubi/clerk/internal/fsops"
	"github.com/klubi/clerk/internal/intent"
	"github.com/klubi/clerk/internal/registry"
	"github.com/klubi/clerk/internal/search"
	"github.com/klubi/clerk/internal/serpapi"
	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// Version is set at build time with -ldflags "-X".
var Version = "0.1.0-dev"

type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	FS         *fsops.FS
	Registry   *registry.Registry
	Provider   actions.Provider
	Search     *search.Service
	Agent      *agent.Agent
	Dispatcher *dispatch.Dispatcher
}

// Option adjusts how New builds collaborators.
type Option func(*options)

type options struct {
	gemini func(ctx context.Context, apiKey string) (agent.GeminiClient, error)
}

// WithGeminiClient replaces the genai client constructor.
func WithGeminiClient(fn func(ctx context.Context, apiKey string) (agent.GeminiClient, error)) Option {
	return func(o *options) { o.gemini = fn }
}

// New builds an App from cfg. Missing credentials are not errors: the
// collaborators that need them report CollaboratorUnavailable when used.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := options{gemini: agent.NewGeminiClient}
	for _, fn := range opts {
		fn(&o)
	}

	fs := fsops.New(cfg.Workspace.Root).WithMaxRead(cfg.Workspace.MaxReadBytes)

	var direct *serpapi.Client
	if config.APIKeyConfigured(cfg.Search.SerpAPIKey) {
		var sopts []serpapi.Option
		if cfg.Search.BaseURL != "" {
			sopts = append(sopts, serpapi.WithBaseURL(cfg.Search.BaseURL))
		}
		direct = serpapi.New(cfg.Search.SerpAPIKey, sopts...)
	}

	provider := newProvider(ctx, cfg, fs, direct, logger)

	completer, err := newCompleter(ctx, cfg, o, logger)
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	searcher := search.New(provider, direct, cfg.Search.MaxResults, logger.Named("search"))
	ag := agent.New(completer, provider, agent.Options{
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, logger.Named("agent"))

	a := &App{
		Config:     cfg,
		Logger:     logger,
		FS:         fs,
		Registry:   reg,
		Provider:   provider,
		Search:     searcher,
		Agent:      ag,
		Dispatcher: dispatch.New(fs, reg, searcher, ag, logger.Named("dispatch")),
	}

	logger.Debug("clerk initialized",
		zap.String("workspace", fs.Root()),
		zap.String("toolProvider", provider.Name()),
		zap.Int("actions", len(provider.Actions())),
		zap.Bool("llm", completer != nil),
	)
	return a, nil
}

func newProvider(ctx context.Context, cfg *config.Config, fs *fsops.FS, direct *serpapi.Client, logger *zap.Logger) actions.Provider {
	if !config.APIKeyConfigured(cfg.Composio.APIKey) {
		return actions.NewLocal(fs, direct)
	}

	var copts []composio.Option
	if cfg.Composio.BaseURL != "" {
		copts = append(copts, composio.WithBaseURL(cfg.Composio.BaseURL))
	}
	if cfg.Composio.EntityID != "" {
		copts = append(copts, composio.WithEntityID(cfg.Composio.EntityID))
	}
	c := composio.New(cfg.Composio.APIKey, logger.Named("composio"), copts...)
	if _, err := c.Discover(ctx); err != nil {
		logger.Warn("composio action discovery failed, assuming full catalogue", zap.Error(err))
	}
	return c
}

func newCompleter(ctx context.Context, cfg *config.Config, o options, logger *zap.Logger) (agent.Completer, error) {
	gemini := func() (agent.Completer, error) {
		client, err := o.gemini(ctx, cfg.LLM.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		return agent.NewGemini(client, cfg.LLM.Model, logger.Named("gemini")), nil
	}
	claude := func() agent.Completer {
		return agent.NewClaude(cfg.LLM.ClaudeCLI, cfg.LLM.Model, logger.Named("claude"))
	}
	hasGemini := config.APIKeyConfigured(cfg.LLM.GeminiAPIKey)

	switch cfg.LLM.Provider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderGemini:
		if !hasGemini {
			return nil, nil
		}
		return gemini()
	case config.ProviderClaude:
		return claude(), nil
	case config.ProviderAuto, "":
		if hasGemini {
			return gemini()
		}
		if agent.ClaudeAvailable(cfg.LLM.ClaudeCLI) {
			return claude(), nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
}

// Resolve maps text onto a command without executing it.
func (a *App) Resolve(text string) v1alpha1.ParsedCommand {
	return intent.Resolve(text)
}

// Run resolves and dispatches text.
func (a *App) Run(ctx context.Context, text string) (v1alpha1.ParsedCommand, v1alpha1.Result) {
	return a.Dispatcher.Run(ctx, text)
}

// Dispatch executes an already resolved command.
func (a *App) Dispatch(ctx context.Context, cmd v1alpha1.ParsedCommand) v1alpha1.Result {
	return a.Dispatcher.Dispatch(ctx, cmd)
}

// WebSearch searches without going through the resolver, which lets callers
// pick the search type.
func (a *App) WebSearch(ctx context.Context, query string, t v1alpha1.SearchType) v1alpha1.Result {
	return a.Dispatch(ctx, v1alpha1.ParsedCommand{
		Intent:     v1alpha1.IntentWebSearch,
		Query:      &query,
		SearchType: t,
		RawText:    query,
	})
}

// Status summarizes the configured collaborators.
func (a *App) Status() v1alpha1.AgentStatus {
	st := v1alpha1.AgentStatus{
		Version:        Version,
		Workspace:      a.FS.Root(),
		LLMProvider:    "none",
		ToolProvider:   a.Provider.Name(),
		AvailableTools: len(a.Provider.Actions()),
		Keys:           a.Config.Keys(),
	}
	if c := a.Agent.Completer(); c != nil {
		st.LLMProvider = c.Name()
		st.Model = c.Model()
	}
	return st
}

// Close flushes the logger.
func (a *App) Close() error {
	_ = a.Logger.Sync()
	return nil
}
