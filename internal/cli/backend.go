package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/klubi/clerk/internal/app"
	"github.com/klubi/clerk/internal/config"
	"github.com/klubi/clerk/internal/logging"
	"github.com/klubi/clerk/internal/registry"
	"github.com/klubi/clerk/pkg/apis/v1alpha1"
	"github.com/klubi/clerk/pkg/client"
)

// backend executes commands either in-process or through a clerk server.
type backend interface {
	Run(ctx context.Context, text string) (*v1alpha1.RunResponse, error)
	Dispatch(ctx context.Context, cmd v1alpha1.ParsedCommand) (*v1alpha1.Result, error)
	Search(ctx context.Context, query string, t v1alpha1.SearchType) (*v1alpha1.Result, error)
	Status(ctx context.Context) (*v1alpha1.AgentStatus, error)
}

type localBackend struct {
	app *app.App
}

func (b localBackend) Run(ctx context.Context, text string) (*v1alpha1.RunResponse, error) {
	cmd, res := b.app.Run(ctx, text)
	return &v1alpha1.RunResponse{Command: cmd, Result: res}, nil
}

func (b localBackend) Dispatch(ctx context.Context, cmd v1alpha1.ParsedCommand) (*v1alpha1.Result, error) {
	res := b.app.Dispatch(ctx, cmd)
	return &res, nil
}

func (b localBackend) Search(ctx context.Context, query string, t v1alpha1.SearchType) (*v1alpha1.Result, error) {
	res := b.app.WebSearch(ctx, query, t)
	return &res, nil
}

func (b localBackend) Status(context.Context) (*v1alpha1.AgentStatus, error) {
	st := b.app.Status()
	return &st, nil
}

type remoteBackend struct {
	client *client.Client
}

func (b remoteBackend) Run(ctx context.Context, text string) (*v1alpha1.RunResponse, error) {
	return b.client.Run(ctx, text)
}

func (b remoteBackend) Dispatch(ctx context.Context, cmd v1alpha1.ParsedCommand) (*v1alpha1.Result, error) {
	return b.client.Dispatch(ctx, cmd)
}

func (b remoteBackend) Search(ctx context.Context, query string, t v1alpha1.SearchType) (*v1alpha1.Result, error) {
	return b.client.Search(ctx, query, t)
}

func (b remoteBackend) Status(ctx context.Context) (*v1alpha1.AgentStatus, error) {
	return b.client.Status(ctx)
}

// environment lazily builds configuration, logger and backend so that
// commands such as version and tools never touch credentials.
type environment struct {
	cfgFile    string
	verbose    bool
	serverAddr string

	cfg      *config.Config
	logger   *zap.Logger
	app      *app.App
	backend  backend
	registry *registry.Registry
}

func newEnvironment(cfgFile string, verbose bool, serverAddr string) *environment {
	return &environment{
		cfgFile:    cfgFile,
		verbose:    verbose,
		serverAddr: serverAddr,
		registry:   registry.New(),
	}
}

// Config loads the configuration once.
func (e *environment) Config() (*config.Config, error) {
	if e.cfg != nil {
		return e.cfg, nil
	}
	cfg, err := config.Load(e.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	e.cfg = cfg
	return cfg, nil
}

// Logger builds the logger once.
func (e *environment) Logger() (*zap.Logger, error) {
	if e.logger != nil {
		return e.logger, nil
	}
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log, e.verbose)
	if err != nil {
		return nil, err
	}
	e.logger = logger
	return logger, nil
}

// App builds the in-process application once.
func (e *environment) App(ctx context.Context) (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	logger, err := e.Logger()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing clerk: %w", err)
	}
	e.app = a
	return a, nil
}

// Backend returns the remote backend when --server is set, otherwise the
// in-process one.
func (e *environment) Backend(ctx context.Context) (backend, error) {
	if e.backend != nil {
		return e.backend, nil
	}
	if e.serverAddr != "" {
		e.backend = remoteBackend{client: client.New(e.serverAddr)}
		return e.backend, nil
	}
	a, err := e.App(ctx)
	if err != nil {
		return nil, err
	}
	e.backend = localBackend{app: a}
	return e.backend, nil
}

func (e *environment) close() {
	if e == nil {
		return
	}
	if e.app != nil {
		_ = e.app.Close()
	} else if e.logger != nil {
		_ = e.logger.Sync()
	}
}
