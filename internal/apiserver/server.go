package apiserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/klubi/clerk/internal/registry"
	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// Backend executes commands on behalf of the server. *app.App implements it.
type Backend interface {
	Resolve(text string) v1alpha1.ParsedCommand
	Run(ctx context.Context, text string) (v1alpha1.ParsedCommand, v1alpha1.Result)
	Dispatch(ctx context.Context, cmd v1alpha1.ParsedCommand) v1alpha1.Result
	WebSearch(ctx context.Context, query string, t v1alpha1.SearchType) v1alpha1.Result
	Status() v1alpha1.AgentStatus
}

// Server exposes the clerk backend over HTTP. Operation failures are
// reported inside a 200 Result; only malformed requests get 4xx.
type Server struct {
	router   *mux.Router
	backend  Backend
	registry *registry.Registry
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a fully-wired Server ready to Start().
func NewServer(addr string, backend Backend, reg *registry.Registry, logger *zap.Logger) *Server {
	srv := &Server{
		router:   mux.NewRouter(),
		backend:  backend,
		registry: reg,
		logger:   logger,
	}
	srv.server = &http.Server{
		Addr:         addr,
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
	srv.registerRoutes()
	return srv
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins listening and serving HTTP requests. It blocks until the
// server is shut down or encounters a fatal error.
func (s *Server) Start() error {
	s.logger.Info("API server starting", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
