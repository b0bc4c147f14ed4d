package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klubi/clerk/internal/apiserver"
)

func newServeCmd(get func() *environment) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the clerk HTTP API",
		Long:  "Serve resolve, run, dispatch, search and tool listing over HTTP.",
		Example: `  clerk serve
  clerk serve --port 8080 --host 0.0.0.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := get()
			if env.serverAddr != "" {
				return errors.New("--server cannot be used with serve")
			}

			cfg, err := env.Config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := env.App(ctx)
			if err != nil {
				return err
			}
			logger := a.Logger

			addr := cfg.ServerAddress()
			apiSrv := apiserver.NewServer(addr, a, a.Registry, logger)

			out := cmd.OutOrStdout()
			color.New(color.FgCyan, color.Bold).Fprintln(out, "clerk API server")
			fmt.Fprintf(out, "   Listening:  http://%s\n", addr)
			fmt.Fprintf(out, "   Workspace:  %s\n", a.FS.Root())
			fmt.Fprintln(out)

			errCh := make(chan error, 1)
			go func() {
				if err := apiSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case sig := <-sigCh:
				logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			case <-ctx.Done():
			case err := <-errCh:
				logger.Error("API server error", zap.Error(err))
				return err
			}

			logger.Info("shutting down gracefully...")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			if err := apiSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error("API server shutdown error", zap.Error(err))
			}
			logger.Info("clerk server stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 7118, "API server port")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "API server host")

	return cmd
}
