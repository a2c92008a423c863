// Package httpd implements the HTTP query API server command.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/secnews/cmd/common"
	"github.com/jonesrussell/secnews/internal/api"
)

const shutdownTimeout = 10 * time.Second

// Command returns the httpd command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Serve the read-only article query API",
		Long: `Serve GET /articles, GET /articles/{id}, GET /articles/search and
GET /healthz over the configured storage backend. Stops on SIGINT or
SIGTERM with a graceful drain.`,
		RunE: runHTTPD,
	}
}

// runHTTPD serves the query API until interrupted.
func runHTTPD(cmd *cobra.Command, _ []string) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Logger.Sync() }()

	store, err := deps.OpenStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.StartHTTPServer(deps.Logger, store, &deps.Config.Server)

	errCh := make(chan error, 1)
	go func() {
		deps.Logger.Info("HTTP server listening", "address", srv.Addr)
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case serveErr := <-errCh:
		return fmt.Errorf("http server failed: %w", serveErr)
	case <-ctx.Done():
	}

	deps.Logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return fmt.Errorf("http server shutdown failed: %w", shutdownErr)
	}
	return nil
}
