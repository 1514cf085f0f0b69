package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/app"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the outbox poller",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := app.OpenRepos(ctx, cfg)
	if err != nil {
		return err
	}
	if err := repos.Migrate(ctx, cfg); err != nil {
		repos.Close(context.Background())
		return err
	}

	a, err := app.New(ctx, cfg, repos)
	if err != nil {
		repos.Close(context.Background())
		return err
	}

	bgCtx, cancelBg := context.WithCancel(context.Background())
	a.RunBackground(bgCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      a.Handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("storefront starting", "port", cfg.HTTP.Port, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			slog.Error("server error", "error", err)
		}
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		shutdownErr = err
		slog.Error("server forced to shutdown", "error", err)
	}
	cancelBg()
	if err := a.Close(shutdownCtx); err != nil {
		slog.Warn("close failed", "error", err)
	}

	slog.Info("server exited")
	return shutdownErr
}
