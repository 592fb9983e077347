package service

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"yatube/app/config"
	"yatube/app/logging"
	"yatube/app/routes"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(dbPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the blog service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*dbPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return RunAppServer(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}

// RunAppServer serves the blog until ctx is cancelled, then drains
// in-flight requests.
func RunAppServer(ctx context.Context, cfg *config.Config) error {
	logger := logging.Logger

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	media, err := openMedia(cfg)
	if err != nil {
		return err
	}

	app, err := routes.SetupRoutes(cfg, repo, media, logger)
	if err != nil {
		return errors.Wrap(err, "setting up routes")
	}
	defer app.Close()

	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	app.Limiter.StartCleanup(time.Minute, stopCleanup)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting blog service", zap.String("addr", cfg.Addr), zap.String("db", cfg.DBPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server error")
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down server")
	}
	return nil
}
