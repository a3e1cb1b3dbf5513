package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/carwash-advisor/internal/infra/config"
	"github.com/yanqian/carwash-advisor/internal/infra/scheduler"
)

// App encapsulates the HTTP server and daily refresh lifecycle.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	server    *http.Server
	refresher *scheduler.DailyRefresher
}

// NewApp is used by Wire to build the runnable app. refresher may be nil when
// the daily refresh is disabled.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, refresher *scheduler.DailyRefresher) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, refresher: refresher}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	if a.refresher != nil {
		if err := a.refresher.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := a.refresher.Shutdown(); err != nil {
				a.logger.Error("scheduler shutdown failed", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
