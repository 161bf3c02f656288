// Package worker contains background deliveries that run alongside the HTTP
// server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"passport/internal/delivery"
	"passport/internal/usecase"

	"go.uber.org/fx"
)

// defaultSweepInterval is how often expired auth codes and refresh tokens are
// swept. The store's native TTL remains the primary expiry mechanism; the
// sweep keeps stores without one tidy.
const defaultSweepInterval = time.Hour

// cleanupWorker periodically removes expired records.
type cleanupWorker struct {
	sessions usecase.SessionUsecase
	logger   *slog.Logger
	interval time.Duration
	done     chan struct{}
}

// CleanupParams holds dependencies for the cleanup worker.
type CleanupParams struct {
	fx.In
	fx.Lifecycle

	Sessions usecase.SessionUsecase
	Logger   *slog.Logger
}

// NewCleanupWorker creates the periodic expiry sweeper.
func NewCleanupWorker(params CleanupParams) (delivery.Delivery, error) {
	worker := &cleanupWorker{
		sessions: params.Sessions,
		logger:   params.Logger,
		interval: defaultSweepInterval,
		done:     make(chan struct{}),
	}

	params.Append(fx.Hook{
		OnStop: worker.stop,
	})

	return worker, nil
}

// Serve runs the sweep loop until the worker is stopped.
func (w *cleanupWorker) Serve(ctx context.Context) error {
	w.logger.Info("Starting cleanup worker", slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.sessions.CleanupExpiredSessions(ctx); err != nil {
				w.logger.Error("Cleanup sweep failed", slog.Any("error", err))
			}
		case <-w.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *cleanupWorker) stop(_ context.Context) error {
	w.logger.Info("Shutting down cleanup worker")
	close(w.done)

	return nil
}
