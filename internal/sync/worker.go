package sync

import (
	"context"
	"time"

	"github.com/PD410/coinbase-notion-sync/internal/domain"
	"github.com/PD410/coinbase-notion-sync/internal/logger"
)

// Runner runs one sync to completion.
type Runner interface {
	Run(ctx context.Context) domain.SyncResult
}

// Worker runs syncs on a fixed schedule.
type Worker struct {
	runner   Runner
	interval time.Duration
}

// NewWorker creates a scheduled sync worker.
func NewWorker(runner Runner, interval time.Duration) *Worker {
	return &Worker{
		runner:   runner,
		interval: interval,
	}
}

// Run syncs immediately, then on every tick, until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	log := logger.FromContext(ctx)
	log.Info().Dur("interval", w.interval).Msg("Sync worker starting")

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Sync worker shutting down")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	log := logger.FromContext(ctx)
	result := w.runner.Run(ctx)
	if !result.Success {
		log.Error().Str("error", result.Error).Msg("Scheduled sync failed")
	}
}
