package worker

import (
	"context"

	"routeline/internal/config"

	"go.uber.org/zap"
)

// StartAllWorkers initializes and starts all background workers.
// Workers stop when ctx is cancelled; the returned channel closes once they have.
func StartAllWorkers(ctx context.Context, flusher Flusher, log *zap.Logger) <-chan struct{} {
	log.Info("starting all workers")

	done := StartPersistenceWorker(ctx, flusher, config.PostgresFlushInterval, log)

	log.Info("all workers started")
	return done
}
