package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Flusher writes modified in-memory state to durable storage
type Flusher interface {
	FlushDirty(ctx context.Context) (int, error)
}

// StartPersistenceWorker flushes dirty routes every interval and once more
// when ctx is cancelled.
func StartPersistenceWorker(ctx context.Context, flusher Flusher, interval time.Duration, log *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				flush(ctx, flusher, log)
			case <-ctx.Done():
				// ctx is already cancelled, give the final flush its own deadline
				finalCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				flush(finalCtx, flusher, log)
				cancel()
				return
			}
		}
	}()

	log.Info("persistence worker started", zap.Duration("interval", interval))
	return done
}

func flush(ctx context.Context, flusher Flusher, log *zap.Logger) {
	n, err := flusher.FlushDirty(ctx)
	if err != nil {
		log.Error("error saving routes to PostgreSQL", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("saved routes to PostgreSQL", zap.Int("count", n))
	}
}
