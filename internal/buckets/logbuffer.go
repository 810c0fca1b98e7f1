// Package buckets batches inference logs in memory and flushes them to the
// database on a timer.
package buckets

import (
	"context"
	"errors"
	"sync"
	"time"

	"healthai/internal/database"
	"healthai/internal/metrics"
	"healthai/internal/shared"

	"go.uber.org/zap"
)

type LogStore interface {
	SaveInferenceLogs(ctx context.Context, logs []database.InferenceLog) error
}

type LogBuffer struct {
	mu       sync.Mutex
	pending  []database.InferenceLog
	timer    *time.Timer
	flushing sync.Mutex
	closed   bool

	store      LogStore
	log        *zap.SugaredLogger
	interval   time.Duration
	retryDelay time.Duration
}

// NewLogBuffer returns a buffer writing to store. A nil store makes Add a
// no-op.
func NewLogBuffer(store LogStore, log *zap.SugaredLogger) *LogBuffer {
	return &LogBuffer{
		store:      store,
		log:        log,
		interval:   shared.LogFlushInterval,
		retryDelay: shared.LogRetryDelay,
	}
}

// Add queues a record. The first record in an empty buffer arms the flush
// timer.
func (b *LogBuffer) Add(l database.InferenceLog) {
	if b == nil || b.store == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.log.Warnw("Dropping inference log after shutdown", "request_id", l.RequestID)
		return
	}
	b.pending = append(b.pending, l)
	metrics.PendingLogs.Set(float64(len(b.pending)))

	if b.timer == nil {
		b.log.Debug("Registering flush for inference logs")
		b.timer = time.AfterFunc(b.interval, func() {
			b.Flush(context.Background())
		})
	}
}

func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Flush writes everything currently pending. Records that still fail after
// MaxFlushRetries attempts are dropped and counted.
func (b *LogBuffer) Flush(ctx context.Context) {
	if b == nil || b.store == nil {
		return
	}
	b.flushing.Lock()
	defer b.flushing.Unlock()

	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	metrics.PendingLogs.Set(0)
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	var err error
retries:
	for attempt := range shared.MaxFlushRetries {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				err = errors.Join(err, ctx.Err())
				break retries
			case <-time.After(b.retryDelay):
			}
		}
		err = b.store.SaveInferenceLogs(ctx, batch)
		if err == nil {
			b.log.Infow("Flushed inference logs", "records", len(batch))
			return
		}
		b.log.Warnw("Failed to save inference logs", "attempt", attempt+1, "error", err)
	}
	b.log.Errorw("Dropping inference logs", "records", len(batch), "error", err)
	metrics.ErrorCount.WithLabelValues("log_buffer", shared.ErrFailedSaveLogs.Code).Inc()
}

// Shutdown stops accepting records and flushes what is pending.
func (b *LogBuffer) Shutdown(ctx context.Context) {
	if b == nil || b.store == nil {
		return
	}
	b.log.Info("Shutting down inference log buffer")
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.Flush(ctx)
}
