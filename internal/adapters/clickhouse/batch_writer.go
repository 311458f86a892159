package clickhouse

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/pkg/logger"
)

// BatchWriter buffers records and flushes them in batches, either when the
// buffer is full or every maxWait.
type BatchWriter[T any] struct {
	buffer      []T
	bufferMu    sync.Mutex
	maxBatch    int
	flushTicker *time.Ticker
	flushFunc   func(context.Context, []T) error
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	log         *zap.Logger
}

// NewBatchWriter creates new batch writer and starts its flush loop
func NewBatchWriter[T any](maxBatch int, maxWait time.Duration, flushFunc func(context.Context, []T) error) *BatchWriter[T] {
	if maxBatch <= 0 {
		maxBatch = 100
	}
	if maxWait <= 0 {
		maxWait = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	bw := &BatchWriter[T]{
		buffer:      make([]T, 0, maxBatch),
		maxBatch:    maxBatch,
		flushTicker: time.NewTicker(maxWait),
		flushFunc:   flushFunc,
		ctx:         ctx,
		cancel:      cancel,
		log:         logger.Named("clickhouse.batch"),
	}

	bw.wg.Add(1)
	go bw.autoFlush()

	return bw
}

// Add adds record to buffer
func (bw *BatchWriter[T]) Add(record T) {
	bw.bufferMu.Lock()
	bw.buffer = append(bw.buffer, record)
	shouldFlush := len(bw.buffer) >= bw.maxBatch
	bw.bufferMu.Unlock()

	if shouldFlush {
		bw.flush(bw.ctx)
	}
}

func (bw *BatchWriter[T]) autoFlush() {
	defer bw.wg.Done()

	for {
		select {
		case <-bw.flushTicker.C:
			bw.flush(bw.ctx)
		case <-bw.ctx.Done():
			// Final flush on a fresh context, the writer's own is already cancelled
			bw.flush(context.Background())
			return
		}
	}
}

func (bw *BatchWriter[T]) flush(parent context.Context) {
	bw.bufferMu.Lock()
	if len(bw.buffer) == 0 {
		bw.bufferMu.Unlock()
		return
	}

	toWrite := make([]T, len(bw.buffer))
	copy(toWrite, bw.buffer)
	bw.buffer = bw.buffer[:0]
	bw.bufferMu.Unlock()

	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	if err := bw.flushFunc(ctx, toWrite); err != nil {
		bw.log.Error("failed to flush batch",
			zap.Int("records", len(toWrite)),
			zap.Error(err),
		)
		return
	}

	bw.log.Debug("flushed batch", zap.Int("records", len(toWrite)))
}

// Close stops the writer and flushes remaining data
func (bw *BatchWriter[T]) Close() error {
	bw.flushTicker.Stop()
	bw.cancel()
	bw.wg.Wait()
	return nil
}
