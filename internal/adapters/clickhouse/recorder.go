package clickhouse

import (
	"context"
	"time"

	"github.com/selivandex/rally-radar/pkg/models"
)

// OutcomeRecorder buffers outcome events and writes them to ClickHouse in batches
type OutcomeRecorder struct {
	writer *BatchWriter[models.OutcomeEvent]
}

// NewOutcomeRecorder creates a recorder writing through repo
func NewOutcomeRecorder(repo *Repository, maxBatch int, maxWait time.Duration) *OutcomeRecorder {
	return newOutcomeRecorder(maxBatch, maxWait, repo.SaveOutcomes)
}

func newOutcomeRecorder(maxBatch int, maxWait time.Duration, save func(context.Context, []models.OutcomeEvent) error) *OutcomeRecorder {
	return &OutcomeRecorder{writer: NewBatchWriter(maxBatch, maxWait, save)}
}

// Name returns sink name
func (r *OutcomeRecorder) Name() string {
	return "clickhouse"
}

// RecordOutcome enqueues an event; it never blocks on ClickHouse
func (r *OutcomeRecorder) RecordOutcome(_ context.Context, ev models.OutcomeEvent) error {
	r.writer.Add(ev)
	return nil
}

// Close flushes pending events
func (r *OutcomeRecorder) Close() error {
	return r.writer.Close()
}
