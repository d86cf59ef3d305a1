package sink

import (
	"context"
	"log/slog"
	"time"
)

// WriterConfig contains configuration for the batch writer.
type WriterConfig struct {
	// UTC renders both timestamp columns in UTC instead of local time.
	// It must match the time base configured for the retention cleaner.
	UTC bool
}

// Writer persists batches of log records atomically.
//
// Writer implements Handler, so it can be handed directly to the batching
// layer as the delivery target. It never retries a failed batch and never
// raises errors to the caller: failures go to the diagnostics logger and are
// reported only through the boolean result, leaving retry policy to the
// delivery layer.
type Writer struct {
	store   Store
	config  WriterConfig
	logger  *slog.Logger
	metrics *Metrics
}

// NewWriter creates a batch writer on top of the given store. A nil logger
// falls back to slog.Default; a nil metrics instance disables metrics.
func NewWriter(store Store, config WriterConfig, logger *slog.Logger, metrics *Metrics) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		store:   store,
		config:  config,
		logger:  logger.With("component", "sink.writer"),
		metrics: metrics,
	}
}

// Persist writes the whole batch in one transaction and reports success.
//
// Records are inserted in batch order. Either every record becomes visible in
// the store or none does; any storage error rolls the batch back, is logged
// through the diagnostics channel and yields false. An empty batch is a
// successful no-op.
func (w *Writer) Persist(ctx context.Context, batch Batch) bool {
	if len(batch) == 0 {
		return true
	}

	rows := make([]Row, len(batch))
	for i, record := range batch {
		rows[i] = RenderRow(record, w.config.UTC)
	}

	start := time.Now()
	err := w.store.InsertBatch(ctx, rows)
	elapsed := time.Since(start)

	if err != nil {
		w.metrics.ObservePersist(false, len(batch), elapsed)
		w.logger.Error("batch persist failed",
			"records", len(batch),
			"error", err,
		)
		return false
	}

	w.metrics.ObservePersist(true, len(batch), elapsed)
	w.logger.Debug("batch persisted",
		"records", len(batch),
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return true
}

// OnBatchReady implements Handler.
func (w *Writer) OnBatchReady(ctx context.Context, batch Batch) bool {
	return w.Persist(ctx, batch)
}
