package batching

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/callisto/pkg/sink"
)

// Config contains configuration for the batcher.
type Config struct {
	// BatchSize flushes a batch as soon as this many records are queued.
	// Default: 100
	BatchSize int

	// FlushInterval flushes whatever is queued after this long, so records
	// never sit unbounded in memory on a quiet stream.
	// Default: 2 seconds
	FlushInterval time.Duration

	// QueueSize bounds the submit queue. When the queue is full Submit drops
	// the record instead of blocking the caller.
	// Default: 10000
	QueueSize int
}

// DefaultConfig returns the default batcher configuration.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:     100,
		FlushInterval: 2 * time.Second,
		QueueSize:     10000,
	}
}

// Validate rejects configurations that cannot be run.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return sink.NewConfigError("batching.batch_size",
			fmt.Errorf("batch size must be positive, got %d", c.BatchSize))
	}
	if c.FlushInterval <= 0 {
		return sink.NewConfigError("batching.flush_interval",
			fmt.Errorf("flush interval must be positive, got %s", c.FlushInterval))
	}
	return nil
}

// Batcher queues submitted records and delivers them to a sink.Handler in
// bounded, ordered batches, triggered by size or time.
//
// Delivery is serialized: a single goroutine owns the queue and invokes the
// handler, so the handler is never called concurrently with itself and
// batches arrive in submission order. Submission never blocks the caller: a
// full queue drops the record and reports it through diagnostics and metrics.
// A batch the handler rejects is dropped as well; the batcher owns no retry
// policy.
type Batcher struct {
	handler sink.Handler
	config  *Config
	logger  *slog.Logger
	metrics *sink.Metrics

	records chan *sink.Record
	stop    chan struct{}
	done    chan struct{}

	mu      sync.Mutex
	started bool
}

// NewBatcher creates a batcher that delivers to the given handler. The
// configuration is validated; a nil config uses defaults, a nil logger falls
// back to slog.Default, a nil metrics instance disables metrics.
func NewBatcher(handler sink.Handler, config *Config, logger *slog.Logger, metrics *sink.Metrics) (*Batcher, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Batcher{
		handler: handler,
		config:  config,
		logger:  logger.With("component", "sink.batching"),
		metrics: metrics,
		records: make(chan *sink.Record, config.QueueSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start launches the delivery goroutine. It is safe to call once.
func (b *Batcher) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return
	}
	b.started = true

	go b.run(ctx)

	b.logger.Info("batcher started",
		"batch_size", b.config.BatchSize,
		"flush_interval", b.config.FlushInterval.String(),
		"queue_size", b.config.QueueSize,
	)
}

// Submit enqueues one record for delivery. It never blocks: when the queue is
// full the record is dropped and counted.
func (b *Batcher) Submit(record *sink.Record) {
	select {
	case b.records <- record:
	default:
		b.metrics.ObserveDropped(1)
		b.logger.Warn("submit queue full, record dropped")
	}
}

// Stop flushes whatever is queued and waits for the delivery goroutine to
// exit. It is safe to call more than once.
func (b *Batcher) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return
	}
	b.started = false

	close(b.stop)
	<-b.done
}

// run is the single delivery goroutine: it accumulates records and flushes on
// size, on the flush interval, and once more on shutdown.
func (b *Batcher) run(ctx context.Context) {
	defer close(b.done)

	ticker := time.NewTicker(b.config.FlushInterval)
	defer ticker.Stop()

	pending := make(sink.Batch, 0, b.config.BatchSize)

	for {
		select {
		case record := <-b.records:
			pending = append(pending, record)
			if len(pending) >= b.config.BatchSize {
				pending = b.flush(ctx, pending)
			}

		case <-ticker.C:
			pending = b.flush(ctx, pending)

		case <-b.stop:
			// Drain the queue, then deliver the final batch.
			for {
				select {
				case record := <-b.records:
					pending = append(pending, record)
					if len(pending) >= b.config.BatchSize {
						pending = b.flush(ctx, pending)
					}
				default:
					b.flush(ctx, pending)
					return
				}
			}

		case <-ctx.Done():
			b.flush(ctx, pending)
			return
		}
	}
}

// flush hands the pending batch to the handler and returns a reset buffer;
// the handler is synchronous, so the buffer is free again once it returns.
// The batch id only serves diagnostics correlation; a rejected batch is lost
// unless the caller layers its own retry on top of the handler.
func (b *Batcher) flush(ctx context.Context, pending sink.Batch) sink.Batch {
	if len(pending) == 0 {
		return pending
	}

	batchID := uuid.NewString()
	if !b.handler.OnBatchReady(ctx, pending) {
		b.metrics.ObserveDropped(len(pending))
		b.logger.Warn("batch rejected by handler, records dropped",
			"batch_id", batchID,
			"records", len(pending),
		)
	} else {
		b.logger.Debug("batch delivered",
			"batch_id", batchID,
			"records", len(pending),
		)
	}

	return pending[:0]
}
