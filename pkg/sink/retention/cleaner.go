package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/callisto/pkg/sink"
)

// Config contains configuration for the retention cleaner. It is constructed
// once at sink startup and immutable afterwards.
type Config struct {
	// Window is the maximum age a record may reach before it becomes
	// eligible for deletion. Non-positive disables retention.
	Window time.Duration

	// Frequency is the fixed period between cleanup passes. Non-positive
	// disables retention.
	Frequency time.Duration

	// DeleteCap is the maximum number of rows removed by a single delete
	// statement, bounding how long any one statement holds table locks.
	// Must be non-negative. Caps of 0 and 1 run a single chunk per pass.
	DeleteCap int

	// UTC computes the expiration cutoff in UTC instead of local time. It
	// must match the time base the writer renders the time column with.
	UTC bool

	// InitialDelay postpones the first pass after Start, keeping cleanup
	// clear of application startup work.
	// Default: 30 seconds
	InitialDelay time.Duration
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		Window:       7 * 24 * time.Hour,
		Frequency:    10 * time.Minute,
		DeleteCap:    500,
		UTC:          true,
		InitialDelay: 30 * time.Second,
	}
}

// Enabled reports whether retention cleanup is active. Retention is disabled
// when either the window or the frequency is absent or non-positive.
func (c *Config) Enabled() bool {
	return c.Window > 0 && c.Frequency > 0
}

// Validate rejects configurations that cannot be run. A negative delete cap
// is a fatal setup error.
func (c *Config) Validate() error {
	if c.DeleteCap < 0 {
		return sink.NewConfigError("retention.delete_cap",
			fmt.Errorf("delete cap must be non-negative, got %d", c.DeleteCap))
	}
	return nil
}

// Cleaner deletes expired log rows in capped chunks.
//
// A Cleaner runs unattended: errors abort the current pass, go to the
// diagnostics logger and are swallowed, and the next scheduled pass proceeds
// regardless. It shares the store with the batch writer without any
// application-level locking; both rely on the store's own transaction
// isolation, since inserts and expired-row deletes touch disjoint rows.
type Cleaner struct {
	store   sink.Store
	config  *Config
	logger  *slog.Logger
	metrics *sink.Metrics
}

// NewCleaner creates a retention cleaner over the given store. The
// configuration is validated; a nil config uses defaults, a nil logger falls
// back to slog.Default, a nil metrics instance disables metrics.
func NewCleaner(store sink.Store, config *Config, logger *slog.Logger, metrics *sink.Metrics) (*Cleaner, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Cleaner{
		store:   store,
		config:  config,
		logger:  logger.With("component", "sink.retention"),
		metrics: metrics,
	}, nil
}

// Config returns the cleaner's immutable configuration.
func (c *Cleaner) Config() *Config {
	return c.config
}

// RunOnce executes one cleanup pass: it computes the expiration cutoff and
// deletes older rows in chunks of at most DeleteCap rows, each chunk a single
// bounded statement on its own connection, until nothing more qualifies.
//
// The loop continues only while a chunk deleted at least DeleteCap rows and
// more than one row. Caps of 0 and 1 are special-cased to exactly one chunk,
// since the literal condition would otherwise never terminate on a backlog.
// Returns the total rows deleted; on error the pass is aborted as a whole.
func (c *Cleaner) RunOnce(ctx context.Context) (int64, error) {
	cutoff := c.cutoff()
	start := time.Now()

	var total int64
	for {
		affected, err := c.store.DeleteOlderThan(ctx, cutoff, c.config.DeleteCap)
		if err != nil {
			c.metrics.ObservePass(total, time.Since(start), err)
			return total, sink.NewRetentionError(c.config.Window.String(), err)
		}
		total += affected

		if c.config.DeleteCap <= 1 {
			break
		}
		if affected < int64(c.config.DeleteCap) || affected <= 1 {
			break
		}
	}

	elapsed := time.Since(start)
	c.metrics.ObservePass(total, elapsed, nil)

	if total > 0 {
		c.logger.Info("expired log rows deleted",
			"deleted", total,
			"cutoff", cutoff.Format(sink.LongDateLayout),
			"elapsed_ms", elapsed.Milliseconds(),
		)
	} else {
		c.logger.Debug("no expired log rows",
			"cutoff", cutoff.Format(sink.LongDateLayout),
		)
	}

	return total, nil
}

// cutoff computes the expiration cutoff in the configured time base.
func (c *Cleaner) cutoff() time.Time {
	now := time.Now()
	if c.config.UTC {
		now = now.UTC()
	}
	return now.Add(-c.config.Window)
}
