package sink

import (
	"context"
	"time"
)

// Timestamp layouts used for the two rendered time columns. Both columns
// always carry the same instant; they differ only in precision. LongDateLayout
// sorts lexicographically, which is what makes bounded range deletes on the
// long_date column work.
const (
	// TimestampLayout renders the primary timestamp column with sub-second
	// precision and a zone offset.
	TimestampLayout = "2006-01-02 15:04:05.000000-07:00"

	// LongDateLayout renders the long_date column truncated to whole seconds.
	LongDateLayout = "2006-01-02 15:04:05"
)

// Well-known property names read by the record mapping.
const (
	// PropSourceContext is the conventional property carrying the logger
	// (source) identifier.
	PropSourceContext = "SourceContext"

	// PropRequestID is the conventional property carrying the correlation
	// identifier.
	PropRequestID = "RequestId"
)

// Record is a single structured log event handed to the sink.
//
// Timestamp and Level are mandatory; everything else defaults to the empty
// string when absent. The logger and correlation identifiers are not carried
// as fields: they are resolved from Properties at persistence time (see
// ResolveLogger).
type Record struct {
	// Timestamp is the instant the event was emitted. Never zero.
	Timestamp time.Time

	// Level is the event severity.
	Level Level

	// Message is the rendered message text.
	Message string

	// Err is an optional attached error. Its full rendering is persisted in
	// the exception column.
	Err error

	// Properties holds the structured key/value properties attached to the
	// event. Values are treated as scalars when rendered.
	Properties map[string]any
}

// Batch is an ordered, non-empty, bounded collection of records persisted
// atomically: either every record in the batch becomes visible in the store,
// or none does.
type Batch []*Record

// Row is a record rendered to the column values of the log table, in column
// order. Rendering is deterministic and side-effect free; see RenderRow.
type Row struct {
	Timestamp  string
	Level      string
	Message    string
	LongDate   string
	Logger     string
	TraceID    string
	Exception  string
	Properties string
}

// Store is the storage backend shared by the batch writer and the retention
// cleaner. Implementations must make InsertBatch atomic and must bound each
// DeleteOlderThan call to at most limit rows, executed as a single statement
// on its own connection.
type Store interface {
	// InsertBatch persists all rows in order inside one transaction.
	// On error nothing is persisted.
	InsertBatch(ctx context.Context, rows []Row) error

	// DeleteOlderThan removes at most limit rows whose time column is older
	// than cutoff and reports the number of rows actually removed.
	// A limit of zero removes nothing.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)

	// Close releases the backend's resources.
	Close() error
}

// Handler is the delivery contract consumed by the external queueing/batching
// layer: it is invoked with a ready batch and reports whether the batch was
// persisted. Retry and backoff policy belong to the caller, never to the
// handler.
type Handler interface {
	OnBatchReady(ctx context.Context, batch Batch) bool
}
