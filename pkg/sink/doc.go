// Package sink implements a durable sink for structured log records.
//
// The sink has two independent moving parts that share one storage target:
//
//   - The batch Writer persists ready-made batches of records. Each batch is
//     written in a single transaction with one prepared insert statement, so
//     a batch is either fully visible in the store or not at all.
//   - The retention Cleaner (package retention) periodically deletes records
//     older than a configured window, in capped chunks.
//
// The upstream queueing and batch-triggering policy is deliberately not part
// of this package: the Writer implements the Handler contract and any
// delivery layer can drive it. Package batching provides a simple size/time
// batcher for callers that do not bring their own.
//
// # Record Mapping
//
// Records are rendered to table rows by RenderRow. Severity levels map
// through a fixed total table (Verbose→TRACE ... Fatal→FATAL, anything
// else→INFO). The logger identifier is resolved from event properties with a
// logTag-marked property taking precedence over SourceContext; see
// ResolveLogger. Two timestamp strings are rendered per record, one with
// sub-second precision and zone offset and one truncated to whole seconds,
// both reading the same instant.
//
// # Failure Semantics
//
// Nothing in this package ever logs through the record stream it persists:
// internal failures go to a side diagnostics logger (slog), avoiding
// recursive logging. A failed batch is reported only through the boolean
// result of Persist; the delivery layer owns any retry policy.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore(storage.DefaultSQLiteConfig(), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	writer := sink.NewWriter(store, sink.WriterConfig{UTC: true}, nil, nil)
//	ok := writer.Persist(ctx, batch)
package sink
