// Package batching queues individual log records and delivers them to a
// sink.Handler in ordered batches, flushed by size or time.
//
// The batcher is the default implementation of the delivery layer the batch
// writer deliberately does not contain. Any scheduling policy can replace it:
// the writer only depends on the Handler contract.
//
// Submission is backpressure-free by design: Submit never blocks the
// application emitting the records. The costs of that choice are explicit,
// records are dropped (and counted) when the queue is full, and a batch the
// handler rejects is dropped rather than retried.
package batching
