package storage

import (
	"context"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/sink"
)

// MemoryStore implements sink.Store with an in-memory row slice. It exists
// for testing the writer, batching and retention layers without a database
// file; it is not a production backend.
type MemoryStore struct {
	mu   sync.Mutex
	rows []sink.Row

	// insertErr, when set, fails the next InsertBatch with that error.
	insertErr error
	// deleteErr, when set, fails the next DeleteOlderThan with that error.
	deleteErr error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// FailNextInsert makes the next InsertBatch call fail with err.
func (s *MemoryStore) FailNextInsert(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertErr = err
}

// FailNextDelete makes the next DeleteOlderThan call fail with err.
func (s *MemoryStore) FailNextDelete(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErr = err
}

// InsertBatch appends all rows in order, or none when a failure is injected.
func (s *MemoryStore) InsertBatch(ctx context.Context, rows []sink.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertErr != nil {
		err := s.insertErr
		s.insertErr = nil
		return sink.NewStorageError("memory", "insert_batch", err)
	}

	s.rows = append(s.rows, rows...)
	return nil
}

// DeleteOlderThan removes at most limit rows older than cutoff. Rows compare
// by their rendered whole-second time string, exactly as the SQLite backend
// compares the time column.
func (s *MemoryStore) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		err := s.deleteErr
		s.deleteErr = nil
		return 0, sink.NewStorageError("memory", "delete", err)
	}

	bound := cutoff.Format(sink.LongDateLayout)

	var deleted int64
	kept := s.rows[:0]
	for _, row := range s.rows {
		if deleted < int64(limit) && row.LongDate < bound {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return deleted, nil
}

// Rows returns a copy of the stored rows in insertion order.
func (s *MemoryStore) Rows() []sink.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sink.Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Count reports the number of stored rows.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows)), nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
