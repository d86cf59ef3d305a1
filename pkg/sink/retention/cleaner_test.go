package retention_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/sink"
	"mercator-hq/callisto/pkg/sink/retention"
	"mercator-hq/callisto/pkg/sink/storage"
)

// recordingStore wraps a store and records the limit passed to each delete
// call together with the rows it affected.
type recordingStore struct {
	sink.Store

	limits   []int
	affected []int64
}

func (s *recordingStore) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	s.limits = append(s.limits, limit)
	n, err := s.Store.DeleteOlderThan(ctx, cutoff, limit)
	s.affected = append(s.affected, n)
	return n, err
}

// seedRows inserts n rows whose time column lies at the given instant.
func seedRows(t *testing.T, store sink.Store, n int, at time.Time) {
	t.Helper()

	rows := make([]sink.Row, n)
	for i := range rows {
		rows[i] = sink.Row{
			Timestamp: at.UTC().Format(sink.TimestampLayout),
			Level:     "INFO",
			Message:   "seed",
			LongDate:  at.UTC().Format(sink.LongDateLayout),
		}
	}
	if err := store.InsertBatch(context.Background(), rows); err != nil {
		t.Fatalf("InsertBatch() failed: %v", err)
	}
}

// TestCleaner_RunOnce tests that only rows older than the window are deleted.
func TestCleaner_RunOnce(t *testing.T) {
	store := storage.NewMemoryStore()
	now := time.Now()
	seedRows(t, store, 3, now.Add(-2*time.Hour))
	seedRows(t, store, 2, now.Add(-30*time.Minute))

	cleaner, err := retention.NewCleaner(store, &retention.Config{
		Window:    time.Hour,
		Frequency: time.Minute,
		DeleteCap: 500,
		UTC:       true,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewCleaner() failed: %v", err)
	}

	deleted, err := cleaner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("RunOnce() deleted %d rows, want 3", deleted)
	}

	count, _ := store.Count(context.Background())
	if count != 2 {
		t.Errorf("store has %d rows after pass, want 2", count)
	}
}

// TestCleaner_RunOnce_Chunked tests that a backlog larger than the cap is
// cleared in capped chunks within one pass.
func TestCleaner_RunOnce_Chunked(t *testing.T) {
	store := &recordingStore{Store: storage.NewMemoryStore()}
	seedRows(t, store, 10, time.Now().Add(-2*time.Hour))

	cleaner, err := retention.NewCleaner(store, &retention.Config{
		Window:    time.Hour,
		Frequency: time.Minute,
		DeleteCap: 3,
		UTC:       true,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewCleaner() failed: %v", err)
	}

	deleted, err := cleaner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() failed: %v", err)
	}
	if deleted != 10 {
		t.Errorf("RunOnce() deleted %d rows, want 10", deleted)
	}

	// 3+3+3+1: the loop stops on the first chunk below the cap.
	wantAffected := []int64{3, 3, 3, 1}
	if len(store.affected) != len(wantAffected) {
		t.Fatalf("pass issued %d delete calls (%v), want %d", len(store.affected), store.affected, len(wantAffected))
	}
	for i, want := range wantAffected {
		if store.limits[i] != 3 {
			t.Errorf("call %d used limit %d, want 3", i, store.limits[i])
		}
		if store.affected[i] != want {
			t.Errorf("call %d affected %d rows, want %d", i, store.affected[i], want)
		}
	}
}

// TestCleaner_RunOnce_SmallCaps tests that caps of 0 and 1 run exactly one
// chunk per pass instead of looping.
func TestCleaner_RunOnce_SmallCaps(t *testing.T) {
	tests := []struct {
		name        string
		cap         int
		wantDeleted int64
	}{
		{name: "cap zero deletes nothing", cap: 0, wantDeleted: 0},
		{name: "cap one deletes one row", cap: 1, wantDeleted: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{Store: storage.NewMemoryStore()}
			seedRows(t, store, 5, time.Now().Add(-2*time.Hour))

			cleaner, err := retention.NewCleaner(store, &retention.Config{
				Window:    time.Hour,
				Frequency: time.Minute,
				DeleteCap: tt.cap,
				UTC:       true,
			}, nil, nil)
			if err != nil {
				t.Fatalf("NewCleaner() failed: %v", err)
			}

			deleted, err := cleaner.RunOnce(context.Background())
			if err != nil {
				t.Fatalf("RunOnce() failed: %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("RunOnce() deleted %d rows, want %d", deleted, tt.wantDeleted)
			}
			if len(store.limits) != 1 {
				t.Errorf("pass issued %d delete calls, want exactly 1", len(store.limits))
			}
		})
	}
}

// TestCleaner_RunOnce_StoreError tests that a failed chunk aborts the pass.
func TestCleaner_RunOnce_StoreError(t *testing.T) {
	store := storage.NewMemoryStore()
	seedRows(t, store, 5, time.Now().Add(-2*time.Hour))
	store.FailNextDelete(errors.New("disk full"))

	cleaner, err := retention.NewCleaner(store, &retention.Config{
		Window:    time.Hour,
		Frequency: time.Minute,
		DeleteCap: 2,
		UTC:       true,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewCleaner() failed: %v", err)
	}

	deleted, err := cleaner.RunOnce(context.Background())
	if err == nil {
		t.Fatal("RunOnce() succeeded, want error")
	}
	var retErr *sink.RetentionError
	if !errors.As(err, &retErr) {
		t.Errorf("RunOnce() error = %T, want *sink.RetentionError", err)
	}
	if deleted != 0 {
		t.Errorf("RunOnce() reported %d deleted rows, want 0", deleted)
	}

	// No further chunks ran; all rows are still present.
	count, _ := store.Count(context.Background())
	if count != 5 {
		t.Errorf("store has %d rows after aborted pass, want 5", count)
	}
}

// TestCleaner_InvalidConfig tests that a negative delete cap is rejected at
// construction time.
func TestCleaner_InvalidConfig(t *testing.T) {
	_, err := retention.NewCleaner(storage.NewMemoryStore(), &retention.Config{
		Window:    time.Hour,
		Frequency: time.Minute,
		DeleteCap: -1,
	}, nil, nil)
	if err == nil {
		t.Fatal("NewCleaner() succeeded with negative cap, want error")
	}
	var cfgErr *sink.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("NewCleaner() error = %T, want *sink.ConfigError", err)
	}
}

// TestConfig_Enabled tests the retention enable switch.
func TestConfig_Enabled(t *testing.T) {
	tests := []struct {
		name   string
		config retention.Config
		want   bool
	}{
		{name: "both set", config: retention.Config{Window: time.Hour, Frequency: time.Minute}, want: true},
		{name: "no window", config: retention.Config{Frequency: time.Minute}, want: false},
		{name: "no frequency", config: retention.Config{Window: time.Hour}, want: false},
		{name: "negative window", config: retention.Config{Window: -time.Hour, Frequency: time.Minute}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
