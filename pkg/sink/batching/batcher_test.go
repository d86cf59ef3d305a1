package batching

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/sink"
)

// captureHandler records every batch it receives; each batch content is
// copied because the batcher reuses its buffer after the handler returns.
type captureHandler struct {
	mu      sync.Mutex
	batches [][]string
	accept  bool
}

func (h *captureHandler) OnBatchReady(ctx context.Context, batch sink.Batch) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	messages := make([]string, len(batch))
	for i, record := range batch {
		messages[i] = record.Message
	}
	h.batches = append(h.batches, messages)
	return h.accept
}

func (h *captureHandler) snapshot() [][]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][]string, len(h.batches))
	copy(out, h.batches)
	return out
}

func waitForBatches(t *testing.T, h *captureHandler, n int) [][]string {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		got := h.snapshot()
		if len(got) >= n {
			return got
		}
		select {
		case <-deadline:
			t.Fatalf("handler received %d batches, want %d", len(got), n)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// TestBatcher_SizeTrigger tests that a full batch flushes immediately, in
// submission order.
func TestBatcher_SizeTrigger(t *testing.T) {
	handler := &captureHandler{accept: true}
	batcher, err := NewBatcher(handler, &Config{
		BatchSize:     3,
		FlushInterval: time.Hour, // never fires in this test
		QueueSize:     100,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewBatcher() failed: %v", err)
	}

	batcher.Start(context.Background())
	defer batcher.Stop()

	for i := 0; i < 3; i++ {
		batcher.Submit(&sink.Record{Message: fmt.Sprintf("record %d", i)})
	}

	batches := waitForBatches(t, handler, 1)
	want := []string{"record 0", "record 1", "record 2"}
	if len(batches[0]) != len(want) {
		t.Fatalf("batch has %d records, want %d", len(batches[0]), len(want))
	}
	for i, message := range want {
		if batches[0][i] != message {
			t.Errorf("batch record %d = %q, want %q", i, batches[0][i], message)
		}
	}
}

// TestBatcher_IntervalTrigger tests that a partial batch flushes when the
// interval elapses.
func TestBatcher_IntervalTrigger(t *testing.T) {
	handler := &captureHandler{accept: true}
	batcher, err := NewBatcher(handler, &Config{
		BatchSize:     100,
		FlushInterval: 20 * time.Millisecond,
		QueueSize:     100,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewBatcher() failed: %v", err)
	}

	batcher.Start(context.Background())
	defer batcher.Stop()

	batcher.Submit(&sink.Record{Message: "lonely"})

	batches := waitForBatches(t, handler, 1)
	if len(batches[0]) != 1 || batches[0][0] != "lonely" {
		t.Errorf("interval flush delivered %v, want [lonely]", batches[0])
	}
}

// TestBatcher_StopFlushes tests that Stop drains the queue and delivers the
// final partial batch.
func TestBatcher_StopFlushes(t *testing.T) {
	handler := &captureHandler{accept: true}
	batcher, err := NewBatcher(handler, &Config{
		BatchSize:     100,
		FlushInterval: time.Hour,
		QueueSize:     100,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewBatcher() failed: %v", err)
	}

	batcher.Start(context.Background())
	for i := 0; i < 5; i++ {
		batcher.Submit(&sink.Record{Message: fmt.Sprintf("record %d", i)})
	}
	batcher.Stop()

	batches := handler.snapshot()
	var total int
	for _, batch := range batches {
		total += len(batch)
	}
	if total != 5 {
		t.Errorf("Stop() delivered %d records, want 5", total)
	}

	// A second Stop is a no-op.
	batcher.Stop()
}

// TestBatcher_RejectedBatchDropped tests that a rejected batch is dropped,
// not redelivered.
func TestBatcher_RejectedBatchDropped(t *testing.T) {
	handler := &captureHandler{accept: false}
	batcher, err := NewBatcher(handler, &Config{
		BatchSize:     2,
		FlushInterval: time.Hour,
		QueueSize:     100,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewBatcher() failed: %v", err)
	}

	batcher.Start(context.Background())
	batcher.Submit(&sink.Record{Message: "a"})
	batcher.Submit(&sink.Record{Message: "b"})
	waitForBatches(t, handler, 1)
	batcher.Stop()

	// The rejected batch must not come back on the shutdown flush.
	batches := handler.snapshot()
	if len(batches) != 1 {
		t.Errorf("handler received %d batches, want 1 (no redelivery)", len(batches))
	}
}

// TestBatcher_SubmitNeverBlocks tests that a full queue drops the record
// instead of blocking the caller.
func TestBatcher_SubmitNeverBlocks(t *testing.T) {
	handler := &captureHandler{accept: true}
	batcher, err := NewBatcher(handler, &Config{
		BatchSize:     100,
		FlushInterval: time.Hour,
		QueueSize:     2,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewBatcher() failed: %v", err)
	}
	// Not started: nothing drains the queue.

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			batcher.Submit(&sink.Record{Message: "overflow"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit() blocked on a full queue")
	}
}

// TestConfig_Validate tests batcher configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid", config: Config{BatchSize: 10, FlushInterval: time.Second}, wantErr: false},
		{name: "zero batch size", config: Config{BatchSize: 0, FlushInterval: time.Second}, wantErr: true},
		{name: "negative batch size", config: Config{BatchSize: -1, FlushInterval: time.Second}, wantErr: true},
		{name: "zero flush interval", config: Config{BatchSize: 10}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
