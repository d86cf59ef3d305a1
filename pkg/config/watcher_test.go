package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestWatcher_ReloadOnChange tests that rewriting the watched file triggers
// one reload with the new configuration.
func TestWatcher_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "callisto.yaml")
	if err := os.WriteFile(path, []byte("writer:\n  batch_size: 10\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	watcher, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}

	reloaded := make(chan *Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchDone := make(chan error, 1)
	go func() {
		watchDone <- watcher.Watch(ctx, func(cfg *Config) {
			reloaded <- cfg
		})
	}()

	// Give the watcher a moment to register before changing the file.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("writer:\n  batch_size: 77\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite config file: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Writer.BatchSize != 77 {
			t.Errorf("reloaded Writer.BatchSize = %d, want 77", cfg.Writer.BatchSize)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback was never invoked")
	}

	if err := watcher.Stop(); err != nil {
		t.Errorf("Stop() failed: %v", err)
	}
	if err := <-watchDone; err != nil {
		t.Errorf("Watch() returned error: %v", err)
	}
}

// TestWatcher_InvalidFileKeepsLastGood tests that a broken rewrite does not
// reach the callback.
func TestWatcher_InvalidFileKeepsLastGood(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "callisto.yaml")
	if err := os.WriteFile(path, []byte("writer:\n  batch_size: 10\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	watcher, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}

	reloaded := make(chan *Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		watcher.Watch(ctx, func(cfg *Config) {
			reloaded <- cfg
		})
	}()
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)

	// Negative delete cap fails validation; the callback must stay silent.
	if err := os.WriteFile(path, []byte("retention:\n  delete_cap: -1\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite config file: %v", err)
	}

	select {
	case cfg := <-reloaded:
		t.Errorf("callback invoked with invalid configuration: %+v", cfg)
	case <-time.After(time.Second):
	}
}
