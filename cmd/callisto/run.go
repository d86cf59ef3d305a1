package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/diag"
	"mercator-hq/callisto/pkg/sink"
	"mercator-hq/callisto/pkg/sink/batching"
	"mercator-hq/callisto/pkg/sink/retention"
	"mercator-hq/callisto/pkg/sink/storage"
)

var runFlags struct {
	diagLevel string
	dryRun    bool
	watch     bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the log sink",
	Long: `Run the log sink: read newline-delimited JSON records from stdin,
persist them in atomic batches, and prune expired rows on the configured
schedule. The sink stops when stdin is closed or on SIGINT/SIGTERM, flushing
whatever is still queued.

Examples:
  # Run with default config
  tail -F app.ndjson | callisto run

  # Run with custom config
  callisto run --config /etc/callisto/config.yaml

  # Validate config without running
  callisto run --dry-run`,
	RunE: runSink,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.diagLevel, "diag-level", "", "override diagnostics level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without running")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", false, "reload retention settings when the config file changes")
}

// inputRecord is the NDJSON line format accepted on stdin.
type inputRecord struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Message    string         `json:"message"`
	Error      string         `json:"error,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

func runSink(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.diagLevel != "" {
		cfg.Diagnostics.Level = runFlags.diagLevel
	}

	// Diagnostics go to stderr, out of band of the record stream the sink
	// persists.
	logger, err := diag.New(diag.Config{
		Level:  cfg.Diagnostics.Level,
		Format: cfg.Diagnostics.Format,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	store, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
		Driver:       cfg.Storage.Driver,
		Path:         cfg.Storage.Path,
		Table:        cfg.Storage.Table,
		TimeColumn:   cfg.Storage.TimeColumn,
		MaxOpenConns: cfg.Storage.MaxOpenConns,
		MaxIdleConns: cfg.Storage.MaxIdleConns,
		WALMode:      cfg.Storage.WALMode,
		BusyTimeout:  cfg.Storage.BusyTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to open log store: %w", err)
	}
	defer store.Close()

	if count, err := store.Count(ctx); err == nil {
		logger.Info("log store opened", "existing_rows", count)
	}

	metrics := sink.NewMetrics(nil)
	writer := sink.NewWriter(store, sink.WriterConfig{UTC: cfg.Writer.UTC}, logger, metrics)

	batcher, err := batching.NewBatcher(writer, &batching.Config{
		BatchSize:     cfg.Writer.BatchSize,
		FlushInterval: cfg.Writer.FlushInterval,
		QueueSize:     cfg.Writer.QueueSize,
	}, logger, metrics)
	if err != nil {
		return err
	}
	batcher.Start(ctx)
	defer batcher.Stop()

	scheduler, err := startRetention(ctx, store, cfg, logger, metrics)
	if err != nil {
		return err
	}

	// The watcher goroutine may swap the scheduler while the main goroutine
	// shuts it down, so access goes through a mutex.
	var retMu sync.Mutex
	defer func() {
		retMu.Lock()
		defer retMu.Unlock()
		if scheduler != nil {
			scheduler.Stop()
		}
	}()

	if runFlags.watch {
		watcher, err := config.NewWatcher(cfgFile, logger)
		if err != nil {
			return err
		}
		defer watcher.Stop()

		go func() {
			err := watcher.Watch(ctx, func(newCfg *config.Config) {
				// Retention is the only hot-swappable section; the
				// writer and storage settings need a restart.
				next, err := startRetention(ctx, store, newCfg, logger, metrics)
				if err != nil {
					logger.Error("failed to apply new retention settings", "error", err)
					return
				}

				retMu.Lock()
				old := scheduler
				scheduler = next
				retMu.Unlock()

				if old != nil {
					old.Stop()
				}
			})
			if err != nil {
				logger.Error("config watcher exited", "error", err)
			}
		}()
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.ListenAddress, logger)
	}

	// Stop on SIGINT/SIGTERM or when stdin is exhausted.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	readDone := make(chan error, 1)
	go func() {
		readDone <- readRecords(ctx, os.Stdin, batcher, logger)
	}()

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	case err := <-readDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("input stream failed", "error", err)
		}
		logger.Info("input stream closed, shutting down")
	}

	return nil
}

// startRetention builds and starts the retention cleaner and scheduler for
// the given configuration. When retention is disabled it still returns a
// scheduler; Start is a no-op in that case.
func startRetention(ctx context.Context, store sink.Store, cfg *config.Config, logger *slog.Logger, metrics *sink.Metrics) (*retention.Scheduler, error) {
	cleaner, err := retention.NewCleaner(store, &retention.Config{
		Window:       cfg.Retention.Window,
		Frequency:    cfg.Retention.Frequency,
		DeleteCap:    cfg.Retention.DeleteCap,
		UTC:          cfg.Writer.UTC,
		InitialDelay: cfg.Retention.InitialDelay,
	}, logger, metrics)
	if err != nil {
		return nil, err
	}

	scheduler := retention.NewScheduler(cleaner)
	if err := scheduler.Start(ctx); err != nil {
		return nil, err
	}
	return scheduler, nil
}

// readRecords parses NDJSON records from r and submits them to the batcher
// until EOF or context cancellation. Unparseable lines are reported and
// skipped, never fatal.
func readRecords(ctx context.Context, r *os.File, batcher *batching.Batcher, logger *slog.Logger) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var in inputRecord
		if err := json.Unmarshal(line, &in); err != nil {
			logger.Warn("skipping malformed record", "error", err)
			continue
		}

		record := &sink.Record{
			Timestamp:  in.Timestamp,
			Level:      sink.ParseLevel(in.Level),
			Message:    in.Message,
			Properties: in.Properties,
		}
		if in.Timestamp.IsZero() {
			record.Timestamp = time.Now()
		}
		if in.Error != "" {
			record.Err = errors.New(in.Error)
		}

		batcher.Submit(record)
	}

	return scanner.Err()
}

// serveMetrics exposes the Prometheus registry over HTTP.
func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("metrics endpoint listening", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics endpoint failed", "error", err)
	}
}
