package retention

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the cleaner on a fixed period.
//
// The first pass runs after the configured initial delay; every subsequent
// pass runs Frequency apart. Only one pass is ever in flight: overlap is
// prevented explicitly with a busy flag rather than trusting timer semantics,
// and the cron runner is additionally chained with SkipIfStillRunning. A tick
// that lands while a pass is running is skipped, not queued.
//
// Unlike a fire-and-forget timer, the scheduler is an owned handle with a
// start/stop lifecycle: Stop halts the timers and waits for an in-flight pass
// to finish.
type Scheduler struct {
	cleaner *Cleaner
	cron    *cron.Cron
	logger  *slog.Logger

	mu      sync.Mutex
	delayed *time.Timer
	running bool

	busy atomic.Bool
	wg   sync.WaitGroup
}

// NewScheduler creates a scheduler for the given cleaner.
func NewScheduler(cleaner *Cleaner) *Scheduler {
	logger := cleaner.logger.With("component", "sink.retention.scheduler")

	return &Scheduler{
		cleaner: cleaner,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger{logger}),
		)),
		logger: logger,
	}
}

// Start begins periodic cleanup. When retention is disabled by configuration
// the scheduler does nothing. The scheduler stops itself when ctx is
// cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.cleaner.config
	if !cfg.Enabled() {
		s.logger.Info("retention disabled, scheduler not started")
		return nil
	}
	if s.running {
		return nil
	}

	delay := cfg.InitialDelay
	if delay < 0 {
		delay = 0
	}

	// First pass after the initial delay, then the fixed period. The cron
	// runner starts together with the delayed first pass so the period is
	// measured from startup, not from the first pass's completion.
	s.delayed = time.AfterFunc(delay, func() {
		s.runPass(ctx)
	})
	s.cron.Schedule(cron.Every(cfg.Frequency), cron.FuncJob(func() {
		s.runPass(ctx)
	}))
	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"window", cfg.Window.String(),
		"frequency", cfg.Frequency.String(),
		"delete_cap", cfg.DeleteCap,
		"initial_delay", delay.String(),
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runPass executes one cleanup pass unless one is already in flight, in which
// case the tick is skipped.
func (s *Scheduler) runPass(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Debug("cleanup pass still in flight, tick skipped")
		return
	}
	s.wg.Add(1)
	defer func() {
		s.busy.Store(false)
		s.wg.Done()
	}()

	// Errors are already reported by the cleaner; a pass failure must never
	// propagate, the next tick simply tries again.
	if _, err := s.cleaner.RunOnce(ctx); err != nil {
		s.logger.Error("cleanup pass aborted",
			"error", err,
		)
	}
}

// Stop halts the scheduler and waits for an in-flight pass to complete. It is
// safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	if s.delayed != nil {
		s.delayed.Stop()
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.wg.Wait()
	s.running = false

	s.logger.Info("retention scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled pass time, or nil when the scheduler is
// not running.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}

// cronLogger adapts slog to the cron.Logger interface so skipped ticks are
// reported through the diagnostics channel.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{"error", err}, keysAndValues...)
	l.logger.Error(msg, args...)
}
