// Package retention deletes expired log rows on a fixed period.
//
// A Cleaner runs one cleanup pass at a time: it computes the expiration
// cutoff (now in the configured time base minus the retention window) and
// deletes older rows in chunks of at most DeleteCap rows. Each chunk is a
// single bounded statement on its own connection, so a large backlog never
// holds table locks for one unbounded delete. The chunk loop continues while
// a chunk removed at least DeleteCap rows and more than one row; caps of 0
// and 1 terminate after a single chunk.
//
// The Scheduler owns the periodic execution: an initial delay before the
// first pass, a fixed period after that, and an explicit busy-flag guard so a
// tick can never overlap a pass still in flight. It is a stoppable handle;
// Stop waits for a running pass to finish.
//
// Cleanup runs unattended. Errors abort the current pass, are reported
// through the diagnostics logger and swallowed; the next tick proceeds
// regardless. The cleaner needs no coordination with the batch writer beyond
// the store's own transaction isolation.
//
// # Basic Usage
//
//	cleaner, err := retention.NewCleaner(store, &retention.Config{
//	    Window:    30 * 24 * time.Hour,
//	    Frequency: 15 * time.Minute,
//	    DeleteCap: 1000,
//	    UTC:       true,
//	}, nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	scheduler := retention.NewScheduler(cleaner)
//	if err := scheduler.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer scheduler.Stop()
package retention
