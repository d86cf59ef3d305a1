// Callisto is a durable sink for structured log records.
//
// It reads newline-delimited JSON records from stdin, buffers them, persists
// them to SQLite in atomic batches, and prunes records older than the
// configured retention window on a fixed schedule.
//
// Usage:
//
//	# Run with default configuration
//	tail -F app.ndjson | callisto run
//
//	# Run with a custom configuration file
//	callisto run --config /etc/callisto/config.yaml
//
//	# Reload retention settings on config changes
//	callisto run --watch
//
//	# Validate configuration without running
//	callisto run --dry-run
//
//	# Show version information
//	callisto version
package main

func main() {
	Execute()
}
