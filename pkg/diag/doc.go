// Package diag builds the sink's side diagnostics channel.
//
// The sink persists an application's log stream; it must never report its own
// failures into that same stream, or a storage outage would feed itself. All
// internal reporting therefore goes through a separate slog logger, written
// to stderr by default, constructed here.
package diag
