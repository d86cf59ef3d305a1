// Package config loads, defaults, validates and watches the callisto daemon
// configuration.
//
// Configuration is YAML with CALLISTO_* environment variable overrides. The
// loading sequence is file, defaults, environment, validation; a
// configuration with a missing time column, bad identifiers or a negative
// delete cap never makes it past Load.
//
// The optional Watcher reloads the file on change (debounced) and hands the
// already-validated result to a callback, so the daemon can apply new
// retention settings without a restart.
package config
