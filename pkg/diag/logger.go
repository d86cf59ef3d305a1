package diag

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Format represents the output format for diagnostics.
type Format string

const (
	// FormatJSON outputs diagnostics in JSON format.
	FormatJSON Format = "json"
	// FormatText outputs diagnostics in plain text format.
	FormatText Format = "text"
)

// Config contains configuration for the diagnostics logger.
type Config struct {
	// Level is the minimum level ("debug", "info", "warn", "error").
	Level string

	// Format is the output format ("json", "text").
	Format string

	// Writer is the output writer. Defaults to os.Stderr: diagnostics go
	// out of band, never through the log stream the sink persists.
	Writer io.Writer
}

// New creates the sink's diagnostics logger.
//
// The returned logger is the side channel every sink component reports
// internal failures through. Keeping it separate from the application's own
// log stream is what makes a storage failure impossible to re-enter the sink
// as a new log record.
func New(cfg Config) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid diagnostics level: %w", err)
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid diagnostics format: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	return slog.New(handler), nil
}

// parseLevel parses a level string into slog.Level.
func parseLevel(levelStr string) (slog.Level, error) {
	switch levelStr {
	case "debug", "DEBUG":
		return slog.LevelDebug, nil
	case "info", "INFO", "":
		return slog.LevelInfo, nil
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn, nil
	case "error", "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level: %s", levelStr)
	}
}

// parseFormat parses a format string into Format.
func parseFormat(formatStr string) (Format, error) {
	switch formatStr {
	case "json", "JSON", "":
		return FormatJSON, nil
	case "text", "TEXT":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown format: %s", formatStr)
	}
}
