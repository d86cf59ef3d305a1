package config

import (
	"fmt"
	"regexp"
	"time"
)

// Config is the root configuration for the callisto sink daemon.
type Config struct {
	// Storage contains the storage target configuration: connection path,
	// table and time-column names, and connection pool settings.
	Storage StorageConfig `yaml:"storage"`

	// Writer contains record rendering and batching configuration.
	Writer WriterConfig `yaml:"writer"`

	// Retention contains expired-row cleanup configuration.
	Retention RetentionConfig `yaml:"retention"`

	// Diagnostics contains configuration for the side diagnostics channel.
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`

	// Metrics contains configuration for the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// StorageConfig contains configuration for the storage target.
type StorageConfig struct {
	// Driver is the registered database driver: "sqlite3" (cgo, default)
	// or "sqlite" (pure Go).
	Driver string `yaml:"driver"`

	// Path is the database file path (or DSN).
	// Default: "data/log.db"
	Path string `yaml:"path"`

	// Table is the log table name.
	// Default: "log"
	Table string `yaml:"table"`

	// TimeColumn is the whole-second time column used for retention
	// comparisons.
	// Default: "long_date"
	TimeColumn string `yaml:"time_column"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables SQLite write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// WriterConfig contains configuration for record rendering and batching.
type WriterConfig struct {
	// UTC renders timestamps in UTC instead of local time. The same time
	// base is used for retention cutoffs.
	// Default: true
	UTC bool `yaml:"utc"`

	// BatchSize flushes a batch once this many records are queued.
	// Default: 100
	BatchSize int `yaml:"batch_size"`

	// FlushInterval flushes a non-empty batch after this long regardless
	// of size.
	// Default: 2s
	FlushInterval time.Duration `yaml:"flush_interval"`

	// QueueSize bounds the submit queue; a full queue drops records rather
	// than blocking the application.
	// Default: 10000
	QueueSize int `yaml:"queue_size"`
}

// RetentionConfig contains configuration for expired-row cleanup. Retention
// is disabled when Window or Frequency is absent or non-positive.
type RetentionConfig struct {
	// Window is the maximum record age before deletion eligibility.
	Window time.Duration `yaml:"window"`

	// Frequency is the fixed period between cleanup passes.
	Frequency time.Duration `yaml:"frequency"`

	// DeleteCap is the maximum rows removed per delete statement. A
	// negative value is rejected at load time.
	// Default: 500
	DeleteCap int `yaml:"delete_cap"`

	// InitialDelay postpones the first pass after startup.
	// Default: 30s
	InitialDelay time.Duration `yaml:"initial_delay"`
}

// DiagnosticsConfig contains configuration for the side diagnostics channel.
type DiagnosticsConfig struct {
	// Level is the minimum level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains configuration for the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled serves /metrics when true.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address the metrics endpoint binds to.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`
}

// DefaultConfig returns a configuration populated with all default values.
func DefaultConfig() *Config {
	cfg := &Config{
		Storage: StorageConfig{WALMode: true},
		Writer:  WriterConfig{UTC: true},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for unset fields. Boolean fields
// keep whatever the YAML decoded; only zero values of the other fields are
// defaulted.
func ApplyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite3"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/log.db"
	}
	if cfg.Storage.Table == "" {
		cfg.Storage.Table = "log"
	}
	if cfg.Storage.TimeColumn == "" {
		cfg.Storage.TimeColumn = "long_date"
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = 10
	}
	if cfg.Storage.MaxIdleConns == 0 {
		cfg.Storage.MaxIdleConns = 5
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = 5 * time.Second
	}

	if cfg.Writer.BatchSize == 0 {
		cfg.Writer.BatchSize = 100
	}
	if cfg.Writer.FlushInterval == 0 {
		cfg.Writer.FlushInterval = 2 * time.Second
	}
	if cfg.Writer.QueueSize == 0 {
		cfg.Writer.QueueSize = 10000
	}

	if cfg.Retention.DeleteCap == 0 {
		cfg.Retention.DeleteCap = 500
	}
	if cfg.Retention.InitialDelay == 0 {
		cfg.Retention.InitialDelay = 30 * time.Second
	}

	if cfg.Diagnostics.Level == "" {
		cfg.Diagnostics.Level = "info"
	}
	if cfg.Diagnostics.Format == "" {
		cfg.Diagnostics.Format = "json"
	}

	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = "127.0.0.1:9464"
	}
}

// identifierPattern restricts table and column names to plain SQL
// identifiers; they are interpolated into statements by the storage layer.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the configuration for fatal setup errors: a missing time
// column, invalid identifiers, an unknown driver, or a negative delete cap
// all reject the configuration outright.
func Validate(cfg *Config) error {
	if cfg.Storage.TimeColumn == "" {
		return fmt.Errorf("storage.time_column is required")
	}
	if !identifierPattern.MatchString(cfg.Storage.Table) {
		return fmt.Errorf("storage.table: invalid table name %q", cfg.Storage.Table)
	}
	if !identifierPattern.MatchString(cfg.Storage.TimeColumn) {
		return fmt.Errorf("storage.time_column: invalid column name %q", cfg.Storage.TimeColumn)
	}

	switch cfg.Storage.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver)
	}

	if cfg.Writer.BatchSize <= 0 {
		return fmt.Errorf("writer.batch_size must be positive, got %d", cfg.Writer.BatchSize)
	}
	if cfg.Writer.FlushInterval <= 0 {
		return fmt.Errorf("writer.flush_interval must be positive, got %s", cfg.Writer.FlushInterval)
	}

	if cfg.Retention.DeleteCap < 0 {
		return fmt.Errorf("retention.delete_cap must be non-negative, got %d", cfg.Retention.DeleteCap)
	}

	return nil
}
