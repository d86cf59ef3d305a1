package config

import (
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig tests that the default configuration is complete and
// valid.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Storage.Driver != "sqlite3" {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, "sqlite3")
	}
	if cfg.Storage.Table != "log" {
		t.Errorf("Storage.Table = %q, want %q", cfg.Storage.Table, "log")
	}
	if cfg.Storage.TimeColumn != "long_date" {
		t.Errorf("Storage.TimeColumn = %q, want %q", cfg.Storage.TimeColumn, "long_date")
	}
	if !cfg.Storage.WALMode {
		t.Error("Storage.WALMode = false, want true")
	}
	if !cfg.Writer.UTC {
		t.Error("Writer.UTC = false, want true")
	}
	if cfg.Writer.BatchSize != 100 {
		t.Errorf("Writer.BatchSize = %d, want 100", cfg.Writer.BatchSize)
	}
	if cfg.Writer.FlushInterval != 2*time.Second {
		t.Errorf("Writer.FlushInterval = %s, want 2s", cfg.Writer.FlushInterval)
	}
	if cfg.Retention.DeleteCap != 500 {
		t.Errorf("Retention.DeleteCap = %d, want 500", cfg.Retention.DeleteCap)
	}
	if cfg.Retention.InitialDelay != 30*time.Second {
		t.Errorf("Retention.InitialDelay = %s, want 30s", cfg.Retention.InitialDelay)
	}
	if cfg.Diagnostics.Level != "info" {
		t.Errorf("Diagnostics.Level = %q, want %q", cfg.Diagnostics.Level, "info")
	}
	if cfg.Diagnostics.Format != "json" {
		t.Errorf("Diagnostics.Format = %q, want %q", cfg.Diagnostics.Format, "json")
	}
	if cfg.Metrics.ListenAddress != "127.0.0.1:9464" {
		t.Errorf("Metrics.ListenAddress = %q, want %q", cfg.Metrics.ListenAddress, "127.0.0.1:9464")
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate(DefaultConfig()) failed: %v", err)
	}
}

// TestValidate tests rejection of fatal configuration errors.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid default",
			mutate:  func(cfg *Config) {},
			wantErr: "",
		},
		{
			name:    "missing time column",
			mutate:  func(cfg *Config) { cfg.Storage.TimeColumn = "" },
			wantErr: "time_column is required",
		},
		{
			name:    "invalid table name",
			mutate:  func(cfg *Config) { cfg.Storage.Table = "log; DROP TABLE x" },
			wantErr: "invalid table name",
		},
		{
			name:    "invalid time column name",
			mutate:  func(cfg *Config) { cfg.Storage.TimeColumn = "long date" },
			wantErr: "invalid column name",
		},
		{
			name:    "unknown driver",
			mutate:  func(cfg *Config) { cfg.Storage.Driver = "postgres" },
			wantErr: "unknown driver",
		},
		{
			name:    "zero batch size",
			mutate:  func(cfg *Config) { cfg.Writer.BatchSize = 0 },
			wantErr: "batch_size must be positive",
		},
		{
			name:    "negative flush interval",
			mutate:  func(cfg *Config) { cfg.Writer.FlushInterval = -time.Second },
			wantErr: "flush_interval must be positive",
		},
		{
			name:    "negative delete cap",
			mutate:  func(cfg *Config) { cfg.Retention.DeleteCap = -1 },
			wantErr: "delete_cap must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() failed: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

// TestApplyDefaults tests that explicit values survive defaulting.
func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Storage.Path = "/var/lib/callisto/log.db"
	cfg.Writer.BatchSize = 50

	ApplyDefaults(cfg)

	if cfg.Storage.Path != "/var/lib/callisto/log.db" {
		t.Errorf("Storage.Path = %q, explicit value was overwritten", cfg.Storage.Path)
	}
	if cfg.Writer.BatchSize != 50 {
		t.Errorf("Writer.BatchSize = %d, explicit value was overwritten", cfg.Writer.BatchSize)
	}
	if cfg.Storage.Driver != "sqlite3" {
		t.Errorf("Storage.Driver = %q, want default %q", cfg.Storage.Driver, "sqlite3")
	}
	if cfg.Writer.QueueSize != 10000 {
		t.Errorf("Writer.QueueSize = %d, want default 10000", cfg.Writer.QueueSize)
	}
}
