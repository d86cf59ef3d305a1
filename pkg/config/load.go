package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at the specified path. It applies
// default values, validates the configuration, and returns any errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := &Config{
		Storage: StorageConfig{WALMode: true},
		Writer:  WriterConfig{UTC: true},
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// CALLISTO_SECTION_FIELD (e.g. CALLISTO_STORAGE_PATH) and always take
// precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration.
func applyEnvOverrides(cfg *Config) {
	// Storage overrides
	if val := os.Getenv("CALLISTO_STORAGE_DRIVER"); val != "" {
		cfg.Storage.Driver = val
	}
	if val := os.Getenv("CALLISTO_STORAGE_PATH"); val != "" {
		cfg.Storage.Path = val
	}
	if val := os.Getenv("CALLISTO_STORAGE_TABLE"); val != "" {
		cfg.Storage.Table = val
	}
	if val := os.Getenv("CALLISTO_STORAGE_TIME_COLUMN"); val != "" {
		cfg.Storage.TimeColumn = val
	}
	if val := os.Getenv("CALLISTO_STORAGE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Storage.BusyTimeout = d
		}
	}

	// Writer overrides
	if val := os.Getenv("CALLISTO_WRITER_UTC"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Writer.UTC = b
		}
	}
	if val := os.Getenv("CALLISTO_WRITER_BATCH_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Writer.BatchSize = i
		}
	}
	if val := os.Getenv("CALLISTO_WRITER_FLUSH_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Writer.FlushInterval = d
		}
	}

	// Retention overrides
	if val := os.Getenv("CALLISTO_RETENTION_WINDOW"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retention.Window = d
		}
	}
	if val := os.Getenv("CALLISTO_RETENTION_FREQUENCY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retention.Frequency = d
		}
	}
	if val := os.Getenv("CALLISTO_RETENTION_DELETE_CAP"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Retention.DeleteCap = i
		}
	}

	// Diagnostics overrides
	if val := os.Getenv("CALLISTO_DIAGNOSTICS_LEVEL"); val != "" {
		cfg.Diagnostics.Level = val
	}
	if val := os.Getenv("CALLISTO_DIAGNOSTICS_FORMAT"); val != "" {
		cfg.Diagnostics.Format = val
	}

	// Metrics overrides
	if val := os.Getenv("CALLISTO_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Metrics.ListenAddress = val
	}
}
