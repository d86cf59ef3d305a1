package sink

import "fmt"

// StorageError represents an error from the storage backend.
type StorageError struct {
	Backend   string // Storage backend type ("sqlite", "memory", etc.)
	Operation string // Operation that failed ("insert_batch", "delete", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// RetentionError represents an error during a retention cleanup pass.
type RetentionError struct {
	Window string // Configured retention window
	Cause  error  // Underlying error
}

// Error implements the error interface.
func (e *RetentionError) Error() string {
	return fmt.Sprintf("retention error [window=%s]: %v", e.Window, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RetentionError) Unwrap() error {
	return e.Cause
}

// NewRetentionError creates a new RetentionError.
func NewRetentionError(window string, cause error) *RetentionError {
	return &RetentionError{
		Window: window,
		Cause:  cause,
	}
}

// ConfigError represents an invalid sink configuration detected at
// construction time. Unlike storage and retention errors, configuration
// errors are fatal: the sink refuses to start with a bad configuration.
type ConfigError struct {
	Field string // Configuration field that is invalid
	Cause error  // Underlying error, if any
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error [field=%s]: %v", e.Field, e.Cause)
	}
	return fmt.Sprintf("config error [field=%s]", e.Field)
}

// Unwrap returns the underlying cause error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field string, cause error) *ConfigError {
	return &ConfigError{
		Field: field,
		Cause: cause,
	}
}
