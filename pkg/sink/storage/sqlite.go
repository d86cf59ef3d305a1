package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	_ "github.com/mattn/go-sqlite3" // default driver ("sqlite3")
	_ "modernc.org/sqlite"          // pure-Go driver ("sqlite")

	"mercator-hq/callisto/pkg/sink"
)

// identifierPattern restricts table and column names to plain SQL
// identifiers. The names are interpolated into DDL and DML, so anything else
// is rejected at construction time.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Driver selects the registered database/sql driver: "sqlite3" (cgo,
	// default) or "sqlite" (pure Go).
	Driver string

	// Path is the database file path (or DSN).
	Path string

	// Table is the log table name.
	// Default: "log"
	Table string

	// TimeColumn is the whole-second timestamp column used for range
	// deletes. Required; a missing name is a fatal setup error.
	TimeColumn string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Driver:       "sqlite3",
		Path:         "data/log.db",
		Table:        "log",
		TimeColumn:   "long_date",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements sink.Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger

	insertStmt string
	deleteStmt string
	countStmt  string
}

// NewSQLiteStore creates a new SQLite storage backend. It validates the
// configured identifiers, bootstraps the log table idempotently and creates
// the time-column index best-effort.
func NewSQLiteStore(config *SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sink.storage.sqlite")

	if config.Driver == "" {
		config.Driver = "sqlite3"
	}
	if config.Table == "" {
		config.Table = "log"
	}
	if config.TimeColumn == "" {
		return nil, sink.NewConfigError("storage.time_column", fmt.Errorf("time column name is required"))
	}
	if !identifierPattern.MatchString(config.Table) {
		return nil, sink.NewConfigError("storage.table", fmt.Errorf("invalid table name %q", config.Table))
	}
	if !identifierPattern.MatchString(config.TimeColumn) {
		return nil, sink.NewConfigError("storage.time_column", fmt.Errorf("invalid column name %q", config.TimeColumn))
	}

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, sink.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStore{
		db:         db,
		config:     config,
		logger:     logger,
		insertStmt: insertSQL(config.Table, config.TimeColumn),
		deleteStmt: deleteSQL(config.Table, config.TimeColumn),
		countStmt:  countSQL(config.Table),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite log store initialized",
		"path", config.Path,
		"driver", config.Driver,
		"table", config.Table,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets pragmas and bootstraps the schema. Table creation is
// idempotent; index creation is best-effort and only logged on failure.
func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return sink.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	if s.config.BusyTimeout > 0 {
		_, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds()))
		if err != nil {
			return sink.NewStorageError("sqlite", "set_busy_timeout", err)
		}
	}

	if _, err := s.db.Exec(createTableSQL(s.config.Table, s.config.TimeColumn)); err != nil {
		return sink.NewStorageError("sqlite", "create_table", err)
	}

	if _, err := s.db.Exec(createIndexSQL(s.config.Table, s.config.TimeColumn)); err != nil {
		s.logger.Warn("time-column index creation failed, range deletes will be slow",
			"table", s.config.Table,
			"column", s.config.TimeColumn,
			"error", err,
		)
	}

	return nil
}

// InsertBatch persists all rows in order inside one transaction. The insert
// statement is prepared once and rebound per row. Any error rolls the whole
// batch back, so a partial batch is never visible to readers.
func (s *SQLiteStore) InsertBatch(ctx context.Context, rows []sink.Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sink.NewStorageError("sqlite", "begin", err)
	}
	// Rollback is a no-op after a successful commit.
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.insertStmt)
	if err != nil {
		return sink.NewStorageError("sqlite", "prepare", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.Timestamp,
			row.Level,
			row.Message,
			row.LongDate,
			row.Logger,
			row.TraceID,
			row.Exception,
			row.Properties,
		)
		if err != nil {
			return sink.NewStorageError("sqlite", "insert", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return sink.NewStorageError("sqlite", "commit", err)
	}
	return nil
}

// DeleteOlderThan removes at most limit rows older than cutoff with a single
// bounded statement on its own connection, and reports the rows removed. The
// cutoff is rendered with the same whole-second layout the writer uses for
// the time column, so both sides compare the same representation.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	if limit < 0 {
		return 0, sink.NewConfigError("retention.delete_cap", fmt.Errorf("negative delete limit %d", limit))
	}

	res, err := s.db.ExecContext(ctx, s.deleteStmt, cutoff.Format(sink.LongDateLayout), limit)
	if err != nil {
		return 0, sink.NewStorageError("sqlite", "delete", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, sink.NewStorageError("sqlite", "delete", err)
	}
	return affected, nil
}

// Count reports the number of rows in the log table. Used for startup
// reporting and tests; the sink deliberately offers no query API.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, s.countStmt).Scan(&count); err != nil {
		return 0, sink.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return sink.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite log store closed")
	return nil
}
