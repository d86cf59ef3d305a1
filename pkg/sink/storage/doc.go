// Package storage provides storage backends for the log sink.
//
// # Backends
//
//   - SQLite: embedded database for durable single-node deployments
//   - Memory: in-memory storage for testing
//
// # SQLite Backend
//
// The SQLite backend persists the fixed log table layout: an auto-increment
// identity key, the rendered record columns, the indexed whole-second time
// column used for retention range deletes, and a server-default insertion
// timestamp. Table bootstrap is idempotent (CREATE TABLE IF NOT EXISTS);
// index creation is best-effort and a failure is logged rather than fatal.
//
// Two registered drivers are supported: "sqlite3" (github.com/mattn/go-sqlite3,
// cgo, the default) and "sqlite" (modernc.org/sqlite, pure Go). The tests use
// the pure-Go driver so they run without cgo.
//
// # Contract
//
// InsertBatch is atomic: one transaction, one prepared statement rebound per
// row; on any error nothing is persisted. DeleteOlderThan issues exactly one
// bounded statement per call so retention can chunk its work without holding
// table locks for an unbounded delete.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
//	    Path:       "data/log.db",
//	    Table:      "log",
//	    TimeColumn: "long_date",
//	}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
package storage
