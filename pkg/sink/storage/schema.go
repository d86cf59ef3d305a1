package storage

import "fmt"

// The log table layout is fixed for compatibility with existing deployments:
// an auto-increment identity key, the rendered record columns, and a
// server-assigned insertion timestamp. Only the table and time-column names
// vary, which is why the statements are built rather than declared as
// constants.

// createTableSQL returns the idempotent table bootstrap statement.
func createTableSQL(table, timeColumn string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT NOT NULL,
    level TEXT NOT NULL,
    message TEXT,
    %s DATETIME NOT NULL,
    logger TEXT,
    trace_identifier TEXT,
    exception TEXT,
    properties TEXT,
    inserted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`, table, timeColumn)
}

// createIndexSQL returns the statement creating the range-delete index on the
// time column. The index is what keeps bounded retention deletes cheap.
func createIndexSQL(table, timeColumn string) string {
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s);",
		table, timeColumn, table, timeColumn,
	)
}

// insertSQL returns the parameterized per-record insert statement. It is
// prepared once per batch and rebound per record.
func insertSQL(table, timeColumn string) string {
	return fmt.Sprintf(`
INSERT INTO %s (timestamp, level, message, %s, logger, trace_identifier, exception, properties)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`, table, timeColumn)
}

// deleteSQL returns the bounded delete statement used by retention cleanup.
// DELETE ... LIMIT is an optional SQLite build flag, so the bound goes
// through a rowid subquery instead, which works on stock builds of both
// drivers.
func deleteSQL(table, timeColumn string) string {
	return fmt.Sprintf(`
DELETE FROM %s WHERE rowid IN (
    SELECT rowid FROM %s WHERE %s < ? ORDER BY %s LIMIT ?
);`, table, table, timeColumn, timeColumn)
}

// countSQL returns the row-count statement used for startup reporting and
// tests.
func countSQL(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s;", table)
}
