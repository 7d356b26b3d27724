package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

type sqliteAdapter struct {
	sqlAdapter
	path string
}

func newSQLiteAdapter(c *DSNComponents, cfg Config) *sqliteAdapter {
	a := &sqliteAdapter{path: sqlitePath(c)}
	a.cfg = cfg
	a.dbName = a.path
	a.classify = classifySQLiteError
	return a
}

// sqlitePath reconstructs the database file path from the parsed DSN.
// sqlite:///path/to/db.db carries the path in the database component with
// the leading separator stripped; a non-empty host is a relative prefix.
func sqlitePath(c *DSNComponents) string {
	switch {
	case c.Host == "":
		return "/" + c.Database
	case c.Database == "":
		return c.Host
	default:
		return c.Host + "/" + c.Database
	}
}

// Connect opens the database file in read-only mode at the storage-engine
// level (mode=ro, not just application-level) and sets a busy-wait ceiling
// matching the configured timeout.
func (a *sqliteAdapter) Connect(ctx context.Context) error {
	dsn := fmt.Sprintf("file:%s?mode=ro", a.path)
	if err := a.open(ctx, "sqlite", dsn); err != nil {
		return err
	}

	return a.harden(ctx,
		fmt.Sprintf("PRAGMA busy_timeout = %d", a.cfg.Timeout.Milliseconds()),
		"PRAGMA query_only = ON",
	)
}

func (a *sqliteAdapter) FormatResult(rs *ResultSet, query string) string {
	return FormatRows(rs, query, a.dbName)
}

// classifySQLiteError matches on error text; the driver does not expose
// stable error codes through database/sql.
func classifySQLiteError(err error, timeout time.Duration, query string) error {
	if isDeadline(err) {
		return timeoutError(timeout, query, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy"):
		return timeoutError(timeout, query, err)
	case strings.Contains(msg, "readonly") || strings.Contains(msg, "attempt to write"):
		return errBlockedByEngine(
			"write operation blocked by database\n"+
				"  Hint: SQLite opened in read-only mode (URI parameter mode=ro)", err)
	}
	return executionError(query, err)
}
