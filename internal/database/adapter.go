package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Default limits, overridable by the caller via Config.
const (
	DefaultQueryTimeout = 30 * time.Second
	DefaultMaxRows      = 10_000
	DefaultPoolSize     = 5
)

// Field is one named value of a result row.
type Field struct {
	Name  string
	Value any
}

// Row is an insertion-ordered sequence of fields. Order is preserved so
// that formatting is deterministic for both tabular and document results.
type Row []Field

// Get returns the value of the named field and whether it exists.
func (r Row) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// ResultSet holds the ordered rows returned by one query. Column order is
// identical across all rows of the same result.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Adapter is the contract every database protocol implements: connect once,
// validate and execute many queries, format results, close. An adapter is
// owned by exactly one caller between pool acquire and release.
type Adapter interface {
	// Connect establishes the underlying connection and applies the
	// protocol's read-only hardening. Returns a Connection-kind error
	// on failure.
	Connect(ctx context.Context) error

	// ValidateQuery checks the query against this protocol's read-only
	// rules without touching the connection.
	ValidateQuery(query string) Outcome

	// ExecuteQuery validates and runs a single read query. Failures are
	// Validation, Timeout or Execution-kind errors.
	ExecuteQuery(ctx context.Context, query string) (*ResultSet, error)

	// FormatResult renders rows as deterministic plain text.
	FormatResult(rs *ResultSet, query string) string

	// Close releases the connection. Idempotent; never fails.
	Close()
}

// Config carries the per-adapter limits and the audit sink.
type Config struct {
	DSN     string
	Timeout time.Duration
	MaxRows int
	Audit   *Auditor
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultQueryTimeout
	}
	if c.MaxRows == 0 {
		c.MaxRows = DefaultMaxRows
	}
	if c.Audit == nil {
		c.Audit = NopAuditor()
	}
	return c
}

// NewAdapter builds the adapter for the protocol encoded in the parsed
// components. The adapter is not yet connected; the pool drives Connect.
func NewAdapter(c *DSNComponents, cfg Config) (Adapter, error) {
	cfg = cfg.withDefaults()
	switch c.Protocol {
	case ProtocolMySQL:
		return newMySQLAdapter(c, cfg), nil
	case ProtocolPostgreSQL, "postgres":
		return newPostgresAdapter(c, cfg), nil
	case ProtocolSQLite:
		return newSQLiteAdapter(c, cfg), nil
	case ProtocolMongoDB:
		return newMongoAdapter(c, cfg), nil
	default:
		return nil, errInvalidDSN(fmt.Sprintf(
			"unsupported database protocol: %s\n"+
				"  Supported protocols: mysql, postgresql, sqlite, mongodb", c.Protocol))
	}
}

var limitClausePattern = regexp.MustCompile(`(?i)\bLIMIT\b`)

// addLimitClause appends a LIMIT clause to SELECT queries that have none,
// so unbounded reads cannot flood the result set. This is the only query
// rewriting performed anywhere in this package.
func addLimitClause(query string, maxRows int) string {
	if maxRows <= 0 || limitClausePattern.MatchString(query) {
		return query
	}
	trimmed := strings.TrimSpace(query)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return query
	}
	return fmt.Sprintf("%s LIMIT %d", strings.TrimRight(trimmed, "; \t\n"), maxRows)
}
