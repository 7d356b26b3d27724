package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

const defaultMySQLPort = 3306

// MySQL server error numbers used for classification.
const (
	mysqlErrAccessDenied     = 1044 // ER_DBACCESS_DENIED_ERROR
	mysqlErrTableAccess      = 1142 // ER_TABLEACCESS_DENIED_ERROR
	mysqlErrSpecificAccess   = 1227 // ER_SPECIFIC_ACCESS_DENIED_ERROR
	mysqlErrOptionPrevents   = 1290 // ER_OPTION_PREVENTS_STATEMENT (read-only session)
	mysqlErrQueryInterrupted = 1317 // ER_QUERY_INTERRUPTED
	mysqlErrQueryTimeout     = 3024 // ER_QUERY_TIMEOUT (max_execution_time)
)

type mysqlAdapter struct {
	sqlAdapter
	components *DSNComponents
}

func newMySQLAdapter(c *DSNComponents, cfg Config) *mysqlAdapter {
	a := &mysqlAdapter{components: c}
	a.cfg = cfg
	a.dbName = databaseOrPlaceholder(c.Database)
	a.classify = classifyMySQLError
	return a
}

// Connect opens the connection and sets the session to read only with a
// statement timeout matching the configured value.
func (a *mysqlAdapter) Connect(ctx context.Context) error {
	port := a.components.Port
	if port == 0 {
		port = defaultMySQLPort
	}

	mc := mysql.NewConfig()
	mc.User = a.components.Username
	mc.Passwd = a.components.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", a.components.Host, port)
	mc.DBName = a.components.Database
	mc.Timeout = a.cfg.Timeout
	mc.ReadTimeout = a.cfg.Timeout
	mc.WriteTimeout = a.cfg.Timeout

	if err := a.open(ctx, "mysql", mc.FormatDSN()); err != nil {
		return err
	}

	return a.harden(ctx,
		"SET SESSION TRANSACTION READ ONLY",
		fmt.Sprintf("SET SESSION MAX_EXECUTION_TIME=%d", a.cfg.Timeout.Milliseconds()),
	)
}

func (a *mysqlAdapter) FormatResult(rs *ResultSet, query string) string {
	return FormatRows(rs, query, a.dbName)
}

func classifyMySQLError(err error, timeout time.Duration, query string) error {
	if isDeadline(err) {
		return timeoutError(timeout, query, err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrQueryTimeout, mysqlErrQueryInterrupted:
			return timeoutError(timeout, query, err)
		case mysqlErrOptionPrevents, mysqlErrAccessDenied, mysqlErrTableAccess, mysqlErrSpecificAccess:
			// The engine refused a write that slipped past the pattern
			// validator; second line of defense.
			return errBlockedByEngine(
				"write operation blocked by database\n"+
					"  Hint: MySQL session is set to READ ONLY mode", err)
		}
	}
	return executionError(query, err)
}

func databaseOrPlaceholder(name string) string {
	if name == "" {
		return "no_database"
	}
	return name
}
