package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/lib/pq"
)

const defaultPostgresPort = 5432

// PostgreSQL SQLSTATE codes used for classification.
const (
	pgErrQueryCanceled         = "57014" // statement_timeout fired
	pgErrReadOnlyTransaction   = "25006" // write inside a read-only transaction
	pgErrInsufficientPrivilege = "42501"
)

type postgresAdapter struct {
	sqlAdapter
	components *DSNComponents
}

func newPostgresAdapter(c *DSNComponents, cfg Config) *postgresAdapter {
	a := &postgresAdapter{components: c}
	a.cfg = cfg
	a.dbName = databaseOrPlaceholder(c.Database)
	a.classify = classifyPostgresError
	return a
}

// Connect opens the connection, sets the session characteristics to read
// only and installs a statement timeout matching the configured value.
func (a *postgresAdapter) Connect(ctx context.Context) error {
	if err := a.open(ctx, "postgres", a.driverDSN()); err != nil {
		return err
	}

	return a.harden(ctx,
		"SET SESSION CHARACTERISTICS AS TRANSACTION READ ONLY",
		fmt.Sprintf("SET statement_timeout = %d", a.cfg.Timeout.Milliseconds()),
	)
}

func (a *postgresAdapter) driverDSN() string {
	port := a.components.Port
	if port == 0 {
		port = defaultPostgresPort
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", a.components.Host, port),
	}
	if a.components.Username != "" {
		if a.components.Password != "" {
			u.User = url.UserPassword(a.components.Username, a.components.Password)
		} else {
			u.User = url.User(a.components.Username)
		}
	}
	if a.components.Database != "" {
		u.Path = "/" + a.components.Database
	}

	q := url.Values{}
	q.Set("sslmode", "prefer")
	q.Set("connect_timeout", fmt.Sprintf("%d", int(a.cfg.Timeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String()
}

func (a *postgresAdapter) FormatResult(rs *ResultSet, query string) string {
	return FormatRows(rs, query, a.dbName)
}

func classifyPostgresError(err error, timeout time.Duration, query string) error {
	if isDeadline(err) {
		return timeoutError(timeout, query, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgErrQueryCanceled:
			return timeoutError(timeout, query, err)
		case pgErrReadOnlyTransaction, pgErrInsufficientPrivilege:
			return errBlockedByEngine(
				"write operation blocked by database\n"+
					"  Hint: PostgreSQL session is set to READ ONLY mode", err)
		}
	}
	return executionError(query, err)
}
