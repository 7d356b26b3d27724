package database

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event kinds emitted by the audit logger.
const (
	eventConnection = "database_connection"
	eventQuery      = "query_execution"
	eventPool       = "connection_pool"
)

var dsnCredentials = regexp.MustCompile(`://([^@/]+)@`)

// SanitizeDSN masks the credential segment of a DSN while preserving the
// scheme, host and database, so log records never leak passwords.
func SanitizeDSN(dsn string) string {
	return dsnCredentials.ReplaceAllString(dsn, "://***:***@")
}

// HashQuery returns a short non-reversible fingerprint of the query text,
// stable across processes so repeated queries can be correlated.
func HashQuery(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])[:16]
}

// Auditor emits one structured JSON record per connection attempt, query
// execution and pool operation. Records are fire-and-forget; logging
// failures are never surfaced to callers.
type Auditor struct {
	log zerolog.Logger
}

// NewAuditor writes audit records to w, one JSON object per line.
func NewAuditor(w io.Writer) *Auditor {
	return &Auditor{log: zerolog.New(w)}
}

// NopAuditor discards all records. Used when no audit sink is configured.
func NopAuditor() *Auditor {
	return &Auditor{log: zerolog.Nop()}
}

// Connection logs one connection attempt against a sanitized DSN.
func (a *Auditor) Connection(dsn string, success bool, err error, duration time.Duration) {
	evt := a.log.Info()
	if !success {
		evt = a.log.Error()
	}
	evt = evt.
		Str("event", eventConnection).
		Str("event_id", uuid.NewString()).
		Str("dsn", SanitizeDSN(dsn)).
		Bool("success", success).
		Float64("duration_seconds", roundSeconds(duration))
	if err != nil {
		evt = evt.Str("error", err.Error())
	}
	evt.Send()
}

// QueryEvent describes one query execution for the audit log.
type QueryEvent struct {
	Query    string
	DSN      string
	Success  bool
	Blocked  bool
	RowCount int
	Duration time.Duration
	Err      error
}

// Query logs one query execution. Blocked writes log at warn severity so
// security monitoring can alert on attempted writes; the detected operation
// keyword is attached when the rejection reason carries one.
func (a *Auditor) Query(e QueryEvent) {
	var evt *zerolog.Event
	switch {
	case e.Blocked:
		evt = a.log.Warn()
	case e.Success:
		evt = a.log.Info()
	default:
		evt = a.log.Error()
	}
	evt = evt.
		Str("event", eventQuery).
		Str("event_id", uuid.NewString()).
		Str("dsn", SanitizeDSN(e.DSN)).
		Str("query_hash", HashQuery(e.Query)).
		Str("query_preview", previewQuery(e.Query)).
		Bool("success", e.Success).
		Bool("blocked", e.Blocked).
		Int("row_count", e.RowCount).
		Float64("duration_seconds", roundSeconds(e.Duration)).
		Float64("timestamp", float64(time.Now().UnixMilli())/1000)
	if e.Err != nil {
		evt = evt.Str("error", e.Err.Error())
		if op := BlockedOperation(e.Err); op != "" {
			evt = evt.Str("blocked_operation", op)
		}
	}
	evt.Send()
}

// Pool logs one pool operation (acquire, release, discard, close_all) at
// debug severity.
func (a *Auditor) Pool(dsn, operation string, poolSize, active int) {
	a.log.Debug().
		Str("event", eventPool).
		Str("dsn", SanitizeDSN(dsn)).
		Str("operation", operation).
		Int("pool_size", poolSize).
		Int("active_connections", active).
		Send()
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 1000
}
