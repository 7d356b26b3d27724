package database

import (
	"fmt"
	"regexp"
	"strings"
)

// writeOperationPatterns detect write operations across all SQL dialects.
// Order matters only for which keyword gets reported; the set is checked
// exhaustively. Patterns are word-boundary aware so that column names like
// created_at or deleted never false-positive.
var writeOperationPatterns = []struct {
	re *regexp.Regexp
	op string
}{
	{regexp.MustCompile(`(?i)\bINSERT\s+INTO\b`), "INSERT"},
	{regexp.MustCompile(`(?i)\bUPDATE\s+\w+\s+SET\b`), "UPDATE"},
	{regexp.MustCompile(`(?i)\bDELETE\s+FROM\b`), "DELETE"},
	{regexp.MustCompile(`(?i)\bDROP\s+(TABLE|DATABASE|INDEX|VIEW|SCHEMA|TRIGGER|PROCEDURE|FUNCTION)\b`), "DROP"},
	{regexp.MustCompile(`(?i)\bALTER\s+(TABLE|DATABASE|INDEX|VIEW|SCHEMA)\b`), "ALTER"},
	{regexp.MustCompile(`(?i)\bCREATE\s+(TABLE|DATABASE|INDEX|VIEW|SCHEMA|TRIGGER|PROCEDURE|FUNCTION)\b`), "CREATE"},
	{regexp.MustCompile(`(?i)\bTRUNCATE\s+TABLE\b`), "TRUNCATE"},
	{regexp.MustCompile(`(?i)\bREPLACE\s+INTO\b`), "REPLACE"},
	{regexp.MustCompile(`(?i)\bMERGE\s+INTO\b`), "MERGE"},
	{regexp.MustCompile(`(?i)\bGRANT\b`), "GRANT"},
	{regexp.MustCompile(`(?i)\bREVOKE\b`), "REVOKE"},
	{regexp.MustCompile(`(?i)\bRENAME\s+(TABLE|COLUMN)\b`), "RENAME"},
	{regexp.MustCompile(`(?i)\bLOCK\s+TABLES\b`), "LOCK"},
	{regexp.MustCompile(`(?i)\bUNLOCK\s+TABLES\b`), "UNLOCK"},
}

// showCreatePattern matches the read-only SHOW CREATE family, which would
// otherwise trip the CREATE pattern above.
var showCreatePattern = regexp.MustCompile(
	`(?i)\bSHOW\s+CREATE\s+(TABLE|VIEW|DATABASE|SCHEMA|FUNCTION|PROCEDURE|TRIGGER)\b`)

// Outcome is the result of a read-only check.
type Outcome struct {
	OK bool
	// Operation is the detected write keyword when OK is false and a
	// pattern matched (empty for the empty-query rejection).
	Operation string
	Reason    string
}

// ValidateQuery checks that a query contains no write operations. It is
// pure and total: it never errors, it always returns a decision.
//
// Detection covers data modification (INSERT, UPDATE, DELETE, REPLACE,
// MERGE), schema changes (CREATE, ALTER, DROP, RENAME), table operations
// (TRUNCATE, LOCK, UNLOCK) and permission changes (GRANT, REVOKE).
func ValidateQuery(query string) Outcome {
	if strings.TrimSpace(query) == "" {
		return Outcome{Reason: "Query cannot be empty"}
	}

	// Collapse whitespace so multi-line queries match single-line patterns.
	normalized := strings.Join(strings.Fields(query), " ")

	// SHOW CREATE TABLE/VIEW/... is read-only despite containing CREATE.
	if showCreatePattern.MatchString(normalized) {
		return Outcome{OK: true}
	}

	for _, p := range writeOperationPatterns {
		if p.re.MatchString(normalized) {
			return Outcome{
				Operation: p.op,
				Reason: fmt.Sprintf(
					"Query rejected: %s operation detected (write operation)\n"+
						"  Hint: Only read-only operations are allowed (SELECT, SHOW, DESCRIBE, EXPLAIN)\n"+
						"  Detected pattern: %s\n"+
						"  Query: %s", p.op, p.op, previewQuery(query)),
			}
		}
	}

	return Outcome{OK: true}
}

// IsSafeQuery reports whether a query passes the read-only check.
func IsSafeQuery(query string) bool {
	return ValidateQuery(query).OK
}

// previewQuery returns up to the first 100 characters of a query for error
// messages and audit records.
func previewQuery(query string) string {
	if len(query) > 100 {
		return query[:100] + "..."
	}
	return query
}
