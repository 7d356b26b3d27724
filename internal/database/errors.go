package database

import (
	"errors"
	"fmt"
)

// ErrKind categorises a database error without exposing driver-specific codes.
type ErrKind int

const (
	KindUnknown       ErrKind = iota
	KindInvalidDSN            // malformed connection string
	KindConnection            // engine unreachable or auth failure
	KindValidation            // query rejected as a write, by us or by the engine
	KindTimeout               // query or acquisition exceeded its deadline
	KindPoolExhausted         // no pool capacity within the wait window
	KindExecution             // any other engine-reported failure
)

func (k ErrKind) String() string {
	switch k {
	case KindInvalidDSN:
		return "invalid_dsn"
	case KindConnection:
		return "connection_failed"
	case KindValidation:
		return "validation_failed"
	case KindTimeout:
		return "timeout"
	case KindPoolExhausted:
		return "pool_exhausted"
	case KindExecution:
		return "execution_failed"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all database operations.
// Adapters translate their native driver errors into Error before returning.
type Error struct {
	Kind    ErrKind
	Message string
	// Operation holds the detected write keyword for validation failures
	// (e.g. "DELETE"), used by the audit logger as blocked_operation.
	Operation string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructor helpers used by the parser, pool and adapters ---

func errInvalidDSN(msg string) *Error {
	return &Error{Kind: KindInvalidDSN, Message: msg}
}

func errConnection(msg string, cause error) *Error {
	return &Error{Kind: KindConnection, Message: msg, Cause: cause}
}

func errValidation(operation, msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Operation: operation}
}

func errBlockedByEngine(msg string, cause error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Cause: cause}
}

func errTimeout(msg string, cause error) *Error {
	return &Error{Kind: KindTimeout, Message: msg, Cause: cause}
}

func errPoolExhausted(dsn string, capacity int) *Error {
	return &Error{
		Kind: KindPoolExhausted,
		Message: fmt.Sprintf("connection pool exhausted for %s (maximum pool size: %d)",
			SanitizeDSN(dsn), capacity),
	}
}

func errExecution(msg string, cause error) *Error {
	return &Error{Kind: KindExecution, Message: msg, Cause: cause}
}

// --- Public predicates for callers ---

// IsInvalidDSN reports whether err is a malformed-DSN failure.
func IsInvalidDSN(err error) bool { return kindOf(err) == KindInvalidDSN }

// IsConnection reports whether err is a connectivity or auth failure.
func IsConnection(err error) bool { return kindOf(err) == KindConnection }

// IsValidation reports whether err is a rejected write, detected either by
// the pattern validator or by the engine's own read-only enforcement.
func IsValidation(err error) bool { return kindOf(err) == KindValidation }

// IsTimeout reports whether err was caused by a deadline. Adapters that
// return a timeout are unfit for pool reuse and should be discarded.
func IsTimeout(err error) bool { return kindOf(err) == KindTimeout }

// IsPoolExhausted reports whether err means the pool had no capacity
// within the acquire wait window.
func IsPoolExhausted(err error) bool { return kindOf(err) == KindPoolExhausted }

// IsExecution reports whether err is an uncategorised engine failure.
func IsExecution(err error) bool { return kindOf(err) == KindExecution }

// BlockedOperation returns the write keyword a validation failure detected,
// or "" when the error is not a validation failure or the keyword is unknown
// (engine-level rejections carry no keyword).
func BlockedOperation(err error) string {
	var dbErr *Error
	if errors.As(err, &dbErr) && dbErr.Kind == KindValidation {
		return dbErr.Operation
	}
	return ""
}

func kindOf(err error) ErrKind {
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return dbErr.Kind
	}
	return KindUnknown
}
