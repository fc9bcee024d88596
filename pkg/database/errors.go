package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrorKind classifies a storage failure so callers can tell a rejected write from a broken
// connection without parsing messages.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindConstraint
	KindConnection
)

func (k ErrorKind) String() string {
	switch k {
	case KindConstraint:
		return "constraint"
	case KindConnection:
		return "connection"
	default:
		return "other"
	}
}

// StatementError wraps a driver error with the statement and parameters that produced it.
type StatementError struct {
	Op        string
	Statement string
	Params    []any
	Err       error
}

func NewStatementError(op, statement string, params []any, err error) *StatementError {
	return &StatementError{
		Op:        op,
		Statement: statement,
		Params:    params,
		Err:       err,
	}
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s failed: %v\nsql: %s\nparams: %v", e.Op, e.Err, strings.TrimSpace(e.Statement), e.Params)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Kind reports the category of the underlying driver error.
func (e *StatementError) Kind() ErrorKind {
	return KindOf(e.Err)
}

// KindOf classifies any error returned by this package or the sqlite driver.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindOther
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return KindConnection
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		// extended result codes keep the primary code in the low byte
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return KindConstraint
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return KindConnection
		}
	}

	return KindOther
}

func IsConstraintViolation(err error) bool {
	return KindOf(err) == KindConstraint
}

func IsConnectionError(err error) bool {
	return KindOf(err) == KindConnection
}
