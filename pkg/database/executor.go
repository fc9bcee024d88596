package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Executor runs statements on a single connection, either a Session or a Tx.
// Every failure comes back as a *StatementError.
type Executor interface {
	Query(ctx context.Context, query string, args ...any) (*ResultSet, error)
	Exec(ctx context.Context, query string, args ...any) (ExecResult, error)
	Get(ctx context.Context, dest any, query string, args ...any) error
	Select(ctx context.Context, dest any, query string, args ...any) error
}

// ExecResult carries the identity generated by an insert and the number of rows touched.
type ExecResult struct {
	LastInsertID int64
	RowsAffected int64
}

type extContext interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type executor struct {
	ext extContext
}

func (e executor) Query(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	rows, err := e.ext.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, NewStatementError("query", query, args, err)
	}
	defer rows.Close()

	result, err := scanResultSet(rows)
	if err != nil {
		return nil, NewStatementError("query", query, args, err)
	}
	return result, nil
}

func (e executor) Exec(ctx context.Context, query string, args ...any) (ExecResult, error) {
	res, err := e.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return ExecResult{}, NewStatementError("execute", query, args, err)
	}

	lastID, err := res.LastInsertId()
	if err != nil {
		return ExecResult{}, NewStatementError("execute", query, args, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return ExecResult{}, NewStatementError("execute", query, args, err)
	}

	return ExecResult{LastInsertID: lastID, RowsAffected: affected}, nil
}

func (e executor) Get(ctx context.Context, dest any, query string, args ...any) error {
	if err := e.ext.GetContext(ctx, dest, query, args...); err != nil {
		return NewStatementError("query", query, args, err)
	}
	return nil
}

func (e executor) Select(ctx context.Context, dest any, query string, args ...any) error {
	if err := e.ext.SelectContext(ctx, dest, query, args...); err != nil {
		return NewStatementError("query", query, args, err)
	}
	return nil
}
