package database

import (
	"context"

	"github.com/Gobusters/ectologger"
)

// Gateway is the only path to storage. Reads and writes acquire a session for the duration of
// the call and release it on every exit path.
type Gateway struct {
	db     DB
	logger ectologger.Logger
}

func NewGateway(db DB, logger ectologger.Logger) *Gateway {
	return &Gateway{
		db:     db,
		logger: logger,
	}
}

// Open acquires a connection with foreign key enforcement turned on.
func (g *Gateway) Open(ctx context.Context) (*Session, error) {
	return newSession(ctx, g.db, g.logger)
}

// Query runs a read and returns the materialized rows. When ctx carries an open transaction the
// read runs inside it.
func (g *Gateway) Query(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	if tx, ok := TxFromContext(ctx); ok {
		return tx.Query(ctx, query, args...)
	}

	session, err := g.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	return session.Query(ctx, query, args...)
}

// Select runs a read and scans every row into dest, a pointer to a slice of structs with db tags.
func (g *Gateway) Select(ctx context.Context, dest any, query string, args ...any) error {
	if tx, ok := TxFromContext(ctx); ok {
		return tx.Select(ctx, dest, query, args...)
	}

	session, err := g.Open(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	return session.Select(ctx, dest, query, args...)
}

// Execute runs a single write and commits it. On failure the write is rolled back and the
// connection released before the error is returned.
func (g *Gateway) Execute(ctx context.Context, query string, args ...any) (ExecResult, error) {
	var result ExecResult
	err := g.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		result, err = tx.Exec(ctx, query, args...)
		return err
	})
	return result, err
}

// WithTx runs fn inside one transaction on one connection and commits when fn succeeds.
// If ctx already carries an open transaction fn joins it and the outer caller owns the commit.
func (g *Gateway) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) (err error) {
	if tx, ok := TxFromContext(ctx); ok {
		return fn(ctx, tx)
	}

	session, err := g.Open(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	tx, err := session.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err = fn(ContextWithTx(ctx, tx), tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			g.logger.WithContext(ctx).WithError(rbErr).Errorf("failed to roll back after error: %v", err)
		}
		return err
	}

	return tx.Commit(ctx)
}

// Count returns the number of rows in table.
func (g *Gateway) Count(ctx context.Context, table string) (int64, error) {
	query, args := CountRows(table)
	rs, err := g.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	row, ok := rs.First()
	if !ok {
		return 0, nil
	}
	return row.Int64("count")
}

// Close closes the underlying pool.
func (g *Gateway) Close() error {
	return g.db.Close()
}

func (g *Gateway) DB() DB {
	return g.db
}
