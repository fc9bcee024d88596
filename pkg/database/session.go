package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
)

const foreignKeysPragma = "PRAGMA foreign_keys = ON;"

// Session is one acquired connection. It replaces a shared open/closed flag: whoever opens a
// session owns it and must Close it.
type Session struct {
	executor
	conn   *sqlx.Conn
	logger ectologger.Logger
	closed bool
}

func newSession(ctx context.Context, db DB, logger ectologger.Logger) (*Session, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, NewStatementError("connect", "", nil, err)
	}

	// foreign key checks are off by default in sqlite and are tracked per connection
	if _, err := conn.ExecContext(ctx, foreignKeysPragma); err != nil {
		conn.Close()
		return nil, NewStatementError("connect", foreignKeysPragma, nil, err)
	}

	return &Session{
		executor: executor{ext: conn},
		conn:     conn,
		logger:   logger,
	}, nil
}

// BeginTx starts a transaction on this session's connection.
func (s *Session) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	if s.closed {
		return nil, NewStatementError("begin", "", nil, sql.ErrConnDone)
	}

	tx, err := s.conn.BeginTxx(ctx, opts)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Errorf("error while beginning transaction")
		return nil, NewStatementError("begin", "", nil, err)
	}

	return NewTx(tx, s.logger), nil
}

func (s *Session) IsOpen() bool {
	return !s.closed
}

// Close releases the connection. Safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.conn.Close(); err != nil && err != sql.ErrConnDone {
		return fmt.Errorf("error while closing connection: %w", err)
	}
	return nil
}
