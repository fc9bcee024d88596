package errors

import (
	"errors"
	"fmt"
	"strings"
)

// RowError reports a failure on one row of an input file or seed batch. Row is 0-based.
type RowError struct {
	File    string
	Batch   string
	Row     int
	Column  string
	Message string
	Err     error
}

func NewRowError(row int, err error) *RowError {
	return &RowError{
		Row: row,
		Err: err,
	}
}

// WrapRowError returns err as a *RowError for row, reusing an existing one found in the chain.
func WrapRowError(row int, err error) *RowError {
	if err == nil {
		return nil
	}

	var rowErr *RowError
	if errors.As(err, &rowErr) {
		return rowErr
	}

	return NewRowError(row, err)
}

func (e *RowError) Error() string {
	path := []string{}
	if e.File != "" {
		path = append(path, fmt.Sprintf("file '%s'", e.File))
	}
	if e.Batch != "" {
		path = append(path, fmt.Sprintf("batch '%s'", e.Batch))
	}
	path = append(path, fmt.Sprintf("row %d", e.Row))
	if e.Column != "" {
		path = append(path, fmt.Sprintf("column '%s'", e.Column))
	}

	msg := e.Message
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}

	return "error on " + strings.Join(path, " -> ") + ": " + msg
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func (e *RowError) AddFile(file string) *RowError {
	e.File = file
	return e
}

func (e *RowError) AddBatch(batch string) *RowError {
	e.Batch = batch
	return e
}

func (e *RowError) AddColumn(column string) *RowError {
	e.Column = column
	return e
}

func (e *RowError) AddMessage(msg string) *RowError {
	e.Message = msg
	return e
}

func IsRowError(err error) bool {
	var rowErr *RowError
	return errors.As(err, &rowErr)
}

// RowIndex returns the row carried by the first *RowError in err's chain.
func RowIndex(err error) (int, bool) {
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		return 0, false
	}
	return rowErr.Row, true
}
