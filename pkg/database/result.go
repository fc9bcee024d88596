package database

import (
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
)

// Row is one result row keyed by column name.
type Row map[string]any

// ResultSet is a fully materialized read, in the order the storage returned it.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

func (r *ResultSet) Empty() bool {
	return r.Len() == 0
}

// First returns the first row in storage order.
func (r *ResultSet) First() (Row, bool) {
	if r.Empty() {
		return nil, false
	}
	return r.Rows[0], true
}

// Int64 reads an integer column, accepting the representations sqlite hands back.
func (row Row) Int64(column string) (int64, error) {
	value, ok := row[column]
	if !ok {
		return 0, fmt.Errorf("column %q not in result", column)
	}

	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case nil:
		return 0, fmt.Errorf("column %q is null", column)
	default:
		return 0, fmt.Errorf("column %q has unsupported type %T", column, value)
	}
}

func (row Row) String(column string) string {
	switch v := row[column].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func scanResultSet(rows *sqlx.Rows) (*ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &ResultSet{Columns: columns}
	for rows.Next() {
		row := make(map[string]any, len(columns))
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		result.Rows = append(result.Rows, Row(row))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
