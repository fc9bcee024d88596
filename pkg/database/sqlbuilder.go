package database

import (
	"github.com/huandu/go-sqlbuilder"
)

// Flavor is the placeholder dialect every builder in this package renders.
var Flavor = sqlbuilder.SQLite

// InsertBuilder keeps the chained calls typed to this package so callers never pick a flavor.
type InsertBuilder struct {
	*sqlbuilder.InsertBuilder
}

func NewInsertBuilder() *InsertBuilder {
	return &InsertBuilder{Flavor.NewInsertBuilder()}
}

func (ib *InsertBuilder) InsertInto(table string) *InsertBuilder {
	ib.InsertBuilder.InsertInto(table)
	return ib
}

func (ib *InsertBuilder) Cols(col ...string) *InsertBuilder {
	ib.InsertBuilder.Cols(col...)
	return ib
}

func (ib *InsertBuilder) Values(value ...any) *InsertBuilder {
	ib.InsertBuilder.Values(value...)
	return ib
}

type SelectBuilder struct {
	*sqlbuilder.SelectBuilder
}

func NewSelectBuilder() *SelectBuilder {
	return &SelectBuilder{Flavor.NewSelectBuilder()}
}

// CountRows builds SELECT COUNT(*) AS count FROM table.
func CountRows(table string) (string, []any) {
	sb := NewSelectBuilder()
	sb.Select("COUNT(*) AS count")
	sb.From(table)
	return sb.Build()
}
