package sales

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/Ramsey-B/storedb/pkg/errors"
	"github.com/Ramsey-B/storedb/pkg/models"
)

// Column names of an intake file.
const (
	ColDate        = "date"
	ColState       = "st"
	ColProdID      = "prod_id"
	ColDescription = "prod_desc"
	ColUnitPrice   = "unit_price"
	ColFirst       = "first"
	ColLast        = "last"
	ColAddr        = "addr"
	ColZip         = "zip"
	ColQty         = "qty"
)

var Columns = []string{
	ColDate, ColState, ColProdID, ColDescription, ColUnitPrice,
	ColFirst, ColLast, ColAddr, ColZip, ColQty,
}

// File is one parsed intake file.
type File struct {
	*Table
}

// ReadFile reads an intake file and checks that every sales column is in its header.
func ReadFile(path string) (*File, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require(Columns...); err != nil {
		return nil, err
	}
	return &File{Table: t}, nil
}

// Record converts row i. Failures are *errors.RowError values naming the column.
func (f *File) Record(i int) (models.SalesRecord, error) {
	var rec models.SalesRecord

	if err := f.CheckWidth(i); err != nil {
		return rec, apperrors.NewRowError(i, err)
	}

	text := []struct {
		column string
		dest   *string
	}{
		{ColDate, &rec.Date},
		{ColState, &rec.StateID},
		{ColDescription, &rec.Description},
		{ColFirst, &rec.First},
		{ColLast, &rec.Last},
		{ColAddr, &rec.Addr},
		{ColZip, &rec.Zip},
	}
	for _, field := range text {
		value, err := f.Value(i, field.column)
		if err != nil {
			return rec, apperrors.NewRowError(i, err).AddColumn(field.column)
		}
		*field.dest = value
	}

	ints := []struct {
		column string
		dest   *int64
	}{
		{ColProdID, &rec.ProdID},
		{ColUnitPrice, &rec.UnitPrice},
		{ColQty, &rec.Qty},
	}
	for _, field := range ints {
		n, err := f.Int64(i, field.column)
		if err != nil {
			return rec, apperrors.NewRowError(i, err).AddColumn(field.column)
		}
		*field.dest = n
	}

	day, month, year, clock, err := SplitDate(rec.Date)
	if err != nil {
		return rec, apperrors.NewRowError(i, err).AddColumn(ColDate)
	}
	rec.Day, rec.Month, rec.Year, rec.Time = day, month, year, clock

	return rec, nil
}

// SplitDate splits "YYYY-MM-DD HH:MM..." into day, month and year plus the time text that
// follows the first space, kept verbatim.
func SplitDate(value string) (day, month, year int, clock string, err error) {
	datePart, clock, ok := strings.Cut(value, " ")
	if !ok {
		return 0, 0, 0, "", fmt.Errorf("date %q has no time", value)
	}
	if i := strings.Index(clock, " "); i >= 0 {
		clock = clock[:i]
	}
	if clock == "" {
		return 0, 0, 0, "", fmt.Errorf("date %q has no time", value)
	}

	parts := strings.Split(datePart, "-")
	if len(parts) != 3 {
		return 0, 0, 0, "", fmt.Errorf("date %q is not YYYY-MM-DD", value)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, 0, 0, "", fmt.Errorf("date %q is not YYYY-MM-DD", value)
		}
		nums[i] = n
	}

	return nums[2], nums[1], nums[0], clock, nil
}
