package sales

import (
	"path/filepath"
	"testing"

	"github.com/Ramsey-B/storedb/internal/testutil"
	apperrors "github.com/Ramsey-B/storedb/pkg/errors"
	"github.com/Ramsey-B/storedb/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const header = "date,st,prod_id,prod_desc,unit_price,first,last,addr,zip,qty\n"

func TestReadFileRecord(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "Sales_001.csv", header+
		"2024-03-05 10:15,CA,1,Widget,10,Ann,Lee,1 Main St,02134,3\n")

	f, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, f.Len())

	rec, err := f.Record(0)
	require.NoError(t, err)
	assert.Equal(t, models.SalesRecord{
		Date:        "2024-03-05 10:15",
		Day:         5,
		Month:       3,
		Year:        2024,
		Time:        "10:15",
		StateID:     "CA",
		ProdID:      1,
		Description: "Widget",
		UnitPrice:   10,
		First:       "Ann",
		Last:        "Lee",
		Addr:        "1 Main St",
		Zip:         "02134",
		Qty:         3,
	}, rec)
}

func TestReadFileMissingColumns(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "Sales_002.csv", "date,st\n2024-03-05 10:15,CA\n")

	_, err := ReadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns: prod_id, prod_desc, unit_price, first, last, addr, zip, qty")
}

func TestRecordErrorsCarryRowAndColumn(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "Sales_003.csv", header+
		"2024-03-05 10:15,CA,1,Widget,10,Ann,Lee,1 Main St,90001,3\n"+
		"2024-03-05 10:15,CA,1,Widget,ten,Ann,Lee,1 Main St,90001,3\n"+
		"2024-03-05,CA,1,Widget,10,Ann,Lee,1 Main St,90001,3\n"+
		"2024-03-05 10:15,CA,1,Widget\n")

	f, err := ReadFile(path)
	require.NoError(t, err)

	tests := []struct {
		row    int
		column string
	}{
		{row: 1, column: ColUnitPrice},
		{row: 2, column: ColDate},
		{row: 3, column: ""},
	}
	for _, tt := range tests {
		_, err := f.Record(tt.row)
		require.Error(t, err)

		var rowErr *apperrors.RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, tt.row, rowErr.Row)
		assert.Equal(t, tt.column, rowErr.Column)
	}
}

func TestRecordAcceptsIntegralDecimals(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "Sales_004.csv", header+
		"2024-03-05 10:15,CA,1,Widget,10.0,Ann,Lee,1 Main St,02134,3\n"+
		"2024-03-05 10:15,CA,1,Widget,10.5,Ann,Lee,1 Main St,02134,3\n")

	f, err := ReadFile(path)
	require.NoError(t, err)

	rec, err := f.Record(0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.UnitPrice)

	_, err = f.Record(1)
	var rowErr *apperrors.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, ColUnitPrice, rowErr.Column)
	assert.Contains(t, err.Error(), `"10.5" is not an integer`)
}

func TestSplitDate(t *testing.T) {
	tests := []struct {
		in      string
		day     int
		month   int
		year    int
		clock   string
		wantErr bool
	}{
		{in: "2024-03-05 10:15", day: 5, month: 3, year: 2024, clock: "10:15"},
		{in: "2024-12-31 23:59:59", day: 31, month: 12, year: 2024, clock: "23:59:59"},
		{in: "2024-03-05 10:15 PST", day: 5, month: 3, year: 2024, clock: "10:15"},
		{in: "2024-03-05", wantErr: true},
		{in: "2024/03/05 10:15", wantErr: true},
		{in: "2024-xx-05 10:15", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			day, month, year, clock, err := SplitDate(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []any{tt.day, tt.month, tt.year, tt.clock}, []any{day, month, year, clock})
		})
	}
}

func TestReadTableWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zips.xlsx")

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]any{"zip", "city", "state_id"}))
	require.NoError(t, wb.SetCellStr(sheet, "A2", "02134"))
	require.NoError(t, wb.SetCellStr(sheet, "B2", "Boston"))
	require.NoError(t, wb.SetCellStr(sheet, "C2", "MA"))
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	table, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"zip", "city", "state_id"}, table.Header)
	require.Equal(t, 1, table.Len())

	zip, err := table.Value(0, "zip")
	require.NoError(t, err)
	assert.Equal(t, "02134", zip)

	_, err = table.Value(0, "county")
	assert.Error(t, err)
}

func TestTableValues(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "zips.csv", "zip,city,state_id\n02134,Boston,MA\n")

	table, err := ReadTable(path)
	require.NoError(t, err)

	values, err := table.Values(0, "state_id", "zip")
	require.NoError(t, err)
	assert.Equal(t, []string{"MA", "02134"}, values)

	_, err = table.Values(0, "zip", "county")
	assert.ErrorContains(t, err, `unknown column "county"`)
}
