package sales

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a header-keyed tabular file. Rows exclude the header; row i of Rows is data row i,
// counted from 0.
type Table struct {
	Path    string
	Header  []string
	Rows    [][]string
	columns map[string]int
}

// ReadTable reads a .csv file, or the first sheet of a .xlsx workbook. Cells are kept as text so
// codes with leading zeros survive.
func ReadTable(path string) (*Table, error) {
	var (
		records [][]string
		err     error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		records, err = readWorkbook(path)
	default:
		records, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%s has no header row", path)
	}

	t := &Table{
		Path:    path,
		Header:  records[0],
		Rows:    records[1:],
		columns: make(map[string]int, len(records[0])),
	}
	for i, name := range t.Header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		t.Header[i] = name
		if _, dup := t.columns[name]; dup {
			return nil, fmt.Errorf("%s has duplicate column %q", path, name)
		}
		t.columns[name] = i
	}

	return t, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// short or long rows are reported per row so earlier rows can still be loaded
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%s has no sheets", path)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}
		records = append(records, row)
	}
	return records, nil
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Require fails when any of columns is missing from the header.
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, column := range columns {
		if _, ok := t.columns[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is missing columns: %s", t.Path, strings.Join(missing, ", "))
	}
	return nil
}

// Value returns the cell of row in column. Workbook rows drop trailing blank cells, so a
// position past the end of the row reads as "".
func (t *Table) Value(row int, column string) (string, error) {
	if row < 0 || row >= len(t.Rows) {
		return "", fmt.Errorf("row %d out of range", row)
	}
	idx, ok := t.columns[column]
	if !ok {
		return "", fmt.Errorf("unknown column %q", column)
	}
	cells := t.Rows[row]
	if idx >= len(cells) {
		return "", nil
	}
	return cells[idx], nil
}

// Values returns the cells of row for each of columns, in order.
func (t *Table) Values(row int, columns ...string) ([]string, error) {
	values := make([]string, len(columns))
	for i, column := range columns {
		value, err := t.Value(row, column)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}

// Int64 parses the cell of row in column as an integer. Decimals with no fractional part, such
// as "10.0", are accepted.
func (t *Table) Int64(row int, column string) (int64, error) {
	value, err := t.Value(row, column)
	if err != nil {
		return 0, err
	}
	trimmed := strings.TrimSpace(value)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, fmt.Errorf("column %q: %q is not an integer", column, value)
	}
	return int64(f), nil
}

// CheckWidth fails when a CSV row has a different number of cells than the header.
func (t *Table) CheckWidth(row int) error {
	if strings.ToLower(filepath.Ext(t.Path)) == ".xlsx" {
		return nil
	}
	if got, want := len(t.Rows[row]), len(t.Header); got != want {
		return fmt.Errorf("row has %d fields, header has %d", got, want)
	}
	return nil
}
