// Package table loads and saves the tabular files (CSV/XLSX) that drive every
// batch process: one identifier column in, result columns out.
package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"agrobatch/constants"
)

// Table is an in-memory tabular file. All cells are strings; the first row of
// the source file is the header row. Headers are trimmed on load.
type Table struct {
	Headers []string
	Rows    [][]string
	Sheet   string // XLSX sheet the table was read from, "" for CSV
}

// Load reads a CSV or XLSX file, chosen by extension. sheet selects the
// worksheet for XLSX files; empty means the first sheet.
func Load(path, sheet string) (*Table, error) {
	switch ext := constants.NormalizeExt(filepath.Ext(path)); ext {
	case "csv":
		return loadCSV(path)
	case "xlsx":
		return loadXLSX(path, sheet)
	case "xls":
		return nil, fmt.Errorf("legacy .xls is not supported, convert %s to .xlsx", path)
	default:
		return nil, fmt.Errorf("unsupported table format %q for %s", ext, path)
	}
}

// Save writes the table back to disk, format chosen by the target extension.
func (t *Table) Save(path string) error {
	switch ext := constants.NormalizeExt(filepath.Ext(path)); ext {
	case "csv":
		return t.saveCSV(path)
	case "xlsx":
		return t.saveXLSX(path)
	default:
		return fmt.Errorf("unsupported table format %q for %s", ext, path)
	}
}

// Column returns the index of a header, with the available columns listed in
// the error to make input mistakes cheap to diagnose.
func (t *Table) Column(name string) (int, error) {
	for i, h := range t.Headers {
		if h == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("column %q not found, available columns: %v", name, t.Headers)
}

// EnsureColumn returns the index of a header, appending it (and padding every
// row) when missing.
func (t *Table) EnsureColumn(name string) int {
	if i, err := t.Column(name); err == nil {
		return i
	}
	t.Headers = append(t.Headers, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	return len(t.Headers) - 1
}

// Get returns a cell value, "" for short rows.
func (t *Table) Get(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Set writes a cell value, padding the row when it is shorter than the header.
func (t *Table) Set(row, col int, value string) {
	if row < 0 || row >= len(t.Rows) {
		return
	}
	for len(t.Rows[row]) <= col {
		t.Rows[row] = append(t.Rows[row], "")
	}
	t.Rows[row][col] = value
}

func loadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s has no header row", path)
	}
	return &Table{
		Headers: trimAll(records[0]),
		Rows:    records[1:],
	}, nil
}

func loadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q of %s has no header row", sheet, path)
	}
	return &Table{
		Headers: trimAll(rows[0]),
		Rows:    rows[1:],
		Sheet:   sheet,
	}, nil
}

func (t *Table) saveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.Headers); err != nil {
		_ = f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(padded(row, len(t.Headers))); err != nil {
			_ = f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

func (t *Table) saveXLSX(path string) error {
	f := excelize.NewFile()
	sheet := t.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range t.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for r, row := range t.Rows {
		for col, v := range padded(row, len(t.Headers)) {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write %s: %w", path, err)
	}
	return nil
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func padded(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
