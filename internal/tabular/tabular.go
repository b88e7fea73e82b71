// Package tabular reads and writes the workbook and CSV files the pipeline
// consumes. Every cell is handled as a string; column lookup is by
// normalized header.
package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a rectangular string table with a header row.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Sheet pairs a sheet name with its table for workbook output.
type Sheet struct {
	Name  string
	Table *Table
}

var headerSpaceRe = regexp.MustCompile(`\s+`)

// NormalizeHeader collapses whitespace, lowercases, and treats underscores
// as spaces, so "Standard_Name", "standard name" and "Standard  Name" agree.
func NormalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "_", " ")
	h = headerSpaceRe.ReplaceAllString(h, " ")
	return strings.ToLower(strings.TrimSpace(h))
}

// Column returns the 0-based index of the named column, matching by
// normalized header.
func (t *Table) Column(name string) (int, bool) {
	want := NormalizeHeader(name)
	for i, h := range t.Headers {
		if NormalizeHeader(h) == want {
			return i, true
		}
	}
	return -1, false
}

// Cell returns row[col], tolerating ragged rows.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// Read loads a .csv, .xlsx or .xlsm file into a Table. For workbooks the
// first sheet is used.
func Read(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx", ".xlsm":
		return readWorkbook(path, "")
	default:
		return nil, fmt.Errorf("tabular: unsupported file type %q", filepath.Ext(path))
	}
}

// ReadSheet loads a named sheet from a workbook. An empty sheet name falls
// back to the first sheet; a missing named sheet is an error.
func ReadSheet(path, sheet string) (*Table, error) {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return readCSV(path)
	}
	return readWorkbook(path, sheet)
}

func readCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tabular: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("tabular: parse %s: %w", path, err)
	}
	return fromRecords(records, path)
}

func readWorkbook(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("tabular: open %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("tabular: %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("tabular: read sheet %q of %s: %w", sheet, path, err)
	}
	return fromRecords(records, path)
}

func fromRecords(records [][]string, path string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("tabular: %s is empty", path)
	}
	headers := records[0]
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, len(headers))
		copy(row, rec)
		rows = append(rows, row)
	}
	return &Table{Headers: headers, Rows: rows}, nil
}

// Write saves the sheets to path. Workbooks take any number of sheets; CSV
// output accepts exactly one.
func Write(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("tabular: nothing to write to %s", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("tabular: create %s: %w", dir, err)
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		if len(sheets) != 1 {
			return fmt.Errorf("tabular: csv output supports a single sheet, got %d", len(sheets))
		}
		return writeCSV(path, sheets[0].Table)
	case ".xlsx":
		return writeWorkbook(path, sheets)
	default:
		return fmt.Errorf("tabular: unsupported output type %q", filepath.Ext(path))
	}
}

func writeCSV(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tabular: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Headers); err != nil {
		return fmt.Errorf("tabular: write %s: %w", path, err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("tabular: write %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeWorkbook(path string, sheets []Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			// Rename the default sheet instead of leaving an empty one.
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return fmt.Errorf("tabular: sheet %q: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("tabular: sheet %q: %w", s.Name, err)
		}
		if err := writeSheet(f, s.Name, s.Table); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("tabular: save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, t *Table) error {
	if err := setRow(f, name, 1, t.Headers); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := setRow(f, name, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("tabular: row %d: %w", rowNum, err)
	}
	vals := make([]interface{}, len(cells))
	for i, c := range cells {
		vals[i] = c
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("tabular: sheet %q row %d: %w", sheet, rowNum, err)
	}
	return nil
}
