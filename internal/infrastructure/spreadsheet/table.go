// Package spreadsheet reads tabular source files whose first row is a header.
// Cells are addressed by header name so column order does not matter.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"credit-engine/internal/pkg/apperrors"

	"github.com/xuri/excelize/v2"
)

type Table struct {
	Source string
	header map[string]int
	rows   [][]string
}

// Open loads the first sheet of an .xlsx workbook or a .csv file.
func Open(path string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("cannot stat %s: %w", path, err)
	}

	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readWorkbook(path)
	case ".csv":
		records, err = readCSV(path)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", apperrors.ErrInvalidArgument, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return newTable(path, records)
}

func newTable(source string, records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", apperrors.ErrInvalidArgument, source)
	}
	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		key := normalize(name)
		if key == "" {
			continue
		}
		if _, dup := header[key]; !dup {
			header[key] = i
		}
	}
	return &Table{Source: source, header: header, rows: records[1:]}, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook %s has no sheets", apperrors.ErrInvalidArgument, path)
	}
	// Raw values keep numbers unformatted and dates as serials.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], path, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv %s: %w", path, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Require reports every listed column that is missing from the header.
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := t.header[normalize(c)]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s is missing columns %s", apperrors.ErrInvalidArgument, t.Source, strings.Join(missing, ", "))
	}
	return nil
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Rows yields data rows, skipping rows whose cells are all blank.
func (t *Table) Rows() []Row {
	out := make([]Row, 0, len(t.rows))
	for i, cells := range t.rows {
		if blank(cells) {
			continue
		}
		// line numbers are 1-based and count the header
		out = append(out, Row{Line: i + 2, cells: cells, header: t.header})
	}
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
