package spreadsheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"credit-engine/internal/domain/credit"
	"credit-engine/internal/pkg/apperrors"

	"github.com/xuri/excelize/v2"
)

// Whole numbers past 2^53 lose precision as float64.
const maxExactInt = 1 << 53

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
}

type Row struct {
	Line   int
	cells  []string
	header map[string]int
}

func (r Row) cell(column string) (string, error) {
	idx, ok := r.header[normalize(column)]
	if !ok {
		return "", fmt.Errorf("%w: unknown column %q", apperrors.ErrInvalidArgument, column)
	}
	if idx >= len(r.cells) {
		return "", nil
	}
	return strings.TrimSpace(r.cells[idx]), nil
}

func (r Row) fieldError(column, msg string) error {
	return fmt.Errorf("line %d: %w", r.Line, apperrors.NewValidationError(column, msg))
}

// String returns a required text cell. Numeric cells written in exponent form are expanded.
func (r Row) String(column string) (string, error) {
	v, err := r.cell(column)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", r.fieldError(column, "is empty")
	}
	if strings.ContainsAny(v, "eE") {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
	}
	return v, nil
}

func (r Row) Float(column string) (float64, error) {
	v, err := r.cell(column)
	if err != nil {
		return 0, err
	}
	if v == "" {
		return 0, r.fieldError(column, "is empty")
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, r.fieldError(column, fmt.Sprintf("%q is not a number", v))
	}
	return f, nil
}

// Int accepts integral values written as decimals, e.g. "12.0".
func (r Row) Int(column string) (int64, error) {
	f, err := r.Float(column)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, r.fieldError(column, fmt.Sprintf("%v is not a whole number", f))
	}
	if math.Abs(f) > maxExactInt {
		return 0, r.fieldError(column, fmt.Sprintf("%v is out of range", f))
	}
	return int64(f), nil
}

// IntBetween is Int limited to the closed range [lo, hi].
func (r Row) IntBetween(column string, lo, hi int64) (int64, error) {
	n, err := r.Int(column)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, r.fieldError(column, fmt.Sprintf("%d is outside %d..%d", n, lo, hi))
	}
	return n, nil
}

// Date parses a calendar date or an Excel serial and returns it at UTC midnight.
func (r Row) Date(column string) (time.Time, error) {
	v, err := r.cell(column)
	if err != nil {
		return time.Time{}, err
	}
	if v == "" {
		return time.Time{}, r.fieldError(column, "is empty")
	}
	t, ok := ParseDate(v)
	if !ok {
		return time.Time{}, r.fieldError(column, fmt.Sprintf("%q is not a date", v))
	}
	return t, nil
}

func ParseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return credit.Day(t), true
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return credit.Day(t), true
		}
	}
	return time.Time{}, false
}
