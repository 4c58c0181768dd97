// Package rowstore declares the tabular store the query services read and
// write. A store holds named tables of ordered rows; rows are ordered cells.
// Rows and columns are addressed 1-based, the way spreadsheets address them:
// row N is the N-th element returned by Rows.
package rowstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrTableNotFound signals that the named table does not exist.
var ErrTableNotFound = errors.New("table not found")

// TableNotFoundError names the missing table and matches ErrTableNotFound.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("Table %q not found.", e.Table)
}

// Is lets errors.Is(err, ErrTableNotFound) succeed.
func (e *TableNotFoundError) Is(target error) bool {
	return target == ErrTableNotFound
}

// NotFound builds the error returned for a missing table.
func NotFound(table string) error {
	return &TableNotFoundError{Table: table}
}

// Store is the row store consumed by the query services.
type Store interface {
	// Rows returns every row of table in order.
	Rows(ctx context.Context, table string) ([]Row, error)
	// Append adds row after the last row of table.
	Append(ctx context.Context, table string, row Row) error
	// SetCell overwrites one cell; row and col are 1-based.
	SetCell(ctx context.Context, table string, row, col int, value any) error
	// TableExists reports whether table is present.
	TableExists(ctx context.Context, table string) (bool, error)
}

// CellTimeLayout renders time.Time cells as strings.
const CellTimeLayout = "2006-01-02 15:04:05"

// Row is one ordered sequence of cell values.
type Row []any

// Cell returns the value in column col (1-based). The boolean is false when
// the row is too short or the cell is nil.
func (r Row) Cell(col int) (any, bool) {
	if col < 1 || col > len(r) {
		return nil, false
	}
	v := r[col-1]
	if v == nil {
		return nil, false
	}
	return v, true
}

// String returns column col rendered as a string, or "" when absent.
func (r Row) String(col int) string {
	v, ok := r.Cell(col)
	if !ok {
		return ""
	}
	return CellString(v)
}

// CellString renders one cell value the way it is compared and displayed.
func CellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format(CellTimeLayout)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Clone returns a copy of r that shares no backing array.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// CheckAddress validates a 1-based cell address.
func CheckAddress(row, col int) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("invalid cell address row=%d col=%d", row, col)
	}
	return nil
}
