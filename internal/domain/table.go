package domain

import (
	"fmt"
	"math"
)

// Table is an in-memory tabular dataset: ordered column names and rows of
// string cells. Cells keep their uploaded text form; numeric views are
// derived on demand via CleanNumericColumn.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// ColumnIndex returns the position of the named column, or an error when the
// table has no such column.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
}

// Column returns the raw string cells of the named column.
func (t *Table) Column(name string) ([]string, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, nil
}

// NumericColumn returns the named column coerced to float64 with NaN marking
// unparseable cells.
func (t *Table) NumericColumn(name string) ([]float64, error) {
	cells, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	return CleanNumericColumn(cells), nil
}

// NumericColumns reports which columns coerce to numeric for at least one
// row. Used to offer value-column candidates, mirroring how an all-text
// column can still be selected and coerced on demand.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, name := range t.Columns {
		vals, err := t.NumericColumn(name)
		if err != nil {
			continue
		}
		for _, v := range vals {
			if !math.IsNaN(v) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// FilterMode selects which rows survive the rain filter.
type FilterMode string

const (
	// FilterAll keeps every row (identity).
	FilterAll FilterMode = "all"
	// FilterRainOnly keeps rows whose rain flag normalizes to true.
	FilterRainOnly FilterMode = "rain-only"
	// FilterNonRain keeps rows whose rain flag normalizes to false.
	FilterNonRain FilterMode = "non-rain-only"
)

// ParseFilterMode validates a filter mode string. An empty string defaults
// to FilterAll.
func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterRainOnly:
		return FilterRainOnly, nil
	case FilterNonRain:
		return FilterNonRain, nil
	default:
		return "", fmt.Errorf("unknown filter mode %q", s)
	}
}

// MissingValuePolicy decides what happens to rows whose value column is NaN
// after coercion.
type MissingValuePolicy string

const (
	// DropMissingValues removes rows with a NaN value cell.
	DropMissingValues MissingValuePolicy = "drop"
	// ZeroMissingValues replaces NaN value cells with 0.
	ZeroMissingValues MissingValuePolicy = "zero"
)

// ParseMissingValuePolicy validates a policy string. An empty string
// defaults to DropMissingValues.
func ParseMissingValuePolicy(s string) (MissingValuePolicy, error) {
	switch MissingValuePolicy(s) {
	case "", DropMissingValues:
		return DropMissingValues, nil
	case ZeroMissingValues:
		return ZeroMissingValues, nil
	default:
		return "", fmt.Errorf("unknown missing-value policy %q", s)
	}
}

// Selection names the columns and cleaning choices for one render. Lat, Lon
// and Value are required for maps; Rain and Region are optional ("" means
// unused).
type Selection struct {
	LatColumn   string             `json:"lat_column"`
	LonColumn   string             `json:"lon_column"`
	ValueColumn string             `json:"value_column"`
	RainColumn  string             `json:"rain_column,omitempty"`
	Region      string             `json:"region_column,omitempty"`
	FilterMode  FilterMode         `json:"filter_mode"`
	Missing     MissingValuePolicy `json:"missing_value_policy"`
}
