package domain

import (
	"fmt"
	"math"
	"strconv"
)

// FilterStats describes what one FilterRows pass did. A zero Remaining with
// no error is a valid "no data" outcome, not a failure.
type FilterStats struct {
	Input             int `json:"input_rows"`
	Remaining         int `json:"remaining_rows"`
	DroppedByFilter   int `json:"dropped_by_rain_filter"`
	DroppedNoCoords   int `json:"dropped_missing_coordinates"`
	DroppedNoValue    int `json:"dropped_missing_value"`
	ZeroFilledValues  int `json:"zero_filled_values"`
	UnknownRainTokens int `json:"unknown_rain_tokens"`
}

// CleanRow is one surviving row with its coerced fields alongside the raw
// cells, ready for rendering.
type CleanRow struct {
	Lat    float64
	Lon    float64
	Value  float64
	Rain   bool
	Region string
	Cells  []string
}

// CleanTable is the result of normalizing and filtering a Table against a
// Selection: the surviving rows plus the stats of the pass.
type CleanTable struct {
	Columns []string
	Rows    []CleanRow
	Stats   FilterStats
}

// FilterRows normalizes the selected columns and applies, in order: the rain
// filter mode, the coordinate drop, and the missing-value policy. The input
// table is never modified; every call recomputes from the raw cells.
func FilterRows(t *Table, sel Selection) (*CleanTable, error) {
	latIdx, err := t.ColumnIndex(sel.LatColumn)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lonIdx, err := t.ColumnIndex(sel.LonColumn)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	valIdx, err := t.ColumnIndex(sel.ValueColumn)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}

	rainIdx := -1
	if sel.RainColumn != "" {
		if rainIdx, err = t.ColumnIndex(sel.RainColumn); err != nil {
			return nil, fmt.Errorf("rain flag: %w", err)
		}
	}
	regionIdx := -1
	if sel.Region != "" {
		if regionIdx, err = t.ColumnIndex(sel.Region); err != nil {
			return nil, fmt.Errorf("region: %w", err)
		}
	}

	mode := sel.FilterMode
	if mode == "" {
		mode = FilterAll
	}
	policy := sel.Missing
	if policy == "" {
		policy = DropMissingValues
	}

	out := &CleanTable{
		Columns: t.Columns,
		Stats:   FilterStats{Input: len(t.Rows)},
	}

	for _, row := range t.Rows {
		rain := false
		if rainIdx >= 0 {
			cell := cellAt(row, rainIdx)
			rain = NormalizeRainFlag(cell)
			if !KnownRainToken(cell) {
				out.Stats.UnknownRainTokens++
			}
			if (mode == FilterRainOnly && !rain) || (mode == FilterNonRain && rain) {
				out.Stats.DroppedByFilter++
				continue
			}
		}

		lat := ParseNumber(cellAt(row, latIdx))
		lon := ParseNumber(cellAt(row, lonIdx))
		if math.IsNaN(lat) || math.IsNaN(lon) {
			out.Stats.DroppedNoCoords++
			continue
		}

		val := ParseNumber(cellAt(row, valIdx))
		if math.IsNaN(val) {
			if policy == DropMissingValues {
				out.Stats.DroppedNoValue++
				continue
			}
			val = 0
			out.Stats.ZeroFilledValues++
		}

		region := ""
		if regionIdx >= 0 {
			region = cellAt(row, regionIdx)
		}

		out.Rows = append(out.Rows, CleanRow{
			Lat:    lat,
			Lon:    lon,
			Value:  val,
			Rain:   rain,
			Region: region,
			Cells:  row,
		})
	}

	out.Stats.Remaining = len(out.Rows)
	return out, nil
}

// StringColumn returns the raw cells of the named column across surviving
// rows.
func (c *CleanTable) StringColumn(name string) ([]string, error) {
	idx := -1
	for i, col := range c.Columns {
		if col == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	out := make([]string, len(c.Rows))
	for i, r := range c.Rows {
		out[i] = cellAt(r.Cells, idx)
	}
	return out, nil
}

// NumericColumn returns the named column of the surviving rows coerced to
// float64, NaN marking unparseable cells.
func (c *CleanTable) NumericColumn(name string) ([]float64, error) {
	cells, err := c.StringColumn(name)
	if err != nil {
		return nil, err
	}
	return CleanNumericColumn(cells), nil
}

// Values returns the coerced value column of the clean table.
func (c *CleanTable) Values() []float64 {
	out := make([]float64, len(c.Rows))
	for i, r := range c.Rows {
		out[i] = r.Value
	}
	return out
}

// Center returns the arithmetic mean of the surviving coordinates, or the
// default center when no rows survive.
func (c *CleanTable) Center() (lat, lon float64) {
	if len(c.Rows) == 0 {
		return DefaultCenterLat, DefaultCenterLon
	}
	for _, r := range c.Rows {
		lat += r.Lat
		lon += r.Lon
	}
	n := float64(len(c.Rows))
	return lat / n, lon / n
}

// Default map center used when a filtered table has no valid coordinates:
// Mexico City, the origin of the incident reports this service renders.
const (
	DefaultCenterLat = 19.4326
	DefaultCenterLon = -99.1332
)

// cellAt tolerates ragged rows: short rows read as empty cells.
func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// FormatCell renders a float for CSV export: integral values print without a
// decimal point so exported cells match typical source formatting.
func FormatCell(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
