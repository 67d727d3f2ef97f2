package render

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
)

// ExportCSV serializes the cleaned, filtered table. The selected lat/lon/
// value cells are written in their coerced form (dot decimals, zero-fills
// applied) so re-parsing the export reproduces the in-memory table; other
// columns keep their raw cells.
func ExportCSV(clean *domain.CleanTable, sel domain.Selection) ([]byte, error) {
	latIdx := indexOf(clean.Columns, sel.LatColumn)
	lonIdx := indexOf(clean.Columns, sel.LonColumn)
	valIdx := indexOf(clean.Columns, sel.ValueColumn)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(clean.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(clean.Columns))
	for _, row := range clean.Rows {
		for i := range record {
			if i < len(row.Cells) {
				record[i] = row.Cells[i]
			} else {
				record[i] = ""
			}
		}
		if latIdx >= 0 {
			record[latIdx] = domain.FormatCell(row.Lat)
		}
		if lonIdx >= 0 {
			record[lonIdx] = domain.FormatCell(row.Lon)
		}
		if valIdx >= 0 {
			record[valIdx] = domain.FormatCell(row.Value)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
