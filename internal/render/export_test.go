package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
	"github.com/couchcryptid/geo-dashboard-service/internal/ingest"
)

func TestExportCSV_RoundTrip(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"lat", "lon", "depth", "lluvia"},
		Rows: [][]string{
			{"19,32", "-99,22", "10", "si"},
			{"19.40", "-99.15", "", "no"},
		},
	}
	sel := domain.Selection{
		LatColumn:   "lat",
		LonColumn:   "lon",
		ValueColumn: "depth",
		RainColumn:  "lluvia",
		Missing:     domain.ZeroMissingValues,
	}
	clean, err := domain.FilterRows(table, sel)
	require.NoError(t, err)
	require.Equal(t, 2, clean.Stats.Remaining)

	data, err := ExportCSV(clean, sel)
	require.NoError(t, err)

	// Re-parsing the export reproduces the cleaned table.
	again, err := ingest.ParseCSV(data)
	require.NoError(t, err)
	require.Equal(t, clean.Stats.Remaining, again.NumRows())

	reclean, err := domain.FilterRows(again, sel)
	require.NoError(t, err)
	require.Equal(t, len(clean.Rows), len(reclean.Rows))
	for i := range clean.Rows {
		assert.InDelta(t, clean.Rows[i].Lat, reclean.Rows[i].Lat, 1e-9)
		assert.InDelta(t, clean.Rows[i].Lon, reclean.Rows[i].Lon, 1e-9)
		assert.InDelta(t, clean.Rows[i].Value, reclean.Rows[i].Value, 1e-9)
	}

	// Comma decimals were normalized to dot form in the export.
	assert.Contains(t, string(data), "19.32")
	assert.NotContains(t, string(data), `"19,32"`)
}

func TestExportCSV_EmptyResult(t *testing.T) {
	clean := &domain.CleanTable{Columns: []string{"a", "b"}}
	data, err := ExportCSV(clean, domain.Selection{})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}
