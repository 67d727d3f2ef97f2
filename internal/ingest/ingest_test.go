package ingest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
)

const sampleCSV = "lat,lon,depth,lluvia\n19.32,-99.22,10,si\n\"19,35\",\"-99,18\",\"25,5\",no\n"

func TestParseCSV(t *testing.T) {
	table, err := ParseCSV([]byte(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"lat", "lon", "depth", "lluvia"}, table.Columns)
	require.Equal(t, 2, table.NumRows())
	assert.Equal(t, "19,35", table.Rows[1][0], "quoted comma-decimal cells survive parsing")
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ParseCSV(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadUpload)
}

func TestParseCSV_RaggedRows(t *testing.T) {
	table, err := ParseCSV([]byte("a,b,c\n1,2\n3,4,5,6\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, table.NumRows())

	col, err := table.Column("c")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "5"}, col)
}

func buildXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetList()[0]
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	data := buildXLSX(t, [][]any{
		{"lat", "lon", "depth"},
		{19.32, -99.22, 10},
		{"19,35", "-99,18", "25,5"},
	})

	table, err := ParseXLSX(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"lat", "lon", "depth"}, table.Columns)
	require.Equal(t, 2, table.NumRows())

	lat, err := table.NumericColumn("lat")
	require.NoError(t, err)
	assert.InDelta(t, 19.32, lat[0], 1e-9)
	assert.InDelta(t, 19.35, lat[1], 1e-9)
}

func TestParseXLSX_Corrupt(t *testing.T) {
	_, err := ParseXLSX([]byte("not a zip archive"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadUpload)
}

func TestParseTable_Dispatch(t *testing.T) {
	t.Run("csv extension", func(t *testing.T) {
		table, err := ParseTable("reports.CSV", []byte(sampleCSV))
		require.NoError(t, err)
		assert.Equal(t, 2, table.NumRows())
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := ParseTable("reports.parquet", []byte("x"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrBadUpload)
	})
}

func TestLoaderMemoizesByContent(t *testing.T) {
	l := NewLoader(4)

	_, hit, err := l.LoadTable("a.csv", []byte(sampleCSV))
	require.NoError(t, err)
	assert.False(t, hit)

	// Same bytes under a different name still hit: identity is content.
	t2, hit, err := l.LoadTable("b.csv", []byte(sampleCSV))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, t2.NumRows())

	// Different bytes miss.
	_, hit, err = l.LoadTable("c.csv", []byte("x\n1\n"))
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestLoaderEviction(t *testing.T) {
	l := NewLoader(2)

	for i := 0; i < 3; i++ {
		csv := fmt.Sprintf("col\n%d\n", i)
		_, hit, err := l.LoadTable("f.csv", []byte(csv))
		require.NoError(t, err)
		assert.False(t, hit)
	}

	// Oldest entry was evicted.
	_, hit, err := l.LoadTable("f.csv", []byte("col\n0\n"))
	require.NoError(t, err)
	assert.False(t, hit)

	// Newest still cached.
	_, hit, err = l.LoadTable("f.csv", []byte("col\n2\n"))
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestLoaderBoundary(t *testing.T) {
	geo := []byte(`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"name":"A"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`)

	l := NewLoader(3)
	b, hit, err := l.LoadBoundary(geo)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, b.NumFeatures())

	_, hit, err = l.LoadBoundary(geo)
	require.NoError(t, err)
	assert.True(t, hit)

	_, _, err = l.LoadBoundary([]byte("{bad"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadUpload)
}
