package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
)

func cleanFixture() *domain.CleanTable {
	return &domain.CleanTable{
		Columns: []string{"lat", "lon", "depth"},
		Rows: []domain.CleanRow{
			{Lat: 19.32, Lon: -99.22, Value: 10, Region: "Del Valle", Cells: []string{"19.32", "-99.22", "10"}},
			{Lat: 19.40, Lon: -99.15, Value: 40, Rain: true, Cells: []string{"19.40", "-99.15", "40"}},
		},
	}
}

func TestRenderMap(t *testing.T) {
	page, err := RenderMap(cleanFixture(), nil, "", true, MapOptions{Title: "Incidents"})
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "leaflet")
	assert.Contains(t, html, "Incidents")
	assert.Contains(t, html, "2 points")
	// Center is the mean of the two rows, emitted verbatim so the setView
	// call stays byte-for-byte predictable despite the JS-context escaper.
	assert.Contains(t, html, fmt.Sprintf("setView([%v, %v], 12)", 19.36, (-99.22-99.15)/2))
	assert.Contains(t, html, `"region":"Del Valle"`)
}

func TestRenderMap_EmptyTableUsesDefaultCenter(t *testing.T) {
	page, err := RenderMap(&domain.CleanTable{}, nil, "", false, MapOptions{})
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, fmt.Sprintf("setView([%v, %v], 12)", domain.DefaultCenterLat, domain.DefaultCenterLon))
	assert.Contains(t, html, "0 points")
}

func TestRenderMap_BoundaryOverlay(t *testing.T) {
	boundary, err := domain.ParseBoundary([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"colonia":"Roma"},"geometry":{"type":"Polygon","coordinates":[[[-99.3,19.3],[-99.2,19.3],[-99.2,19.4],[-99.3,19.3]]]}}]}`))
	require.NoError(t, err)

	t.Run("shown when requested", func(t *testing.T) {
		page, err := RenderMap(cleanFixture(), boundary, "colonia", false, MapOptions{ShowBoundary: true})
		require.NoError(t, err)
		assert.Contains(t, string(page), "L.geoJSON")
		assert.Contains(t, string(page), "Roma")
	})

	t.Run("hidden when not requested", func(t *testing.T) {
		page, err := RenderMap(cleanFixture(), boundary, "colonia", false, MapOptions{})
		require.NoError(t, err)
		assert.NotContains(t, string(page), "L.geoJSON")
	})
}

func TestRenderMap_RadiusScaling(t *testing.T) {
	page, err := RenderMap(cleanFixture(), nil, "", false, MapOptions{MinRadius: 5, MaxRadius: 30})
	require.NoError(t, err)

	// Min-valued row gets minR, max-valued row gets maxR.
	html := string(page)
	assert.Contains(t, html, `"radius":5`)
	assert.Contains(t, html, `"radius":30`)
}

func TestRenderMap_ConstantValueUsesDefaultRadius(t *testing.T) {
	clean := &domain.CleanTable{
		Columns: []string{"lat", "lon", "v"},
		Rows: []domain.CleanRow{
			{Lat: 1, Lon: 2, Value: 7},
			{Lat: 3, Lon: 4, Value: 7},
		},
	}
	page, err := RenderMap(clean, nil, "", false, MapOptions{MinRadius: 5, MaxRadius: 30, DefaultRadius: 12})
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(string(page), `"radius":12`))
}
