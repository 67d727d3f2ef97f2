package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geo-dashboard-service/internal/dashboard"
	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
	"github.com/couchcryptid/geo-dashboard-service/internal/ingest"
	"github.com/couchcryptid/geo-dashboard-service/internal/observability"
	"github.com/couchcryptid/geo-dashboard-service/internal/render"
	"github.com/couchcryptid/geo-dashboard-service/internal/session"
)

const sampleCSV = `lat,lon,depth,lluvia,colonia
19.32,-99.22,10,si,Del Valle
"19,35","-99,18","25,5",No,Roma Norte
,-99.10,40,,Condesa
19.45,-99.20,5,SI,Polanco
`

const sampleGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"NOMBRE": "Benito Juarez"},
      "geometry": {"type": "Polygon", "coordinates": [[[-99.3,19.3],[-99.1,19.3],[-99.1,19.5],[-99.3,19.5],[-99.3,19.3]]]}
    }
  ]
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := dashboard.New(
		ingest.NewLoader(8),
		session.NewStore(16, nil),
		slog.Default(),
		observability.NewMetricsForTesting(),
		nil,
	)
	return NewServer(":0", svc, 1<<20, slog.Default())
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func uploadMultipart(t *testing.T, srv *Server, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// setupSession uploads the sample table and opens a session with a full
// selection, returning the session ID.
func setupSession(t *testing.T, srv *Server) string {
	t.Helper()
	rec := uploadMultipart(t, srv, "/api/datasets", "floods.csv", sampleCSV)
	require.Equal(t, http.StatusCreated, rec.Code)
	dataset := decodeBody[datasetInfo](t, rec)

	rec = doJSON(t, srv, http.MethodPost, "/api/sessions", createSessionRequest{DatasetID: dataset.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	sess := decodeBody[session.Session](t, rec)

	rec = doJSON(t, srv, http.MethodPut, "/api/sessions/"+sess.ID+"/selection", domain.Selection{
		LatColumn:   "lat",
		LonColumn:   "lon",
		ValueColumn: "depth",
		RainColumn:  "lluvia",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	return sess.ID
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadDataset_Multipart(t *testing.T) {
	srv := newTestServer(t)

	rec := uploadMultipart(t, srv, "/api/datasets", "floods.csv", sampleCSV)
	require.Equal(t, http.StatusCreated, rec.Code)

	d := decodeBody[datasetInfo](t, rec)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "floods.csv", d.Name)
	assert.Equal(t, 4, d.NumRows)
	assert.Contains(t, d.Columns, "lluvia")
	assert.Contains(t, d.NumericCol, "depth")

	rec = doJSON(t, srv, http.MethodGet, "/api/datasets/"+d.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadDataset_RawBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/datasets?filename=floods.csv", strings.NewReader(sampleCSV))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/datasets", strings.NewReader(sampleCSV))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing filename")
}

func TestUploadDataset_BadFile(t *testing.T) {
	srv := newTestServer(t)

	rec := uploadMultipart(t, srv, "/api/datasets", "notes.txt", "hello")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadBoundary(t *testing.T) {
	srv := newTestServer(t)

	rec := uploadMultipart(t, srv, "/api/boundaries", "alcaldias.geojson", sampleGeoJSON)
	require.Equal(t, http.StatusCreated, rec.Code)

	b := decodeBody[boundaryInfo](t, rec)
	assert.Equal(t, 1, b.NumFeatures)
	assert.Equal(t, []string{"NOMBRE"}, b.PropertyKeys)

	rec = doJSON(t, srv, http.MethodGet, "/api/boundaries/"+b.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateSession_UnknownDataset(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/sessions", createSessionRequest{DatasetID: "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateSelection_UnknownColumn(t *testing.T) {
	srv := newTestServer(t)
	id := setupSession(t, srv)

	rec := doJSON(t, srv, http.MethodPut, "/api/sessions/"+id+"/selection", domain.Selection{
		LatColumn: "lat", LonColumn: "lon", ValueColumn: "ghost",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRenderMap(t *testing.T) {
	srv := newTestServer(t)
	id := setupSession(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/render/map", render.MapOptions{Title: "Flooding"})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "4", rec.Header().Get("X-Rows-Input"))
	assert.Equal(t, "3", rec.Header().Get("X-Rows-Remaining"))
	assert.Contains(t, rec.Body.String(), "leaflet")
}

func TestRenderChart_Formats(t *testing.T) {
	srv := newTestServer(t)
	id := setupSession(t, srv)

	t.Run("svg", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/render/chart",
			dashboard.ChartRequest{Type: render.ChartHistogram})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg"))
	})

	t.Run("png", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/render/chart?format=png",
			dashboard.ChartRequest{Type: render.ChartBar, XColumn: "colonia"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes()[:4])
	})

	t.Run("pie png falls back to html", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/render/chart?format=png",
			dashboard.ChartRequest{Type: render.ChartPie, XColumn: "colonia"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.NotEmpty(t, rec.Header().Get("X-Render-Warning"))
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/render/chart?format=bmp",
			dashboard.ChartRequest{Type: render.ChartHistogram})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRenderChart_UnknownSession(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/sessions/nope/render/chart",
		dashboard.ChartRequest{Type: render.ChartHistogram})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t)
	id := setupSession(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/export/csv", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "filtered.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 4, "header plus three surviving rows")
	assert.Contains(t, lines[0], "lluvia")
}
