// Package http exposes the dashboard service over a JSON/HTML API: upload
// endpoints for tables and boundary layers, session management, and render
// endpoints returning Leaflet documents, SVG/PNG charts, and CSV exports.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/geo-dashboard-service/internal/dashboard"
	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
	"github.com/couchcryptid/geo-dashboard-service/internal/render"
	"github.com/couchcryptid/geo-dashboard-service/internal/session"
)

// Server exposes the dashboard API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer     *http.Server
	svc            *dashboard.Service
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewServer builds the router over the dashboard service. maxUploadBytes
// bounds request bodies on the upload endpoints.
func NewServer(addr string, svc *dashboard.Service, maxUploadBytes int64, logger *slog.Logger) *Server {
	s := &Server{
		svc:            svc,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/datasets", s.handleUploadDataset)
		r.Get("/datasets/{id}", s.handleGetDataset)
		r.Post("/boundaries", s.handleUploadBoundary)
		r.Get("/boundaries/{id}", s.handleGetBoundary)

		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Put("/sessions/{id}/selection", s.handleUpdateSelection)

		r.Post("/sessions/{id}/render/map", s.handleRenderMap)
		r.Post("/sessions/{id}/render/chart", s.handleRenderChart)
		r.Get("/sessions/{id}/export/csv", s.handleExportCSV)
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.svc.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// readUpload pulls the uploaded file out of a multipart form ("file" field)
// or, for clients that stream the body directly, out of the request body with
// the name taken from the "filename" query parameter.
func (s *Server) readUpload(r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, s.maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("%w: multipart field %q: %v", domain.ErrBadUpload, "file", err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, fmt.Errorf("%w: reading upload: %v", domain.ErrBadUpload, err)
		}
		return header.Filename, data, nil
	}

	name := r.URL.Query().Get("filename")
	if name == "" {
		return "", nil, fmt.Errorf("%w: missing filename query parameter", domain.ErrBadUpload)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, fmt.Errorf("%w: reading upload: %v", domain.ErrBadUpload, err)
	}
	return name, data, nil
}

func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	d, err := s.svc.UploadDataset(name, data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, datasetResponse(d))
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dataset(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, datasetResponse(d))
}

func (s *Server) handleUploadBoundary(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	b, err := s.svc.UploadBoundary(name, data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, boundaryResponse(b))
}

func (s *Server) handleGetBoundary(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Boundary(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boundaryResponse(b))
}

type createSessionRequest struct {
	DatasetID  string `json:"dataset_id"`
	BoundaryID string `json:"boundary_id,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := s.svc.CreateSession(req.DatasetID, req.BoundaryID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Session(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleUpdateSelection(w http.ResponseWriter, r *http.Request) {
	var sel domain.Selection
	if err := decodeJSON(r, &sel); err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := s.svc.UpdateSelection(chi.URLParam(r, "id"), sel)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleRenderMap(w http.ResponseWriter, r *http.Request) {
	var opts render.MapOptions
	if err := decodeJSON(r, &opts); err != nil {
		s.writeError(w, err)
		return
	}
	page, stats, err := s.svc.RenderMap(r.Context(), chi.URLParam(r, "id"), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeStatsHeaders(w, stats)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page) //nolint:errcheck // client gone
}

func (s *Server) handleRenderChart(w http.ResponseWriter, r *http.Request) {
	var req dashboard.ChartRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if format := r.URL.Query().Get("format"); format != "" {
		req.Format = format
	}
	res, stats, err := s.svc.RenderChart(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeStatsHeaders(w, stats)

	if res.Degraded {
		w.Header().Set("X-Render-Warning", "png unavailable for this chart type, serving html")
	}
	w.Header().Set("Content-Type", chartContentType(res.Format))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data) //nolint:errcheck // client gone
}

func chartContentType(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "html":
		return "text/html; charset=utf-8"
	default:
		return "image/svg+xml"
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	data, stats, err := s.svc.ExportCSV(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeStatsHeaders(w, stats)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="filtered.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // client gone
}

// writeError maps domain errors onto status codes: malformed uploads and
// requests are 400, unknown IDs 404, selections referencing columns the
// dataset lacks 422.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrMissingColumn):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrBadUpload):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeStatsHeaders(w http.ResponseWriter, stats domain.FilterStats) {
	w.Header().Set("X-Rows-Input", strconv.Itoa(stats.Input))
	w.Header().Set("X-Rows-Remaining", strconv.Itoa(stats.Remaining))
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding request body: %v", domain.ErrBadUpload, err)
	}
	return nil
}

type datasetInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Columns    []string `json:"columns"`
	NumRows    int      `json:"num_rows"`
	NumericCol []string `json:"numeric_columns"`
	UploadedAt string   `json:"uploaded_at"`
}

func datasetResponse(d *session.Dataset) datasetInfo {
	return datasetInfo{
		ID:         d.ID,
		Name:       d.Name,
		Columns:    d.Table.Columns,
		NumRows:    d.Table.NumRows(),
		NumericCol: d.Table.NumericColumns(),
		UploadedAt: d.UploadedAt.UTC().Format(time.RFC3339),
	}
}

type boundaryInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	NumFeatures  int      `json:"num_features"`
	PropertyKeys []string `json:"property_keys"`
	UploadedAt   string   `json:"uploaded_at"`
}

func boundaryResponse(b *session.Boundary) boundaryInfo {
	return boundaryInfo{
		ID:           b.ID,
		Name:         b.Name,
		NumFeatures:  b.Layer.NumFeatures(),
		PropertyKeys: b.Layer.PropertyKeys(),
		UploadedAt:   b.UploadedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
