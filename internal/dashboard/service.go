// Package dashboard orchestrates one dashboard interaction end to end:
// resolve the session, normalize and filter the referenced table, render the
// requested artifact, and record observability. Every request recomputes
// from the raw upload; failures are contained per request.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
	"github.com/couchcryptid/geo-dashboard-service/internal/ingest"
	"github.com/couchcryptid/geo-dashboard-service/internal/observability"
	"github.com/couchcryptid/geo-dashboard-service/internal/render"
	"github.com/couchcryptid/geo-dashboard-service/internal/session"
)

// AuditPublisher publishes render-audit events. A nil publisher disables
// auditing.
type AuditPublisher interface {
	Publish(ctx context.Context, audit domain.RenderAudit) error
}

// Service wires ingestion, session state, and rendering together.
type Service struct {
	loader  *ingest.Loader
	store   *session.Store
	logger  *slog.Logger
	metrics *observability.Metrics
	audit   AuditPublisher
}

// New creates a Service. Pass a nil audit publisher to disable auditing.
func New(loader *ingest.Loader, store *session.Store, logger *slog.Logger, metrics *observability.Metrics, audit AuditPublisher) *Service {
	return &Service{
		loader:  loader,
		store:   store,
		logger:  logger,
		metrics: metrics,
		audit:   audit,
	}
}

// CheckReadiness returns nil once the service's stores are wired.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.loader == nil || s.store == nil {
		return errors.New("service not initialized")
	}
	return nil
}

// UploadDataset parses and registers a tabular upload.
func (s *Service) UploadDataset(name string, data []byte) (*session.Dataset, error) {
	kind := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	table, cached, err := s.loader.LoadTable(name, data)
	if err != nil {
		s.metrics.Uploads.WithLabelValues(kind, "error").Inc()
		return nil, err
	}
	s.recordCache(cached)
	s.metrics.Uploads.WithLabelValues(kind, "success").Inc()

	d := s.store.AddDataset(name, ingest.ContentHash(data), table)
	s.logger.Info("dataset uploaded",
		"dataset_id", d.ID, "name", name, "rows", table.NumRows(), "columns", len(table.Columns), "cached", cached)
	return d, nil
}

// UploadBoundary parses and registers a GeoJSON upload.
func (s *Service) UploadBoundary(name string, data []byte) (*session.Boundary, error) {
	layer, cached, err := s.loader.LoadBoundary(data)
	if err != nil {
		s.metrics.Uploads.WithLabelValues("geojson", "error").Inc()
		return nil, err
	}
	s.recordCache(cached)
	s.metrics.Uploads.WithLabelValues("geojson", "success").Inc()

	b := s.store.AddBoundary(name, ingest.ContentHash(data), layer)
	s.logger.Info("boundary uploaded",
		"boundary_id", b.ID, "name", name, "features", layer.NumFeatures(), "cached", cached)
	return b, nil
}

func (s *Service) recordCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	s.metrics.ParseCache.WithLabelValues(result).Inc()
}

// Dataset exposes a registered dataset.
func (s *Service) Dataset(id string) (*session.Dataset, error) { return s.store.Dataset(id) }

// Boundary exposes a registered boundary.
func (s *Service) Boundary(id string) (*session.Boundary, error) { return s.store.Boundary(id) }

// CreateSession opens a session over registered uploads.
func (s *Service) CreateSession(datasetID, boundaryID string) (session.Session, error) {
	return s.store.CreateSession(datasetID, boundaryID)
}

// Session returns session state.
func (s *Service) Session(id string) (session.Session, error) { return s.store.Session(id) }

// UpdateSelection validates the selection against the session's dataset and
// stores it. Unknown columns fail with domain.ErrMissingColumn.
func (s *Service) UpdateSelection(id string, sel domain.Selection) (session.Session, error) {
	sess, err := s.store.Session(id)
	if err != nil {
		return session.Session{}, err
	}
	d, err := s.store.Dataset(sess.DatasetID)
	if err != nil {
		return session.Session{}, err
	}

	for _, col := range []string{sel.LatColumn, sel.LonColumn, sel.ValueColumn, sel.RainColumn, sel.Region} {
		if col == "" {
			continue
		}
		if _, err := d.Table.ColumnIndex(col); err != nil {
			return session.Session{}, err
		}
	}
	if _, err := domain.ParseFilterMode(string(sel.FilterMode)); err != nil {
		return session.Session{}, err
	}
	if _, err := domain.ParseMissingValuePolicy(string(sel.Missing)); err != nil {
		return session.Session{}, err
	}

	return s.store.UpdateSelection(id, sel)
}

// RenderMap filters the session's table and renders the Leaflet document.
// A zero-row result is rendered around the default center and reported via
// the returned stats, not as an error.
func (s *Service) RenderMap(ctx context.Context, sessionID string, opts render.MapOptions) ([]byte, domain.FilterStats, error) {
	start := time.Now()

	sess, d, clean, err := s.filterSession(sessionID)
	if err != nil {
		s.metrics.Renders.WithLabelValues("map", "error").Inc()
		return nil, domain.FilterStats{}, err
	}

	var boundary *domain.Boundary
	regionProp := ""
	if sess.BoundaryID != "" {
		b, err := s.store.Boundary(sess.BoundaryID)
		if err != nil {
			s.metrics.Renders.WithLabelValues("map", "error").Inc()
			return nil, domain.FilterStats{}, err
		}
		boundary = b.Layer
		regionProp = sess.Selection.Region
		if regionProp == "" && len(b.Layer.PropertyKeys()) > 0 {
			regionProp = b.Layer.PropertyKeys()[0]
		}
	}

	page, err := render.RenderMap(clean, boundary, regionProp, sess.Selection.RainColumn != "", opts)
	if err != nil {
		s.metrics.Renders.WithLabelValues("map", "error").Inc()
		return nil, clean.Stats, err
	}

	s.finishRender(ctx, sess, d, "map", "html", clean.Stats, start)
	return page, clean.Stats, nil
}

// ChartRequest selects the chart variant, the columns feeding it, and the
// output format (svg, html, or png; empty means svg).
type ChartRequest struct {
	Type    render.ChartType    `json:"type"`
	XColumn string              `json:"x_column,omitempty"`
	YColumn string              `json:"y_column,omitempty"`
	Format  string              `json:"format,omitempty"`
	Options render.ChartOptions `json:"options"`
}

// ChartResult is an encoded chart artifact. Format is the format actually
// served; Degraded marks a PNG request answered with HTML because the chart
// variant has no raster path.
type ChartResult struct {
	Data     []byte
	Format   string
	Degraded bool
}

// RenderChart filters the session's table, builds the requested chart, and
// encodes it in the requested format. Audits and metrics record the format
// that was actually served, including the pie PNG-to-HTML degrade.
func (s *Service) RenderChart(ctx context.Context, sessionID string, req ChartRequest) (*ChartResult, domain.FilterStats, error) {
	start := time.Now()
	chartLabel := string(req.Type)

	sess, d, clean, err := s.filterSession(sessionID)
	if err != nil {
		s.metrics.Renders.WithLabelValues(chartLabel, "error").Inc()
		return nil, domain.FilterStats{}, err
	}

	chart, err := s.buildChart(clean, req)
	if err != nil {
		s.metrics.Renders.WithLabelValues(chartLabel, "error").Inc()
		return nil, clean.Stats, err
	}

	res, err := encodeChart(chart, req)
	if err != nil {
		s.metrics.Renders.WithLabelValues(chartLabel, "error").Inc()
		return nil, clean.Stats, err
	}

	outcome := "success"
	if res.Degraded {
		outcome = "degraded"
		s.logger.Warn("png unavailable for chart, serving html", "chart", chartLabel, "session_id", sess.ID)
	}
	s.metrics.Exports.WithLabelValues(res.Format, outcome).Inc()

	s.finishRender(ctx, sess, d, chartLabel, res.Format, clean.Stats, start)
	return res, clean.Stats, nil
}

// encodeChart serializes a built chart into the requested format. A PNG
// request for a chart without a raster path degrades to HTML.
func encodeChart(chart *render.Chart, req ChartRequest) (*ChartResult, error) {
	format := req.Format
	if format == "" {
		format = "svg"
	}
	switch format {
	case "svg":
		return &ChartResult{Data: chart.SVG, Format: "svg"}, nil

	case "html":
		page, err := chart.HTML(req.Options.Title)
		if err != nil {
			return nil, err
		}
		return &ChartResult{Data: page, Format: "html"}, nil

	case "png":
		data, err := chart.PNG()
		if errors.Is(err, domain.ErrPNGUnavailable) {
			page, herr := chart.HTML(req.Options.Title)
			if herr != nil {
				return nil, herr
			}
			return &ChartResult{Data: page, Format: "html", Degraded: true}, nil
		}
		if err != nil {
			return nil, err
		}
		return &ChartResult{Data: data, Format: "png"}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported chart format %q", domain.ErrBadUpload, format)
	}
}

func (s *Service) buildChart(clean *domain.CleanTable, req ChartRequest) (*render.Chart, error) {
	switch req.Type {
	case render.ChartBar:
		labels, err := clean.StringColumn(req.XColumn)
		if err != nil {
			return nil, err
		}
		values, err := s.chartValues(clean, req.YColumn)
		if err != nil {
			return nil, err
		}
		return render.BarChart(labels, values, req.Options), nil

	case render.ChartLine, render.ChartScatter:
		xs, err := clean.NumericColumn(req.XColumn)
		if err != nil {
			return nil, err
		}
		ys, err := s.chartValues(clean, req.YColumn)
		if err != nil {
			return nil, err
		}
		if req.Type == render.ChartLine {
			return render.LineChart(xs, ys, req.Options), nil
		}
		return render.ScatterPlot(xs, ys, req.Options), nil

	case render.ChartHistogram:
		values, err := s.chartValues(clean, req.YColumn)
		if err != nil {
			return nil, err
		}
		return render.HistogramChart(values, req.Options), nil

	case render.ChartCorrelation:
		names, columns := numericColumns(clean)
		return render.CorrelationHeatmap(names, domain.CorrelationMatrix(columns), req.Options), nil

	case render.ChartPie:
		labels, err := clean.StringColumn(req.XColumn)
		if err != nil {
			return nil, err
		}
		values, err := s.chartValues(clean, req.YColumn)
		if err != nil {
			return nil, err
		}
		aggLabels, aggValues := aggregateByLabel(labels, values)
		return render.PieChart(aggLabels, aggValues, req.Options), nil

	default:
		return nil, fmt.Errorf("%w: unknown chart type %q", domain.ErrBadUpload, req.Type)
	}
}

// chartValues resolves the Y column: empty means "use the session value
// column already coerced by the filter pass".
func (s *Service) chartValues(clean *domain.CleanTable, column string) ([]float64, error) {
	if column == "" {
		return clean.Values(), nil
	}
	return clean.NumericColumn(column)
}

// ExportCSV serializes the session's cleaned, filtered table.
func (s *Service) ExportCSV(ctx context.Context, sessionID string) ([]byte, domain.FilterStats, error) {
	start := time.Now()

	sess, d, clean, err := s.filterSession(sessionID)
	if err != nil {
		s.metrics.Exports.WithLabelValues("csv", "error").Inc()
		return nil, domain.FilterStats{}, err
	}

	data, err := render.ExportCSV(clean, sess.Selection)
	if err != nil {
		s.metrics.Exports.WithLabelValues("csv", "error").Inc()
		return nil, clean.Stats, err
	}

	s.metrics.Exports.WithLabelValues("csv", "success").Inc()
	s.publishAudit(ctx, sess, d, "export", "csv", clean.Stats, start)
	return data, clean.Stats, nil
}

// filterSession resolves a session and runs the normalize/filter pass over
// its dataset.
func (s *Service) filterSession(sessionID string) (session.Session, *session.Dataset, *domain.CleanTable, error) {
	sess, err := s.store.Session(sessionID)
	if err != nil {
		return session.Session{}, nil, nil, err
	}
	s.store.Touch(sessionID)

	d, err := s.store.Dataset(sess.DatasetID)
	if err != nil {
		return session.Session{}, nil, nil, err
	}

	clean, err := domain.FilterRows(d.Table, sess.Selection)
	if err != nil {
		return session.Session{}, nil, nil, err
	}

	s.metrics.RowsDropped.WithLabelValues("rain_filter").Add(float64(clean.Stats.DroppedByFilter))
	s.metrics.RowsDropped.WithLabelValues("coordinates").Add(float64(clean.Stats.DroppedNoCoords))
	s.metrics.RowsDropped.WithLabelValues("value").Add(float64(clean.Stats.DroppedNoValue))

	return sess, d, clean, nil
}

func (s *Service) finishRender(ctx context.Context, sess session.Session, d *session.Dataset, chart, format string, stats domain.FilterStats, start time.Time) {
	outcome := "success"
	if stats.Remaining == 0 {
		outcome = "empty"
	}
	s.metrics.Renders.WithLabelValues(chart, outcome).Inc()
	s.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	s.metrics.FilteredRows.Observe(float64(stats.Remaining))

	s.logger.Info("render complete",
		"session_id", sess.ID,
		"chart", chart,
		"rows_in", stats.Input,
		"rows_out", stats.Remaining,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	s.publishAudit(ctx, sess, d, chart, format, stats, start)
}

// publishAudit sends a render-audit event when auditing is enabled. Publish
// failures are logged and swallowed; audit is never on the request's
// critical path.
func (s *Service) publishAudit(ctx context.Context, sess session.Session, d *session.Dataset, chart, format string, stats domain.FilterStats, start time.Time) {
	if s.audit == nil {
		return
	}
	audit := domain.NewRenderAudit(sess.ID, d.ID, chart, format, stats.Input, stats.Remaining, time.Since(start))
	if err := s.audit.Publish(ctx, audit); err != nil {
		s.logger.Warn("audit publish failed", "error", err, "session_id", sess.ID, "chart", chart)
	}
}

// numericColumns collects every column with at least one coercible cell.
func numericColumns(clean *domain.CleanTable) ([]string, [][]float64) {
	var names []string
	var columns [][]float64
	for _, name := range clean.Columns {
		vals, err := clean.NumericColumn(name)
		if err != nil {
			continue
		}
		usable := false
		for _, v := range vals {
			if !math.IsNaN(v) {
				usable = true
				break
			}
		}
		if usable {
			names = append(names, name)
			columns = append(columns, vals)
		}
	}
	return names, columns
}

// aggregateByLabel sums values per distinct label, preserving first-seen
// order, matching how the upstream dashboard fed its pie charts.
func aggregateByLabel(labels []string, values []float64) ([]string, []float64) {
	index := map[string]int{}
	var outLabels []string
	var outValues []float64
	n := len(labels)
	if len(values) < n {
		n = len(values)
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(values[i]) {
			continue
		}
		pos, ok := index[labels[i]]
		if !ok {
			pos = len(outLabels)
			index[labels[i]] = pos
			outLabels = append(outLabels, labels[i])
			outValues = append(outValues, 0)
		}
		outValues[pos] += values[i]
	}
	return outLabels, outValues
}
