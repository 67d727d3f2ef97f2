package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dashboard service.
type Metrics struct {
	Uploads *prometheus.CounterVec // labels: kind={csv,xlsx,geojson}, outcome={success,error}
	Renders *prometheus.CounterVec // labels: chart={map,bar,line,scatter,histogram,correlation,pie}, outcome={success,error,empty}
	Exports *prometheus.CounterVec // labels: format={csv,html,svg,png}, outcome={success,degraded,error}

	RowsDropped *prometheus.CounterVec // labels: reason={coordinates,value,rain_filter}
	ParseCache  *prometheus.CounterVec // labels: result={hit,miss}

	RenderDuration prometheus.Histogram
	FilteredRows   prometheus.Histogram

	AuditEnabled prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Uploads,
		m.Renders,
		m.Exports,
		m.RowsDropped,
		m.ParseCache,
		m.RenderDuration,
		m.FilteredRows,
		m.AuditEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geo_dashboard",
			Name:      "uploads_total",
			Help:      "File uploads by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geo_dashboard",
			Name:      "renders_total",
			Help:      "Render attempts by chart type and outcome.",
		}, []string{"chart", "outcome"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geo_dashboard",
			Name:      "exports_total",
			Help:      "Artifact exports by format and outcome.",
		}, []string{"format", "outcome"}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geo_dashboard",
			Name:      "rows_dropped_total",
			Help:      "Rows removed during cleaning and filtering, by reason.",
		}, []string{"reason"}),
		ParseCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geo_dashboard",
			Name:      "parse_cache_total",
			Help:      "Memoized upload parsing lookups by result.",
		}, []string{"result"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "geo_dashboard",
			Name:      "render_duration_seconds",
			Help:      "Duration of a complete normalize-filter-render cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		FilteredRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "geo_dashboard",
			Name:      "filtered_rows",
			Help:      "Number of rows remaining after filtering, per render.",
			Buckets:   []float64{0, 10, 50, 100, 500, 1000, 5000, 10000, 50000},
		}),
		AuditEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "geo_dashboard",
			Name:      "audit_enabled",
			Help:      "1 when the Kafka render-audit publisher is enabled, 0 otherwise.",
		}),
	}
}
