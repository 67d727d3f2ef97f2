package domain

import "time"

// RenderAudit records one successful render or export for downstream
// analytics. Published to the audit topic when the Kafka publisher is
// enabled.
type RenderAudit struct {
	SessionID  string    `json:"session_id"`
	DatasetID  string    `json:"dataset_id"`
	Chart      string    `json:"chart"`
	Format     string    `json:"format"`
	RowsIn     int       `json:"rows_in"`
	RowsOut    int       `json:"rows_out"`
	DurationMS int64     `json:"duration_ms"`
	RenderedAt time.Time `json:"rendered_at"`
}

// NewRenderAudit stamps an audit record with the package clock so tests can
// freeze RenderedAt.
func NewRenderAudit(sessionID, datasetID, chart, format string, rowsIn, rowsOut int, duration time.Duration) RenderAudit {
	return RenderAudit{
		SessionID:  sessionID,
		DatasetID:  datasetID,
		Chart:      chart,
		Format:     format,
		RowsIn:     rowsIn,
		RowsOut:    rowsOut,
		DurationMS: duration.Milliseconds(),
		RenderedAt: clock.Now(),
	}
}
