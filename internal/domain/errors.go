package domain

import "errors"

// Sentinel errors for per-request failure containment. Handlers map these to
// HTTP statuses; none of them is fatal to the process.
var (
	// ErrBadUpload marks an unreadable or corrupt uploaded file.
	ErrBadUpload = errors.New("unreadable upload")

	// ErrMissingColumn marks a selection naming a column the table lacks.
	ErrMissingColumn = errors.New("missing column")

	// ErrPNGUnavailable marks a chart type the PNG rasterizer cannot draw;
	// export degrades to HTML with a warning.
	ErrPNGUnavailable = errors.New("png export unavailable for chart type")
)
