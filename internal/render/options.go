// Package render turns cleaned tables into downloadable artifacts: SVG/PNG
// charts, self-contained Leaflet map HTML, and CSV exports. All chart and
// map options are direct pass-throughs from the request; no derived logic
// lives here beyond coordinate scaling onto the canvas.
package render

// ChartOptions carries the user-facing customization knobs shared by every
// chart type. Zero values fall back to the documented defaults.
type ChartOptions struct {
	Title      string `json:"title"`
	XAxisTitle string `json:"x_axis_title"`
	YAxisTitle string `json:"y_axis_title"`
	TitleSize  int    `json:"title_size"`
	LabelSize  int    `json:"label_size"`
	FontFamily string `json:"font_family"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Color      string `json:"color"`
	Bins       int    `json:"bins"` // histogram only
}

func (o ChartOptions) withDefaults() ChartOptions {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 500
	}
	if o.TitleSize <= 0 {
		o.TitleSize = 18
	}
	if o.LabelSize <= 0 {
		o.LabelSize = 12
	}
	if o.FontFamily == "" {
		o.FontFamily = "Arial"
	}
	if o.Color == "" {
		o.Color = "#FF0000"
	}
	if o.Bins <= 0 {
		o.Bins = 10
	}
	return o
}

// MapOptions carries the map customization knobs. Zero values fall back to
// the defaults the dashboard shipped with.
type MapOptions struct {
	Title         string  `json:"title"`
	Zoom          int     `json:"zoom"`
	MinRadius     float64 `json:"min_radius"`
	MaxRadius     float64 `json:"max_radius"`
	DefaultRadius float64 `json:"default_radius"`
	Opacity       float64 `json:"opacity"`
	Color         string  `json:"color"`
	Height        int     `json:"height"`
	ShowBoundary  bool    `json:"show_boundary"`
}

func (o MapOptions) withDefaults() MapOptions {
	if o.Zoom <= 0 {
		o.Zoom = 12
	}
	if o.MinRadius <= 0 {
		o.MinRadius = 5
	}
	if o.MaxRadius <= 0 {
		o.MaxRadius = 10
	}
	if o.DefaultRadius <= 0 {
		o.DefaultRadius = o.MaxRadius
	}
	if o.Opacity <= 0 || o.Opacity > 1 {
		o.Opacity = 0.7
	}
	if o.Color == "" {
		o.Color = "#FF0000"
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	return o
}
