package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"

	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
)

// marker is one map point as serialized into the rendered HTML.
type marker struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Value  float64 `json:"value"`
	Radius float64 `json:"radius"`
	Region string  `json:"region,omitempty"`
	Rain   bool    `json:"rain"`
}

// mapModel is the template input for the Leaflet page. Center and Zoom are
// preformatted: the JS-context escaper pads interpolated numbers with spaces,
// so they are emitted verbatim instead.
type mapModel struct {
	Title       string
	Center      template.JS
	Zoom        template.JS
	Height      int
	Color       string
	Opacity     float64
	Markers     template.JS
	Boundary    template.JS
	RegionProp  string
	HasBoundary bool
	HasRainFlag bool
	MarkerCount int
}

// RenderMap produces a self-contained Leaflet HTML document: one circle
// marker per clean row sized by the value column, plus an optional boundary
// polygon overlay with a hover tooltip on the chosen name property. An empty
// table renders a valid map centered on the default location.
func RenderMap(clean *domain.CleanTable, boundary *domain.Boundary, regionProp string, hasRainFlag bool, opts MapOptions) ([]byte, error) {
	opts = opts.withDefaults()

	radii := domain.ScaleRadii(clean.Values(), opts.MinRadius, opts.MaxRadius, opts.DefaultRadius)
	markers := make([]marker, len(clean.Rows))
	for i, r := range clean.Rows {
		markers[i] = marker{
			Lat:    r.Lat,
			Lon:    r.Lon,
			Value:  r.Value,
			Radius: radii[i],
			Region: r.Region,
			Rain:   r.Rain,
		}
	}

	markerJSON, err := json.Marshal(markers)
	if err != nil {
		return nil, fmt.Errorf("marshal markers: %w", err)
	}

	centerLat, centerLon := clean.Center()
	center := domain.FormatCell(centerLat) + ", " + domain.FormatCell(centerLon)
	model := mapModel{
		Title:       opts.Title,
		Center:      template.JS(center),
		Zoom:        template.JS(strconv.Itoa(opts.Zoom)),
		Height:      opts.Height,
		Color:       opts.Color,
		Opacity:     opts.Opacity,
		Markers:     template.JS(markerJSON),
		RegionProp:  regionProp,
		HasRainFlag: hasRainFlag,
		MarkerCount: len(markers),
	}

	if boundary != nil && opts.ShowBoundary {
		geo, err := boundary.GeoJSON()
		if err != nil {
			return nil, err
		}
		model.Boundary = template.JS(geo)
		model.HasBoundary = true
	}

	var buf bytes.Buffer
	if err := mapTemplate.Execute(&buf, model); err != nil {
		return nil, fmt.Errorf("render map: %w", err)
	}
	return buf.Bytes(), nil
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  body { margin: 0; font-family: Arial, sans-serif; }
  h3 { text-align: center; margin: 8px 0; }
  #map { height: {{.Height}}px; }
  .stats { text-align: center; font-size: 12px; color: #555; margin: 4px 0; }
</style>
</head>
<body>
{{if .Title}}<h3>{{.Title}}</h3>{{end}}
<div id="map"></div>
<div class="stats">{{.MarkerCount}} points</div>
<script>
var map = L.map('map').setView([{{.Center}}], {{.Zoom}});
L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);

{{if .HasBoundary}}
var boundary = {{.Boundary}};
L.geoJSON(boundary, {
  style: function() {
    return { fillColor: '#3388ff', color: '#3388ff', weight: 2, fillOpacity: 0.1 };
  },
  onEachFeature: function(feature, layer) {
    var name = feature.properties && feature.properties[{{.RegionProp}}];
    if (name) { layer.bindTooltip(String(name)); }
  }
}).addTo(map);
{{end}}

var markers = {{.Markers}};
markers.forEach(function(m) {
  var popup = '<b>Value:</b> ' + m.value +
    '<br><b>Lat:</b> ' + m.lat.toFixed(6) +
    '<br><b>Lon:</b> ' + m.lon.toFixed(6);
  if (m.region) { popup += '<br><b>Region:</b> ' + m.region; }
  {{if .HasRainFlag}}popup += '<br><b>Rain:</b> ' + (m.rain ? 'si' : 'no');{{end}}
  L.circleMarker([m.lat, m.lon], {
    radius: m.radius,
    color: {{.Color}},
    fillColor: {{.Color}},
    fillOpacity: {{.Opacity}},
    opacity: 0.8
  }).bindPopup(popup).addTo(map);
});
</script>
</body>
</html>
`))
