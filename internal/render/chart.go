package render

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
)

// ChartType names one of the supported chart variants.
type ChartType string

const (
	ChartBar         ChartType = "bar"
	ChartLine        ChartType = "line"
	ChartScatter     ChartType = "scatter"
	ChartHistogram   ChartType = "histogram"
	ChartCorrelation ChartType = "correlation"
	ChartPie         ChartType = "pie"
)

// ParseChartType validates a chart type string.
func ParseChartType(s string) (ChartType, error) {
	switch ChartType(s) {
	case ChartBar, ChartLine, ChartScatter, ChartHistogram, ChartCorrelation, ChartPie:
		return ChartType(s), nil
	default:
		return "", fmt.Errorf("unknown chart type %q", s)
	}
}

// Chart is a rendered chart: an SVG document plus the primitive list the PNG
// rasterizer draws from. Pie slices have no primitives, so PNG export of a
// pie degrades (see Chart.PNG).
type Chart struct {
	Type   ChartType
	SVG    []byte
	Width  int
	Height int

	prims        []primitive
	rasterizable bool
}

const chartPadding = 60

// BarChart draws one bar per label/value pair. Negative and NaN values draw
// as zero-height bars; rect heights are never negative.
func BarChart(labels []string, values []float64, opts ChartOptions) *Chart {
	opts = opts.withDefaults()
	c := newCanvas(ChartBar, opts)
	c.rasterizable = true

	if len(values) == 0 {
		return c.finish(opts)
	}

	maxVal := 0.0
	for _, v := range values {
		if !math.IsNaN(v) && v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	plotW := opts.Width - 2*chartPadding
	plotH := opts.Height - 2*chartPadding
	barWidth := plotW / len(values)
	gap := barWidth / 5

	for i, v := range values {
		if math.IsNaN(v) || v < 0 {
			v = 0
		}
		barH := int(float64(plotH) * v / maxVal)
		x := chartPadding + i*barWidth + gap/2
		y := chartPadding + plotH - barH
		c.rect(float64(x), float64(y), float64(barWidth-gap), float64(barH), opts.Color)
		if i < len(labels) {
			c.text(float64(x+(barWidth-gap)/2), float64(opts.Height-chartPadding+15), labels[i], opts.LabelSize, "middle")
		}
	}

	return c.finish(opts)
}

// LineChart connects consecutive (x[i], y[i]) points in row order.
func LineChart(xs, ys []float64, opts ChartOptions) *Chart {
	opts = opts.withDefaults()
	c := newCanvas(ChartLine, opts)
	c.rasterizable = true

	px, py := c.projectPoints(xs, ys, opts)
	for i := 1; i < len(px); i++ {
		c.line(px[i-1], py[i-1], px[i], py[i], opts.Color)
	}
	c.axisLabels(xs, ys, opts)

	return c.finish(opts)
}

// ScatterPlot draws one dot per (x[i], y[i]) pair.
func ScatterPlot(xs, ys []float64, opts ChartOptions) *Chart {
	opts = opts.withDefaults()
	c := newCanvas(ChartScatter, opts)
	c.rasterizable = true

	px, py := c.projectPoints(xs, ys, opts)
	for i := range px {
		c.circle(px[i], py[i], 4, opts.Color)
	}
	c.axisLabels(xs, ys, opts)

	return c.finish(opts)
}

// HistogramChart bins the values and draws the counts as bars.
func HistogramChart(values []float64, opts ChartOptions) *Chart {
	opts = opts.withDefaults()
	h := domain.BuildHistogram(values, opts.Bins)

	c := newCanvas(ChartHistogram, opts)
	c.rasterizable = true

	maxCount := 0
	for _, n := range h.Counts {
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount == 0 {
		return c.finish(opts)
	}

	plotW := opts.Width - 2*chartPadding
	plotH := opts.Height - 2*chartPadding
	barWidth := plotW / len(h.Counts)

	for i, n := range h.Counts {
		barH := int(float64(plotH) * float64(n) / float64(maxCount))
		x := chartPadding + i*barWidth
		y := chartPadding + plotH - barH
		c.rect(float64(x), float64(y), float64(barWidth-1), float64(barH), opts.Color)
		c.text(float64(x+barWidth/2), float64(opts.Height-chartPadding+15),
			fmt.Sprintf("%.3g", h.BinEdges[i]), opts.LabelSize-2, "middle")
	}

	return c.finish(opts)
}

// CorrelationHeatmap draws a square cell per column pair, colored from blue
// (-1) through white (0) to red (+1); NaN cells render gray.
func CorrelationHeatmap(names []string, matrix [][]float64, opts ChartOptions) *Chart {
	opts = opts.withDefaults()
	c := newCanvas(ChartCorrelation, opts)
	c.rasterizable = true

	n := len(matrix)
	if n == 0 {
		return c.finish(opts)
	}

	plotW := opts.Width - 2*chartPadding
	plotH := opts.Height - 2*chartPadding
	cellW := plotW / n
	cellH := plotH / n

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x := chartPadding + j*cellW
			y := chartPadding + i*cellH
			c.rect(float64(x), float64(y), float64(cellW-1), float64(cellH-1), correlationColor(matrix[i][j]))
			if !math.IsNaN(matrix[i][j]) {
				c.text(float64(x+cellW/2), float64(y+cellH/2+4),
					fmt.Sprintf("%.2f", matrix[i][j]), opts.LabelSize-2, "middle")
			}
		}
		if i < len(names) {
			c.text(chartPadding-5, float64(chartPadding+i*cellH+cellH/2+4), names[i], opts.LabelSize-2, "end")
			c.text(float64(chartPadding+i*cellW+cellW/2), float64(chartPadding+plotH+15), names[i], opts.LabelSize-2, "middle")
		}
	}

	return c.finish(opts)
}

// PieChart draws one wedge per label/value pair. Negative and NaN values are
// skipped. Pie geometry is SVG-only: PNG export degrades to HTML.
func PieChart(labels []string, values []float64, opts ChartOptions) *Chart {
	opts = opts.withDefaults()
	c := newCanvas(ChartPie, opts)
	c.rasterizable = false

	total := 0.0
	for _, v := range values {
		if !math.IsNaN(v) && v > 0 {
			total += v
		}
	}
	if total == 0 {
		return c.finish(opts)
	}

	cx := float64(opts.Width) / 2
	cy := float64(opts.Height)/2 + 10
	r := math.Min(float64(opts.Width), float64(opts.Height))/2 - float64(chartPadding)

	angle := -math.Pi / 2
	for i, v := range values {
		if math.IsNaN(v) || v <= 0 {
			continue
		}
		sweep := 2 * math.Pi * v / total
		x1 := cx + r*math.Cos(angle)
		y1 := cy + r*math.Sin(angle)
		x2 := cx + r*math.Cos(angle+sweep)
		y2 := cy + r*math.Sin(angle+sweep)
		large := 0
		if sweep > math.Pi {
			large = 1
		}
		c.sb.WriteString(fmt.Sprintf(
			`<path d="M%.1f,%.1f L%.1f,%.1f A%.1f,%.1f 0 %d 1 %.1f,%.1f Z" fill="%s" stroke="white"/>`,
			cx, cy, x1, y1, r, r, large, x2, y2, paletteColor(i)))

		mid := angle + sweep/2
		lx := cx + (r+18)*math.Cos(mid)
		ly := cy + (r+18)*math.Sin(mid)
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		c.text(lx, ly, fmt.Sprintf("%s (%.1f%%)", label, 100*v/total), opts.LabelSize, "middle")
		angle += sweep
	}

	return c.finish(opts)
}

// canvas accumulates SVG fragments and the parallel primitive list.
type canvas struct {
	typ          ChartType
	sb           strings.Builder
	prims        []primitive
	rasterizable bool
	width        int
	height       int
}

func newCanvas(typ ChartType, opts ChartOptions) *canvas {
	c := &canvas{typ: typ, width: opts.Width, height: opts.Height}
	c.sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" font-family="%s">`,
		opts.Width, opts.Height, html.EscapeString(opts.FontFamily)))
	c.sb.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, opts.Width, opts.Height))
	if opts.Title != "" {
		c.sb.WriteString(fmt.Sprintf(`<text x="%d" y="30" text-anchor="middle" font-size="%d" font-weight="bold">%s</text>`,
			opts.Width/2, opts.TitleSize, html.EscapeString(opts.Title)))
	}
	return c
}

func (c *canvas) rect(x, y, w, h float64, color string) {
	c.sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`, x, y, w, h, color))
	c.prims = append(c.prims, primitive{kind: primRect, x1: x, y1: y, x2: x + w, y2: y + h, color: color})
}

func (c *canvas) circle(cx, cy, r float64, color string) {
	c.sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`, cx, cy, r, color))
	c.prims = append(c.prims, primitive{kind: primCircle, x1: cx, y1: cy, r: r, color: color})
}

func (c *canvas) line(x1, y1, x2, y2 float64, color string) {
	c.sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2"/>`, x1, y1, x2, y2, color))
	c.prims = append(c.prims, primitive{kind: primLine, x1: x1, y1: y1, x2: x2, y2: y2, color: color})
}

func (c *canvas) text(x, y float64, s string, size int, anchor string) {
	c.sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" text-anchor="%s" font-size="%d">%s</text>`,
		x, y, anchor, size, html.EscapeString(s)))
}

// projectPoints maps data coordinates onto the plot area, skipping NaN pairs.
func (c *canvas) projectPoints(xs, ys []float64, opts ChartOptions) ([]float64, []float64) {
	sx := domain.Summarize(xs)
	sy := domain.Summarize(ys)
	if sx.Count == 0 || sy.Count == 0 {
		return nil, nil
	}

	spanX := sx.Max - sx.Min
	if spanX == 0 {
		spanX = 1
	}
	spanY := sy.Max - sy.Min
	if spanY == 0 {
		spanY = 1
	}

	plotW := float64(opts.Width - 2*chartPadding)
	plotH := float64(opts.Height - 2*chartPadding)

	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	var px, py []float64
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		px = append(px, chartPadding+plotW*(xs[i]-sx.Min)/spanX)
		py = append(py, float64(opts.Height)-chartPadding-plotH*(ys[i]-sy.Min)/spanY)
	}
	return px, py
}

// axisLabels writes the axis titles and the min/max tick labels.
func (c *canvas) axisLabels(xs, ys []float64, opts ChartOptions) {
	sx := domain.Summarize(xs)
	sy := domain.Summarize(ys)
	if sx.Count > 0 {
		c.text(chartPadding, float64(opts.Height-chartPadding+20), fmt.Sprintf("%.4g", sx.Min), opts.LabelSize-2, "middle")
		c.text(float64(opts.Width-chartPadding), float64(opts.Height-chartPadding+20), fmt.Sprintf("%.4g", sx.Max), opts.LabelSize-2, "middle")
	}
	if sy.Count > 0 {
		c.text(chartPadding-8, float64(opts.Height-chartPadding), fmt.Sprintf("%.4g", sy.Min), opts.LabelSize-2, "end")
		c.text(chartPadding-8, float64(chartPadding+5), fmt.Sprintf("%.4g", sy.Max), opts.LabelSize-2, "end")
	}
	if opts.XAxisTitle != "" {
		c.text(float64(opts.Width)/2, float64(opts.Height-10), opts.XAxisTitle, opts.LabelSize, "middle")
	}
	if opts.YAxisTitle != "" {
		c.sb.WriteString(fmt.Sprintf(`<text x="18" y="%d" text-anchor="middle" font-size="%d" transform="rotate(-90 18 %d)">%s</text>`,
			opts.Height/2, opts.LabelSize, opts.Height/2, html.EscapeString(opts.YAxisTitle)))
	}
}

func (c *canvas) finish(opts ChartOptions) *Chart {
	c.sb.WriteString(`</svg>`)
	return &Chart{
		Type:         c.typ,
		SVG:          []byte(c.sb.String()),
		Width:        opts.Width,
		Height:       opts.Height,
		prims:        c.prims,
		rasterizable: c.rasterizable,
	}
}

// correlationColor maps [-1,1] onto a blue-white-red ramp; NaN is gray.
func correlationColor(v float64) string {
	if math.IsNaN(v) {
		return "#cccccc"
	}
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	if v >= 0 {
		fade := int(255 * (1 - v))
		return fmt.Sprintf("#ff%02x%02x", fade, fade)
	}
	fade := int(255 * (1 + v))
	return fmt.Sprintf("#%02x%02xff", fade, fade)
}

var palette = []string{"#4a90d9", "#e2574c", "#50ae55", "#f5a623", "#9b59b6", "#1abc9c", "#e67e22", "#34495e"}

func paletteColor(i int) string {
	return palette[i%len(palette)]
}
