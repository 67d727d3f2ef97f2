package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
)

// primitive is one drawable shape shared between the SVG writer and the PNG
// rasterizer. Rect uses (x1,y1)-(x2,y2) as corners; circle uses (x1,y1) and
// r; line uses both endpoints.
type primitive struct {
	kind           primKind
	x1, y1, x2, y2 float64
	r              float64
	color          string
}

type primKind int

const (
	primRect primKind = iota
	primCircle
	primLine
)

// PNG rasterizes the chart's primitives. Chart types without raster support
// (pie) return domain.ErrPNGUnavailable so callers can degrade to HTML
// export with a warning. Text is not rasterized.
func (c *Chart) PNG() ([]byte, error) {
	if !c.rasterizable {
		return nil, fmt.Errorf("%w: %s", domain.ErrPNGUnavailable, c.Type)
	}

	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	fillRect(img, 0, 0, c.Width, c.Height, color.RGBA{255, 255, 255, 255})

	for _, p := range c.prims {
		rgba := parseHexColor(p.color)
		switch p.kind {
		case primRect:
			fillRect(img, int(p.x1), int(p.y1), int(p.x2), int(p.y2), rgba)
		case primCircle:
			fillCircle(img, p.x1, p.y1, p.r, rgba)
		case primLine:
			drawLine(img, p.x1, p.y1, p.x2, p.y2, rgba)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func fillRect(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func fillCircle(img *image.RGBA, cx, cy, r float64, c color.RGBA) {
	for y := int(cy - r); y <= int(cy+r); y++ {
		for x := int(cx - r); x <= int(cx+r); x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

// drawLine steps along the major axis, one pixel per step.
func drawLine(img *image.RGBA, x1, y1, x2, y2 float64, c color.RGBA) {
	steps := int(math.Max(math.Abs(x2-x1), math.Abs(y2-y1)))
	if steps == 0 {
		img.SetRGBA(int(x1), int(y1), c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		img.SetRGBA(int(x1+t*(x2-x1)), int(y1+t*(y2-y1)), c)
	}
}

// parseHexColor decodes "#RRGGBB"; anything else renders black.
func parseHexColor(s string) color.RGBA {
	var r, g, b uint8
	if len(s) == 7 && s[0] == '#' {
		if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err == nil {
			return color.RGBA{r, g, b, 255}
		}
	}
	return color.RGBA{0, 0, 0, 255}
}
