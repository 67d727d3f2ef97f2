package render

import (
	"bytes"
	"fmt"
	"html/template"
)

var chartPageTemplate = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>body { margin: 0; display: flex; justify-content: center; padding: 16px; }</style>
</head>
<body>
{{.SVG}}
</body>
</html>
`))

// HTML wraps the chart's SVG into a self-contained page.
func (c *Chart) HTML(title string) ([]byte, error) {
	var buf bytes.Buffer
	err := chartPageTemplate.Execute(&buf, struct {
		Title string
		SVG   template.HTML
	}{
		Title: title,
		// The SVG is generated by this package with all user text escaped
		// at write time, so it is safe to inline.
		SVG: template.HTML(c.SVG),
	})
	if err != nil {
		return nil, fmt.Errorf("render chart page: %w", err)
	}
	return buf.Bytes(), nil
}
