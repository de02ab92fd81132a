// Package export renders laid-out graphs to static formats.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/dynlayout/internal/graph"
)

type SVGOptions struct {
	Width, Height int
	NodeRadius    float64
	NodeColor     string
	EdgeColor     string
	Background    string
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Width:      800,
		Height:     800,
		NodeRadius: 3,
		NodeColor:  "#00ccff",
		EdgeColor:  "#444466",
		Background: "#0a0a0a",
	}
}

// GraphToSVG draws the graph at its current positions, scaled uniformly to
// fit the canvas with a 10% margin. Sized nodes scale their radius.
func GraphToSVG(g *graph.Graph, opts SVGOptions) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, opts.Width, opts.Height, opts.Width, opts.Height, opts.Background))

	if len(g.Nodes) == 0 {
		sb.WriteString("</svg>")
		return sb.String()
	}

	project := fit(g, float64(opts.Width), float64(opts.Height))

	sb.WriteString(fmt.Sprintf(`<g stroke="%s" stroke-width="0.8" stroke-opacity="0.7">
`, opts.EdgeColor))
	for _, e := range g.Edges {
		x1, y1 := project(g.Nodes[e.Source].X, g.Nodes[e.Source].Y)
		x2, y2 := project(g.Nodes[e.Target].X, g.Nodes[e.Target].Y)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, x1, y1, x2, y2))
	}
	sb.WriteString("</g>\n")

	sb.WriteString(fmt.Sprintf(`<g fill="%s">
`, opts.NodeColor))
	for _, n := range g.Nodes {
		x, y := project(n.X, n.Y)
		r := opts.NodeRadius * math.Max(n.Size, 1)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"><title>%s</title></circle>
`, x, y, r, escape(n.ID)))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func fit(g *graph.Graph, width, height float64) func(x, y float64) (float64, float64) {
	minX, minY, maxX, maxY := g.Bounds()

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	scale := math.Min(width*0.8/rangeX, height*0.8/rangeY)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2

	return func(x, y float64) (float64, float64) {
		return width/2 + (x-cx)*scale, height/2 - (y-cy)*scale
	}
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return escaper.Replace(s) }
