package viz

import (
	"math"
	"strings"

	"github.com/san-kum/dynlayout/internal/buffer"
)

const brailleBlank = 0x2800

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
var dotBits = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a character grid addressed in dots, two across and four down
// per cell.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Dots() (int, int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return
	}
	c.Grid[y/4][x/2] |= dotBits[y%4][x%2]
}

func (c *Canvas) Clear() {
	for _, row := range c.Grid {
		for j := range row {
			row[j] = brailleBlank
		}
	}
}

// DrawLine plots a Bresenham line between two dots.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	err := dx + dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawLayout fits every node into the canvas and draws edges as lines and
// nodes as 2x2 dot blocks.
func (c *Canvas) DrawLayout(nodes buffer.Nodes, edges buffer.Edges) {
	c.Clear()
	if nodes.Len() == 0 {
		return
	}
	project := c.viewport(nodes)

	for e := 0; e < edges.Len(); e++ {
		src, tgt, _, err := edges.Endpoints(e*buffer.EdgeStride, nodes)
		if err != nil {
			continue
		}
		x0, y0 := project(nodes.Data[src+buffer.X], nodes.Data[src+buffer.Y])
		x1, y1 := project(nodes.Data[tgt+buffer.X], nodes.Data[tgt+buffer.Y])
		c.DrawLine(x0, y0, x1, y1)
	}
	for i := 0; i < nodes.Len(); i++ {
		n := nodes.At(i)
		x, y := project(nodes.Data[n+buffer.X], nodes.Data[n+buffer.Y])
		c.Set(x, y)
		c.Set(x+1, y)
		c.Set(x, y+1)
		c.Set(x+1, y+1)
	}
}

func (c *Canvas) viewport(nodes buffer.Nodes) func(x, y float64) (int, int) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i < nodes.Len(); i++ {
		n := nodes.At(i)
		minX, maxX = math.Min(minX, nodes.Data[n+buffer.X]), math.Max(maxX, nodes.Data[n+buffer.X])
		minY, maxY = math.Min(minY, nodes.Data[n+buffer.Y]), math.Max(maxY, nodes.Data[n+buffer.Y])
	}

	w, h := c.Dots()
	spanX, spanY := math.Max(maxX-minX, 1e-9), math.Max(maxY-minY, 1e-9)
	scale := math.Min(float64(w-2)/spanX, float64(h-2)/spanY)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2

	return func(x, y float64) (int, int) {
		px := float64(w)/2 + (x-cx)*scale
		py := float64(h)/2 - (y-cy)*scale
		return int(math.Round(px)) - 1, int(math.Round(py)) - 1
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	if x < 0 {
		return -1
	}
	return 1
}
