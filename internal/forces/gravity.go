package forces

import (
	"math"

	"github.com/san-kum/dynlayout/internal/buffer"
)

type linearGravity struct {
	nodes []float64
	coef  float64
}

func (f *linearGravity) ApplyGravity(n int, g float64) {
	x, y := f.nodes[n+buffer.X], f.nodes[n+buffer.Y]
	d := math.Sqrt(x*x + y*y)
	if !(d > 0) {
		return
	}
	factor := f.coef * f.nodes[n+buffer.Mass] * g / d
	push(f.nodes, n, -x*factor, -y*factor)
}

// strongGravity grows linearly with distance to the origin.
type strongGravity struct {
	nodes []float64
	coef  float64
}

func (f *strongGravity) ApplyGravity(n int, g float64) {
	x, y := f.nodes[n+buffer.X], f.nodes[n+buffer.Y]
	if !(x*x+y*y > 0) {
		return
	}
	factor := f.coef * f.nodes[n+buffer.Mass] * g
	push(f.nodes, n, -x*factor, -y*factor)
}
