package forces

import (
	"math"

	"github.com/san-kum/dynlayout/internal/buffer"
	"github.com/san-kum/dynlayout/internal/region"
)

type linearRepulsion struct {
	nodes []float64
	coef  float64
}

// factor is force over distance.
func (f *linearRepulsion) factor(n1, n2 int) (xd, yd, factor float64, ok bool) {
	xd, yd = delta(f.nodes, n1, n2)
	d2 := xd*xd + yd*yd
	if !(d2 > 0) {
		return 0, 0, 0, false
	}
	return xd, yd, f.coef * f.nodes[n1+buffer.Mass] * f.nodes[n2+buffer.Mass] / d2, true
}

func (f *linearRepulsion) ApplyPairwise(n1, n2 int) {
	if xd, yd, factor, ok := f.factor(n1, n2); ok {
		push(f.nodes, n1, xd*factor, yd*factor)
		push(f.nodes, n2, -xd*factor, -yd*factor)
	}
}

func (f *linearRepulsion) ApplyToNode(n, other int) {
	if xd, yd, factor, ok := f.factor(n, other); ok {
		push(f.nodes, n, xd*factor, yd*factor)
	}
}

func (f *linearRepulsion) ApplyToRegion(n int, r *region.Region) {
	applyToRegion(f.nodes, f.coef, n, r)
}

func applyToRegion(nodes []float64, coef float64, n int, r *region.Region) {
	xd := nodes[n+buffer.X] - r.MassCenterX
	yd := nodes[n+buffer.Y] - r.MassCenterY
	d2 := xd*xd + yd*yd
	if !(d2 > 0) {
		return
	}
	factor := coef * nodes[n+buffer.Mass] * r.Mass / d2
	push(nodes, n, xd*factor, yd*factor)
}

// collisionRepulsion measures distance between node borders. Overlapping
// nodes get a strong push proportional to their mass product.
type collisionRepulsion struct {
	nodes []float64
	coef  float64
}

func (f *collisionRepulsion) factor(n1, n2 int) (xd, yd, factor float64, ok bool) {
	xd, yd = delta(f.nodes, n1, n2)
	d := math.Sqrt(xd*xd+yd*yd) - f.nodes[n1+buffer.Size] - f.nodes[n2+buffer.Size]
	m := f.coef * f.nodes[n1+buffer.Mass] * f.nodes[n2+buffer.Mass]
	switch {
	case d > 0:
		return xd, yd, m / (d * d), true
	case d < 0:
		return xd, yd, 100 * m, true
	}
	return 0, 0, 0, false
}

func (f *collisionRepulsion) ApplyPairwise(n1, n2 int) {
	if xd, yd, factor, ok := f.factor(n1, n2); ok {
		push(f.nodes, n1, xd*factor, yd*factor)
		push(f.nodes, n2, -xd*factor, -yd*factor)
	}
}

func (f *collisionRepulsion) ApplyToNode(n, other int) {
	if xd, yd, factor, ok := f.factor(n, other); ok {
		push(f.nodes, n, xd*factor, yd*factor)
	}
}

// ApplyToRegion ignores sizes: a pseudo-body has none.
func (f *collisionRepulsion) ApplyToRegion(n int, r *region.Region) {
	applyToRegion(f.nodes, f.coef, n, r)
}
