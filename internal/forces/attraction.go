package forces

import (
	"math"

	"github.com/san-kum/dynlayout/internal/buffer"
)

func pull(nodes []float64, n1, n2 int, xd, yd, factor float64) {
	push(nodes, n1, xd*factor, yd*factor)
	push(nodes, n2, -xd*factor, -yd*factor)
}

// linearAttraction grows with distance. With guard set, coincident endpoints
// are skipped.
type linearAttraction struct {
	nodes []float64
	coef  float64
	guard bool
}

func (f *linearAttraction) ApplyPairwise(n1, n2 int, w float64) {
	xd, yd := delta(f.nodes, n1, n2)
	if f.guard && !(xd*xd+yd*yd > 0) {
		return
	}
	pull(f.nodes, n1, n2, xd, yd, -f.coef*w)
}

// linearDistributedAttraction divides by the source mass so hubs do not
// dominate.
type linearDistributedAttraction struct {
	nodes []float64
	coef  float64
	guard bool
}

func (f *linearDistributedAttraction) ApplyPairwise(n1, n2 int, w float64) {
	m := f.nodes[n1+buffer.Mass]
	if m == 0 {
		return
	}
	xd, yd := delta(f.nodes, n1, n2)
	if f.guard && !(xd*xd+yd*yd > 0) {
		return
	}
	pull(f.nodes, n1, n2, xd, yd, -f.coef*w/m)
}

type logAttraction struct {
	nodes []float64
	coef  float64
}

func (f *logAttraction) ApplyPairwise(n1, n2 int, w float64) {
	xd, yd := delta(f.nodes, n1, n2)
	d := math.Sqrt(xd*xd + yd*yd)
	if !(d > 0) {
		return
	}
	pull(f.nodes, n1, n2, xd, yd, -f.coef*w*math.Log1p(d)/d)
}

type logDistributedAttraction struct {
	nodes []float64
	coef  float64
}

func (f *logDistributedAttraction) ApplyPairwise(n1, n2 int, w float64) {
	m := f.nodes[n1+buffer.Mass]
	if m == 0 {
		return
	}
	xd, yd := delta(f.nodes, n1, n2)
	d := math.Sqrt(xd*xd + yd*yd)
	if !(d > 0) {
		return
	}
	pull(f.nodes, n1, n2, xd, yd, -f.coef*w*math.Log1p(d)/d/m)
}

// EdgeWeight maps a stored edge weight through the influence exponent.
// Zero influence ignores weights, and a missing weight counts as 1.
func EdgeWeight(w, influence float64) float64 {
	switch {
	case influence == 0:
		return 1
	case w == 0:
		return 1
	case influence == 1:
		return w
	default:
		return math.Pow(w, influence)
	}
}
