// Package region implements the Barnes-Hut quadtree used to approximate
// repulsion. Regions live in a flat arena and are addressed by index.
package region

import (
	"math"

	"github.com/san-kum/dynlayout/internal/buffer"
)

const DefaultDepthLimit = 20

// Region is one cell of the tree. A region holding fewer than two nodes is
// a leaf and has no children.
type Region struct {
	Mass        float64
	MassCenterX float64
	MassCenterY float64
	Size        float64
	Depth       int

	// lo and hi delimit the region's nodes in the tree permutation.
	lo, hi int

	FirstChild  int
	NumChildren int
}

func (r *Region) Count() int { return r.hi - r.lo }

func (r *Region) IsLeaf() bool { return r.hi-r.lo < 2 }

// Law receives the interactions produced by a traversal. ApplyToNode must
// only displace n.
type Law interface {
	ApplyToNode(n, other int)
	ApplyToRegion(n int, r *Region)
}

type Tree struct {
	DepthLimit int

	regions []Region
	perm    []int
	scratch []int
	nodes   []float64
}

func New(depthLimit int) *Tree {
	if depthLimit < 1 {
		depthLimit = DefaultDepthLimit
	}
	return &Tree{DepthLimit: depthLimit}
}

// Build discards any previous tree and partitions every node of the buffer.
func (t *Tree) Build(nodes buffer.Nodes) {
	n := nodes.Len()
	stride := nodes.Stride()
	t.nodes = nodes.Data
	t.regions = t.regions[:0]
	t.perm = t.perm[:0]
	for i := 0; i < n; i++ {
		t.perm = append(t.perm, i*stride)
	}
	if cap(t.scratch) < n {
		t.scratch = make([]int, n)
	}
	t.scratch = t.scratch[:n]
	if n == 0 {
		return
	}
	t.regions = append(t.regions, t.measure(0, n, 0))
	t.subdivide(0)
}

func (t *Tree) measure(lo, hi, depth int) Region {
	r := Region{Depth: depth, lo: lo, hi: hi}
	if hi-lo == 1 {
		n := t.perm[lo]
		r.Mass = t.nodes[n+buffer.Mass]
		r.MassCenterX = t.nodes[n+buffer.X]
		r.MassCenterY = t.nodes[n+buffer.Y]
		return r
	}

	var mass, sumX, sumY, plainX, plainY float64
	for _, n := range t.perm[lo:hi] {
		m := t.nodes[n+buffer.Mass]
		x, y := t.nodes[n+buffer.X], t.nodes[n+buffer.Y]
		mass += m
		sumX += x * m
		sumY += y * m
		plainX += x
		plainY += y
	}
	r.Mass = mass
	if mass > 0 {
		r.MassCenterX = sumX / mass
		r.MassCenterY = sumY / mass
	} else {
		count := float64(hi - lo)
		r.MassCenterX = plainX / count
		r.MassCenterY = plainY / count
	}

	for _, n := range t.perm[lo:hi] {
		dx := t.nodes[n+buffer.X] - r.MassCenterX
		dy := t.nodes[n+buffer.Y] - r.MassCenterY
		r.Size = math.Max(r.Size, 2*math.Sqrt(dx*dx+dy*dy))
	}
	return r
}

// quadrant orders children top-left, bottom-left, bottom-right, top-right.
func (t *Tree) quadrant(n int, cx, cy float64) int {
	left := t.nodes[n+buffer.X] < cx
	top := t.nodes[n+buffer.Y] < cy
	switch {
	case left && top:
		return 0
	case left:
		return 1
	case !top:
		return 2
	default:
		return 3
	}
}

func (t *Tree) subdivide(r int) {
	reg := t.regions[r]
	total := reg.hi - reg.lo
	if total < 2 {
		return
	}

	var counts, pos [4]int
	for _, n := range t.perm[reg.lo:reg.hi] {
		counts[t.quadrant(n, reg.MassCenterX, reg.MassCenterY)]++
	}
	p := reg.lo
	for q := range counts {
		pos[q] = p
		p += counts[q]
	}
	for _, n := range t.perm[reg.lo:reg.hi] {
		q := t.quadrant(n, reg.MassCenterX, reg.MassCenterY)
		t.scratch[pos[q]] = n
		pos[q]++
	}
	copy(t.perm[reg.lo:reg.hi], t.scratch[reg.lo:reg.hi])

	first := len(t.regions)
	next := reg.Depth + 1
	start := reg.lo
	for _, c := range counts {
		if c == 0 {
			continue
		}
		if next <= t.DepthLimit && c < total {
			t.regions = append(t.regions, t.measure(start, start+c, next))
		} else {
			for i := start; i < start+c; i++ {
				t.regions = append(t.regions, t.measure(i, i+1, next))
			}
		}
		start += c
	}
	t.regions[r].FirstChild = first
	t.regions[r].NumChildren = len(t.regions) - first

	for c := first; c < first+t.regions[r].NumChildren; c++ {
		t.subdivide(c)
	}
}

// ApplyForce walks the tree for node n. Regions far enough away, relative to
// theta, are treated as a single body.
func (t *Tree) ApplyForce(n int, law Law, theta float64) {
	if len(t.regions) == 0 {
		return
	}
	t.apply(0, n, law, theta)
}

func (t *Tree) apply(r, n int, law Law, theta float64) {
	reg := &t.regions[r]
	if reg.IsLeaf() {
		if other := t.perm[reg.lo]; other != n {
			law.ApplyToNode(n, other)
		}
		return
	}

	dx := t.nodes[n+buffer.X] - reg.MassCenterX
	dy := t.nodes[n+buffer.Y] - reg.MassCenterY
	if math.Sqrt(dx*dx+dy*dy)*theta > reg.Size {
		law.ApplyToRegion(n, reg)
		return
	}
	for c := reg.FirstChild; c < reg.FirstChild+reg.NumChildren; c++ {
		t.apply(c, n, law, theta)
	}
}

func (t *Tree) Len() int { return len(t.regions) }

func (t *Tree) Root() *Region {
	if len(t.regions) == 0 {
		return nil
	}
	return &t.regions[0]
}

func (t *Tree) Region(i int) *Region { return &t.regions[i] }

// Nodes returns the node slots held by r. The slice aliases tree storage.
func (t *Tree) Nodes(r *Region) []int { return t.perm[r.lo:r.hi] }

// Leaves returns the node slots of every leaf in depth-first order.
func (t *Tree) Leaves() [][]int {
	var out [][]int
	t.Walk(func(r *Region) {
		if r.IsLeaf() {
			out = append(out, append([]int(nil), t.Nodes(r)...))
		}
	})
	return out
}

// Walk visits regions depth-first, parents before children.
func (t *Tree) Walk(fn func(r *Region)) {
	if len(t.regions) == 0 {
		return
	}
	t.walk(0, fn)
}

func (t *Tree) walk(i int, fn func(r *Region)) {
	r := &t.regions[i]
	fn(r)
	for c := r.FirstChild; c < r.FirstChild+r.NumChildren; c++ {
		t.walk(c, fn)
	}
}

func (t *Tree) MaxDepth() int {
	depth := 0
	t.Walk(func(r *Region) {
		if r.Depth > depth {
			depth = r.Depth
		}
	})
	return depth
}
