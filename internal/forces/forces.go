// Package forces holds the repulsion, gravity and attraction laws. Each law
// reads and writes a node buffer in place and is selected once per tick.
package forces

import (
	"github.com/san-kum/dynlayout/internal/buffer"
	"github.com/san-kum/dynlayout/internal/region"
)

// Repulsion pushes nodes apart. ApplyToNode and ApplyToRegion only displace n,
// which makes every Repulsion usable as a region.Law.
type Repulsion interface {
	ApplyPairwise(n1, n2 int)
	ApplyToNode(n, other int)
	ApplyToRegion(n int, r *region.Region)
}

// Gravity pulls a node toward the origin.
type Gravity interface {
	ApplyGravity(n int, g float64)
}

// Attraction pulls the endpoints of a weighted edge together.
type Attraction interface {
	ApplyPairwise(n1, n2 int, weight float64)
}

type Options struct {
	LinLog        bool
	Distributed   bool
	AdjustSizes   bool
	StrongGravity bool

	// ScalingRatio scales repulsion and gravity.
	ScalingRatio float64
	// Compensation scales attraction; the mean node mass when Distributed.
	Compensation float64
}

type Set struct {
	Repulsion  Repulsion
	Gravity    Gravity
	Attraction Attraction
}

// Select binds the laws matching opts to the node buffer. AdjustSizes needs a
// node buffer carrying the size field.
func Select(nodes []float64, opts Options) Set {
	var set Set

	if opts.AdjustSizes {
		set.Repulsion = &collisionRepulsion{nodes: nodes, coef: opts.ScalingRatio}
	} else {
		set.Repulsion = &linearRepulsion{nodes: nodes, coef: opts.ScalingRatio}
	}

	if opts.StrongGravity {
		set.Gravity = &strongGravity{nodes: nodes, coef: opts.ScalingRatio}
	} else {
		set.Gravity = &linearGravity{nodes: nodes, coef: opts.ScalingRatio}
	}

	coef := 1.0
	if opts.Distributed {
		coef = opts.Compensation
	}
	switch {
	case opts.LinLog && opts.Distributed:
		set.Attraction = &logDistributedAttraction{nodes: nodes, coef: coef}
	case opts.LinLog:
		set.Attraction = &logAttraction{nodes: nodes, coef: coef}
	case opts.Distributed && opts.AdjustSizes:
		set.Attraction = &linearDistributedAttraction{nodes: nodes, coef: coef, guard: true}
	case opts.Distributed:
		set.Attraction = &linearDistributedAttraction{nodes: nodes, coef: coef}
	case opts.AdjustSizes:
		set.Attraction = &linearAttraction{nodes: nodes, coef: coef, guard: true}
	default:
		set.Attraction = &linearAttraction{nodes: nodes, coef: coef}
	}
	return set
}

func push(nodes []float64, n int, fx, fy float64) {
	nodes[n+buffer.DX] += fx
	nodes[n+buffer.DY] += fy
}

func delta(nodes []float64, n1, n2 int) (float64, float64) {
	return nodes[n1+buffer.X] - nodes[n2+buffer.X], nodes[n1+buffer.Y] - nodes[n2+buffer.Y]
}
