package metrics

import (
	"math"

	"github.com/san-kum/dynlayout/internal/sim"
)

// Oscillation tracks the worst swinging to traction ratio seen.
type Oscillation struct {
	name     string
	maxRatio float64
}

func NewOscillation() *Oscillation {
	return &Oscillation{name: "oscillation"}
}

func (o *Oscillation) Name() string { return o.name }

func (o *Oscillation) Observe(s sim.TickStats) {
	if s.Traction == 0 {
		return
	}
	o.maxRatio = math.Max(o.maxRatio, s.Swinging/s.Traction)
}

func (o *Oscillation) Value() float64 { return o.maxRatio }

func (o *Oscillation) Reset() { o.maxRatio = 0 }

// Convergence reports the first tick whose mean displacement fell under the
// threshold, or 0 while that has not happened.
type Convergence struct {
	name      string
	threshold float64
	tick      int
}

func NewConvergence(threshold float64) *Convergence {
	return &Convergence{
		name:      "convergence_tick",
		threshold: threshold,
	}
}

func (c *Convergence) Name() string { return c.name }

func (c *Convergence) Observe(s sim.TickStats) {
	if c.tick == 0 && s.Displacement < c.threshold {
		c.tick = s.Tick
	}
}

func (c *Convergence) Value() float64 { return float64(c.tick) }

func (c *Convergence) Reset() { c.tick = 0 }

// Standard returns the metric set the CLI attaches to every run.
func Standard(threshold float64) []sim.Metric {
	return []sim.Metric{
		NewMeanDisplacement(),
		NewFinalSpeed(),
		NewOscillation(),
		NewConvergence(threshold),
	}
}
