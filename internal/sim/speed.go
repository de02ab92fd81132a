package sim

import (
	"math"

	"github.com/san-kum/dynlayout/internal/buffer"
)

const (
	minSpeedEfficiency = 0.05
	maxJitterTolerance = 10
	maxRise            = 0.5
	maxSpeed           = 1000
)

// Measure sums mass-weighted swinging and effective traction over the
// movable nodes, comparing old and current displacement.
func Measure(nodes buffer.Nodes) (swinging, traction float64) {
	data := nodes.Data
	for i := 0; i < nodes.Len(); i++ {
		n := nodes.At(i)
		if data[n+buffer.Fixed] != 0 {
			continue
		}
		ox, oy := data[n+buffer.OldDX], data[n+buffer.OldDY]
		dx, dy := data[n+buffer.DX], data[n+buffer.DY]
		m := data[n+buffer.Mass]
		swinging += m * math.Hypot(ox-dx, oy-dy)
		traction += m * 0.5 * math.Hypot(ox+dx, oy+dy)
	}
	return swinging, traction
}

// Adjust adapts speed and speed efficiency from one tick's totals.
func (t *Tuning) Adjust(swinging, traction float64, nodeCount int, jitterTolerance float64) {
	t.TotalSwinging = swinging
	t.TotalEffectiveTraction = traction
	if nodeCount == 0 {
		return
	}

	n := float64(nodeCount)
	estimated := 0.02 * math.Sqrt(n)
	jt := jitterTolerance * math.Max(math.Sqrt(estimated), math.Min(maxJitterTolerance, estimated*traction/(n*n)))
	t.JitterTolerance = jt

	t.SpeedEfficiency = math.Max(t.SpeedEfficiency, minSpeedEfficiency)
	if swinging > 2*traction {
		t.SpeedEfficiency = math.Max(minSpeedEfficiency, t.SpeedEfficiency*0.5)
	}

	var target float64
	if swinging > 0 {
		target = jt * t.SpeedEfficiency * traction / swinging
	}

	if swinging > jt*traction {
		t.SpeedEfficiency = math.Max(minSpeedEfficiency, t.SpeedEfficiency*0.7)
	} else if t.Speed < maxSpeed {
		t.SpeedEfficiency *= 1.3
	}

	rise := maxRise * t.Speed
	switch {
	case swinging > 0:
		rise = math.Min(target-t.Speed, rise)
	case traction == 0:
		rise = 0
	}
	t.Speed = math.Max(0, t.Speed+rise)
}
