package sim

import (
	"fmt"
	"time"
)

type Phase int

const (
	PhaseInit Phase = iota
	PhaseRepulsion
	PhaseGravity
	PhaseAttraction
	PhaseSpeed
	PhaseApply
)

var phaseNames = [...]string{"init", "repulsion", "gravity", "attraction", "speed", "apply"}

func (p Phase) String() string {
	if p < PhaseInit || p > PhaseApply {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Cursor is the resumable position inside a tick.
type Cursor struct {
	Phase Phase
	Index int
}

type Params struct {
	LinLogMode                     bool
	OutboundAttractionDistribution bool
	AdjustSizes                    bool
	EdgeWeightInfluence            float64
	ScalingRatio                   float64
	StrongGravityMode              bool
	Gravity                        float64
	JitterTolerance                float64
	BarnesHutOptimize              bool
	BarnesHutTheta                 float64
	Speed                          float64
	SpeedEfficiency                float64

	// ComplexIntervals bounds repulsion and attraction chunks,
	// SimpleIntervals gravity and displacement chunks.
	ComplexIntervals int
	SimpleIntervals  int
	DepthLimit       int
}

func DefaultParams() Params {
	return Params{
		EdgeWeightInfluence: 0,
		ScalingRatio:        1,
		Gravity:             1,
		JitterTolerance:     1,
		BarnesHutTheta:      1.2,
		Speed:               1,
		SpeedEfficiency:     1,
		ComplexIntervals:    500,
		SimpleIntervals:     1000,
		DepthLimit:          20,
	}
}

func (p Params) Validate() error {
	if !(p.ScalingRatio > 0) {
		return fmt.Errorf("%w: scalingRatio must be positive, got %v", ErrInvalidParams, p.ScalingRatio)
	}
	if p.ComplexIntervals < 1 || p.SimpleIntervals < 1 {
		return fmt.Errorf("%w: chunk sizes must be at least 1, got %d/%d", ErrInvalidParams, p.ComplexIntervals, p.SimpleIntervals)
	}
	if p.BarnesHutTheta < 0 {
		return fmt.Errorf("%w: barnesHutTheta must not be negative, got %v", ErrInvalidParams, p.BarnesHutTheta)
	}
	if p.Speed < 0 {
		return fmt.Errorf("%w: speed must not be negative, got %v", ErrInvalidParams, p.Speed)
	}
	return nil
}

// Tuning holds the scalars adapted from tick to tick.
type Tuning struct {
	Speed                  float64
	SpeedEfficiency        float64
	TotalSwinging          float64
	TotalEffectiveTraction float64
	JitterTolerance        float64
}

type TickStats struct {
	Tick            int
	Speed           float64
	SpeedEfficiency float64
	Swinging        float64
	Traction        float64
	JitterTolerance float64
	// Displacement is the mean distance travelled by movable nodes.
	Displacement float64
	Chunks       int
	Duration     time.Duration
}

type Metric interface {
	Name() string
	Observe(s TickStats)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(s TickStats)
}
