package metrics

import (
	"github.com/san-kum/dynlayout/internal/sim"
)

// MeanDisplacement averages the per-node movement over observed ticks.
type MeanDisplacement struct {
	name    string
	sum     float64
	samples int
}

func NewMeanDisplacement() *MeanDisplacement {
	return &MeanDisplacement{name: "mean_displacement"}
}

func (m *MeanDisplacement) Name() string { return m.name }

func (m *MeanDisplacement) Observe(s sim.TickStats) {
	m.sum += s.Displacement
	m.samples++
}

func (m *MeanDisplacement) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanDisplacement) Reset() {
	m.sum = 0
	m.samples = 0
}

// FinalSpeed reports the global speed after the latest tick.
type FinalSpeed struct {
	name  string
	speed float64
}

func NewFinalSpeed() *FinalSpeed {
	return &FinalSpeed{name: "final_speed"}
}

func (f *FinalSpeed) Name() string            { return f.name }
func (f *FinalSpeed) Observe(s sim.TickStats) { f.speed = s.Speed }
func (f *FinalSpeed) Value() float64          { return f.speed }
func (f *FinalSpeed) Reset()                  { f.speed = 0 }
