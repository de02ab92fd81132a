package metrics

import (
	"time"

	"github.com/san-kum/dynlayout/internal/sim"
)

// OnTick records one completed tick. Registry satisfies sim.Observer.
func (r *Registry) OnTick(s sim.TickStats) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.TicksTotal.Inc()
	r.TickDuration.Observe(s.Duration.Seconds())
	r.TickChunks.Observe(float64(s.Chunks))
	r.Speed.Set(s.Speed)
	r.SpeedEfficiency.Set(s.SpeedEfficiency)
	r.Swinging.Set(s.Swinging)
	r.Traction.Set(s.Traction)
	r.Displacement.Set(s.Displacement)
}

// RecordTickError counts an aborted tick by the phase it stopped in.
func (r *Registry) RecordTickError(phase sim.Phase) {
	r.TickErrorsTotal.WithLabelValues(phase.String()).Inc()
}

// RecordMessage records a handled message with its duration.
func (r *Registry) RecordMessage(header, status string, duration time.Duration) {
	r.MessagesTotal.WithLabelValues(header, status).Inc()
	r.MessageDuration.WithLabelValues(header).Observe(duration.Seconds())
}

func (r *Registry) RecordFrame(direction string, size int) {
	r.FrameBytes.WithLabelValues(direction).Observe(float64(size))
}

func (r *Registry) SetTopology(nodes, edges int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Nodes.Set(float64(nodes))
	r.Edges.Set(float64(edges))
}
