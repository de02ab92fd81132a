// Package sim drives the layout: a tick runs six phases, each in bounded
// chunks, over a node and an edge buffer owned by the simulator.
package sim

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/dynlayout/internal/buffer"
	"github.com/san-kum/dynlayout/internal/forces"
	"github.com/san-kum/dynlayout/internal/region"
)

type Simulator struct {
	params Params
	tuning Tuning
	cursor Cursor

	nodes buffer.Nodes
	edges buffer.Edges
	tree  *region.Tree
	laws  forces.Set

	tick         int
	chunks       int
	started      time.Time
	displacement float64
	moved        int

	logger    *log.Logger
	metrics   []Metric
	observers []Observer
}

func New(nodes buffer.Nodes, edges buffer.Edges, p Params) (*Simulator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.AdjustSizes && !nodes.Sized() {
		return nil, buffer.UnknownFieldError{Schema: nodes.Schema().Name(), Field: "size"}
	}
	return &Simulator{
		params: p,
		tuning: Tuning{Speed: p.Speed, SpeedEfficiency: p.SpeedEfficiency},
		nodes:  nodes,
		edges:  edges,
		tree:   region.New(p.DepthLimit),
		logger: log.New(io.Discard),
	}, nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *Simulator) Params() Params      { return s.params }
func (s *Simulator) Tuning() Tuning      { return s.tuning }
func (s *Simulator) Cursor() Cursor      { return s.cursor }
func (s *Simulator) Nodes() buffer.Nodes { return s.nodes }
func (s *Simulator) Edges() buffer.Edges { return s.edges }
func (s *Simulator) Ticks() int          { return s.tick }

// SetNodes swaps in a node buffer with the same layout, typically one the
// host edited between ticks. A partially run tick restarts from phase 0.
func (s *Simulator) SetNodes(nodes buffer.Nodes) error {
	if nodes.Stride() != s.nodes.Stride() || len(nodes.Data) != len(s.nodes.Data) {
		return fmt.Errorf("%w: got %d values at stride %d, want %d at stride %d",
			buffer.ErrLength, len(nodes.Data), nodes.Stride(), len(s.nodes.Data), s.nodes.Stride())
	}
	s.nodes = nodes
	s.cursor = Cursor{}
	return nil
}

// Step runs one chunk of the current phase. It returns false once the tick
// is complete and the cursor is back at phase 0.
func (s *Simulator) Step() (bool, error) {
	if s.cursor.Phase == PhaseInit && s.cursor.Index == 0 {
		s.started = time.Now()
		s.chunks = 0
		s.displacement = 0
		s.moved = 0
	}
	s.chunks++

	var err error
	switch s.cursor.Phase {
	case PhaseInit:
		s.initialize()
	case PhaseRepulsion:
		s.repulse()
	case PhaseGravity:
		s.attractToCenter()
	case PhaseAttraction:
		err = s.attract()
	case PhaseSpeed:
		s.adjustSpeed()
	case PhaseApply:
		if s.apply() {
			s.finish()
			return false, nil
		}
	default:
		err = InvalidPhaseError{Phase: s.cursor.Phase}
	}

	if err != nil {
		tickErr := &TickError{Tick: s.tick + 1, Cursor: s.cursor, Wrapped: err}
		s.cursor = Cursor{}
		s.logger.Error("tick aborted", "tick", tickErr.Tick, "phase", tickErr.Cursor.Phase, "index", tickErr.Cursor.Index, "err", err)
		return false, tickErr
	}
	return true, nil
}

// Tick runs chunks back to back until one full tick completes.
func (s *Simulator) Tick() (TickStats, error) {
	for {
		more, err := s.Step()
		if err != nil {
			return TickStats{}, err
		}
		if !more {
			return s.stats(), nil
		}
	}
}

// Run performs up to ticks full ticks, checking ctx between ticks.
func (s *Simulator) Run(ctx context.Context, ticks int) ([]TickStats, error) {
	for _, m := range s.metrics {
		m.Reset()
	}

	history := make([]TickStats, 0, ticks)
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return history, ctx.Err()
		default:
		}

		st, err := s.Tick()
		if err != nil {
			return history, err
		}
		history = append(history, st)
	}
	return history, nil
}

func (s *Simulator) Metrics() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Simulator) stats() TickStats {
	st := TickStats{
		Tick:            s.tick,
		Speed:           s.tuning.Speed,
		SpeedEfficiency: s.tuning.SpeedEfficiency,
		Swinging:        s.tuning.TotalSwinging,
		Traction:        s.tuning.TotalEffectiveTraction,
		JitterTolerance: s.tuning.JitterTolerance,
		Chunks:          s.chunks,
		Duration:        time.Since(s.started),
	}
	if s.moved > 0 {
		st.Displacement = s.displacement / float64(s.moved)
	}
	return st
}

func (s *Simulator) finish() {
	s.cursor = Cursor{}
	s.tick++

	st := s.stats()
	for _, m := range s.metrics {
		m.Observe(st)
	}
	for _, obs := range s.observers {
		obs.OnTick(st)
	}
	s.logger.Debug("tick", "n", st.Tick, "speed", st.Speed, "efficiency", st.SpeedEfficiency,
		"swinging", st.Swinging, "traction", st.Traction, "chunks", st.Chunks)
}

// advance moves the cursor forward by a chunk, or to the next phase once
// total items are done.
func (s *Simulator) advance(end, total int, next Phase) bool {
	if end >= total {
		s.cursor = Cursor{Phase: next}
		return true
	}
	s.cursor.Index = end
	return false
}

func chunkEnd(start, size, total int) int {
	return min(start+size, total)
}

func (s *Simulator) initialize() {
	data := s.nodes.Data
	count := s.nodes.Len()
	var mass float64
	for i := 0; i < count; i++ {
		n := s.nodes.At(i)
		data[n+buffer.OldDX] = data[n+buffer.DX]
		data[n+buffer.OldDY] = data[n+buffer.DY]
		data[n+buffer.DX] = 0
		data[n+buffer.DY] = 0
		mass += data[n+buffer.Mass]
	}

	if s.params.BarnesHutOptimize {
		s.tree.Build(s.nodes)
	}

	compensation := 1.0
	if s.params.OutboundAttractionDistribution && count > 0 {
		compensation = mass / float64(count)
	}

	s.laws = forces.Select(data, forces.Options{
		LinLog:        s.params.LinLogMode,
		Distributed:   s.params.OutboundAttractionDistribution,
		AdjustSizes:   s.params.AdjustSizes,
		StrongGravity: s.params.StrongGravityMode,
		ScalingRatio:  s.params.ScalingRatio,
		Compensation:  compensation,
	})
	s.cursor = Cursor{Phase: PhaseRepulsion}
}

func (s *Simulator) repulse() {
	total := s.nodes.Len()
	start := s.cursor.Index
	end := chunkEnd(start, s.params.ComplexIntervals, total)

	if s.params.BarnesHutOptimize {
		for i := start; i < end; i++ {
			s.tree.ApplyForce(s.nodes.At(i), s.laws.Repulsion, s.params.BarnesHutTheta)
		}
	} else {
		for i := start; i < end; i++ {
			n1 := s.nodes.At(i)
			for j := 0; j < i; j++ {
				s.laws.Repulsion.ApplyPairwise(n1, s.nodes.At(j))
			}
		}
	}
	s.advance(end, total, PhaseGravity)
}

func (s *Simulator) attractToCenter() {
	total := s.nodes.Len()
	start := s.cursor.Index
	end := chunkEnd(start, s.params.SimpleIntervals, total)

	g := s.params.Gravity / s.params.ScalingRatio
	for i := start; i < end; i++ {
		s.laws.Gravity.ApplyGravity(s.nodes.At(i), g)
	}
	s.advance(end, total, PhaseAttraction)
}

func (s *Simulator) attract() error {
	total := s.edges.Len()
	start := s.cursor.Index
	end := chunkEnd(start, s.params.ComplexIntervals, total)

	for e := start; e < end; e++ {
		src, tgt, w, err := s.edges.Endpoints(e*buffer.EdgeStride, s.nodes)
		if err != nil {
			s.cursor.Index = e
			return err
		}
		s.laws.Attraction.ApplyPairwise(src, tgt, forces.EdgeWeight(w, s.params.EdgeWeightInfluence))
	}
	s.advance(end, total, PhaseSpeed)
	return nil
}

func (s *Simulator) adjustSpeed() {
	swinging, traction := Measure(s.nodes)
	s.tuning.Adjust(swinging, traction, s.nodes.Len(), s.params.JitterTolerance)
	s.cursor = Cursor{Phase: PhaseApply}
}

// apply moves every movable node along its displacement, damped by how much
// it swings. The pre-move position is left in the old displacement slots.
func (s *Simulator) apply() bool {
	data := s.nodes.Data
	total := s.nodes.Len()
	start := s.cursor.Index
	end := chunkEnd(start, s.params.SimpleIntervals, total)
	speed := s.tuning.Speed

	for i := start; i < end; i++ {
		n := s.nodes.At(i)
		x, y := data[n+buffer.X], data[n+buffer.Y]

		if data[n+buffer.Fixed] == 0 {
			dx, dy := data[n+buffer.DX], data[n+buffer.DY]
			swinging := data[n+buffer.Mass] * math.Hypot(data[n+buffer.OldDX]-dx, data[n+buffer.OldDY]-dy)

			var factor float64
			if s.params.AdjustSizes {
				factor = 0.1 * speed / (1 + speed*math.Sqrt(swinging))
				if df := math.Hypot(dx, dy); df > 0 {
					factor = math.Min(factor*df, 10) / df
				} else {
					factor = 0
				}
			} else {
				factor = speed / (1 + math.Sqrt(speed*swinging))
			}

			data[n+buffer.X] = x + dx*factor
			data[n+buffer.Y] = y + dy*factor
			s.displacement += math.Hypot(dx*factor, dy*factor)
			s.moved++
		}

		data[n+buffer.OldDX] = x
		data[n+buffer.OldDY] = y
	}
	return s.advance(end, total, PhaseInit)
}
