// Package experiment drives a layout from the host side: it sends start and
// loop messages until the tick budget runs out, the context is cancelled or
// the layout settles.
package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/dynlayout/internal/buffer"
	"github.com/san-kum/dynlayout/internal/config"
	"github.com/san-kum/dynlayout/internal/graph"
	"github.com/san-kum/dynlayout/internal/sim"
)

type Config struct {
	Ticks     int
	Seed      int64
	Tolerance float64
	Params    config.ParameterMap
}

type Result struct {
	Graph     *graph.Graph
	Nodes     buffer.Nodes
	Params    sim.Params
	History   []sim.TickStats
	Metrics   map[string]float64
	Converged bool
	Elapsed   time.Duration
}

// Hook sees every reply before the buffer goes back out. It may edit nodes
// in place, for instance to drag or pin a node.
type Hook func(st sim.TickStats, nodes []float64)

type Experiment struct {
	cfg       Config
	graph     *graph.Graph
	session   Session
	metrics   []sim.Metric
	observers []sim.Observer
	hook      Hook
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Setup(g *graph.Graph, session Session, metrics []sim.Metric) error {
	if g == nil || session == nil {
		return fmt.Errorf("experiment needs a graph and a session")
	}
	e.graph = g
	e.session = session
	e.metrics = metrics
	return nil
}

// Close releases the session.
func (e *Experiment) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Close()
}

func (e *Experiment) AddObserver(o sim.Observer) { e.observers = append(e.observers, o) }

func (e *Experiment) SetHook(h Hook) { e.hook = h }

// Run lays the graph out. On cancellation it returns the partial result
// along with the context error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.session == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	if e.cfg.Ticks < 1 {
		return nil, fmt.Errorf("%w: ticks must be at least 1, got %d", config.ErrInvalidParameter, e.cfg.Ticks)
	}

	params, err := config.Resolve(e.cfg.Params, len(e.graph.Nodes))
	if err != nil {
		return nil, err
	}
	sized := e.cfg.Params.RequiresSizes()
	nodes, edges := e.graph.Buffers(sized, e.cfg.Seed)

	for _, m := range e.metrics {
		m.Reset()
	}

	res := &Result{Graph: e.graph, Nodes: nodes, Params: params}
	started := time.Now()

	reply, err := e.session.Start(ctx, nodes.Data, edges.Data, e.cfg.Params)
	for tick := 1; ; tick++ {
		if err == nil && reply.Nodes == nil {
			err = fmt.Errorf("%w: reply without nodes", buffer.ErrLength)
		}
		// A cancelled call still hands the finished tick back; keep it.
		if reply.Nodes != nil {
			if aerr := e.accept(res, reply.Nodes, sized); aerr != nil {
				return e.finish(res, started, aerr)
			}
			e.observe(res, reply.Stats)
		}
		if err != nil {
			return e.finish(res, started, err)
		}

		if e.cfg.Tolerance > 0 && reply.Stats.Displacement < e.cfg.Tolerance {
			res.Converged = true
			break
		}
		if tick >= e.cfg.Ticks {
			break
		}
		if e.hook != nil {
			e.hook(reply.Stats, res.Nodes.Data)
		}
		if err := ctx.Err(); err != nil {
			return e.finish(res, started, err)
		}
		reply, err = e.session.Loop(ctx, res.Nodes.Data)
	}

	return e.finish(res, started, nil)
}

func (e *Experiment) accept(res *Result, data []float64, sized bool) error {
	nodes, err := buffer.WrapNodes(data, sized)
	if err != nil {
		return err
	}
	if nodes.Len() != len(e.graph.Nodes) {
		return fmt.Errorf("%w: reply carries %d nodes, want %d", buffer.ErrLength, nodes.Len(), len(e.graph.Nodes))
	}
	res.Nodes = nodes
	return nil
}

func (e *Experiment) observe(res *Result, st sim.TickStats) {
	res.History = append(res.History, st)
	for _, m := range e.metrics {
		m.Observe(st)
	}
	for _, o := range e.observers {
		o.OnTick(st)
	}
}

// finish fills in timing and metrics and writes the positions back to the
// graph. It returns err, or the write-back error when err is nil.
func (e *Experiment) finish(res *Result, started time.Time, err error) (*Result, error) {
	res.Elapsed = time.Since(started)
	res.Metrics = make(map[string]float64, len(e.metrics))
	for _, m := range e.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	if aerr := e.graph.Apply(res.Nodes); aerr != nil && err == nil {
		err = fmt.Errorf("apply positions: %w", aerr)
	}
	return res, err
}
