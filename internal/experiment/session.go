package experiment

import (
	"context"

	"github.com/san-kum/dynlayout/internal/config"
	"github.com/san-kum/dynlayout/internal/transport"
	"github.com/san-kum/dynlayout/internal/worker"
)

// Session is the host side of the start/loop protocol. Each call hands the
// node buffer over and returns it after one tick.
type Session interface {
	Start(ctx context.Context, nodes, edges []float64, cfg config.ParameterMap) (worker.Reply, error)
	Loop(ctx context.Context, nodes []float64) (worker.Reply, error)
	Close() error
}

var (
	_ Session = (*Local)(nil)
	_ Session = (*transport.Client)(nil)
)

// Local runs the layout context on an in-process worker goroutine.
type Local struct {
	w *worker.Worker
}

func NewLocal(opts ...worker.Option) *Local {
	return &Local{w: worker.Start(opts...)}
}

func (l *Local) Start(ctx context.Context, nodes, edges []float64, cfg config.ParameterMap) (worker.Reply, error) {
	return l.w.Call(ctx, worker.Message{Header: worker.HeaderStart, Nodes: nodes, Edges: edges, Config: cfg})
}

func (l *Local) Loop(ctx context.Context, nodes []float64) (worker.Reply, error) {
	return l.w.Call(ctx, worker.Message{Header: worker.HeaderLoop, Nodes: nodes})
}

func (l *Local) Close() error {
	return l.w.Close()
}
