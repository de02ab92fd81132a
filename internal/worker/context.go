// Package worker hosts a layout inside an isolated context that only talks
// to its host through start and loop messages.
package worker

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/san-kum/dynlayout/internal/buffer"
	"github.com/san-kum/dynlayout/internal/config"
	"github.com/san-kum/dynlayout/internal/sim"
)

var (
	// ErrNotStarted indicates a loop message before any start message.
	ErrNotStarted = errors.New("worker: loop before start")

	// ErrTopologyMismatch indicates a loop buffer sized for another graph.
	ErrTopologyMismatch = errors.New("worker: node buffer does not match started topology")

	// ErrClosed indicates a message posted to a closed worker.
	ErrClosed = errors.New("worker: closed")
)

type Header string

const (
	HeaderStart Header = "start"
	HeaderLoop  Header = "loop"
)

func (h Header) Known() bool {
	return h == HeaderStart || h == HeaderLoop
}

// Message carries buffers into the context. Ownership of Nodes and Edges
// passes to the context; the host must not touch them until they come back
// in a Reply.
type Message struct {
	Header Header
	Nodes  []float64
	Edges  []float64
	Config config.ParameterMap
}

// Reply hands the node buffer back to the host after one full tick.
type Reply struct {
	Nodes []float64
	Stats sim.TickStats
	Err   error
}

type Option func(*Context)

func WithLogger(l *log.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithObserver(o sim.Observer) Option {
	return func(c *Context) { c.observers = append(c.observers, o) }
}

func WithMetric(m sim.Metric) Option {
	return func(c *Context) { c.metrics = append(c.metrics, m) }
}

// Context owns the simulator and its buffers between messages. It is not
// safe for concurrent use.
type Context struct {
	sim       *sim.Simulator
	logger    *log.Logger
	observers []sim.Observer
	metrics   []sim.Metric
}

func NewContext(opts ...Option) *Context {
	c := &Context{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) Started() bool { return c.sim != nil }

// Simulator exposes the running simulator, nil before start.
func (c *Context) Simulator() *sim.Simulator { return c.sim }

// Handle processes one message. Unknown headers yield a nil reply and no error.
func (c *Context) Handle(msg Message) (*Reply, error) {
	switch msg.Header {
	case HeaderStart:
		if err := c.start(msg); err != nil {
			return nil, err
		}
	case HeaderLoop:
		if err := c.loop(msg); err != nil {
			return nil, err
		}
	default:
		c.logger.Debug("ignoring message", "header", msg.Header)
		return nil, nil
	}

	st, err := c.sim.Tick()
	if err != nil {
		return nil, err
	}
	return &Reply{Nodes: c.sim.Nodes().Data, Stats: st}, nil
}

func (c *Context) start(msg Message) error {
	nodes, err := buffer.WrapNodes(msg.Nodes, msg.Config.RequiresSizes())
	if err != nil {
		return err
	}
	edges, err := buffer.WrapEdges(msg.Edges)
	if err != nil {
		return err
	}
	params, err := config.Resolve(msg.Config, nodes.Len())
	if err != nil {
		return err
	}

	s, err := sim.New(nodes, edges, params)
	if err != nil {
		return err
	}
	s.SetLogger(c.logger)
	for _, o := range c.observers {
		s.AddObserver(o)
	}
	for _, m := range c.metrics {
		s.AddMetric(m)
	}
	c.sim = s

	c.logger.Info("layout started", "nodes", nodes.Len(), "edges", edges.Len(),
		"barnesHut", params.BarnesHutOptimize, "scaling", params.ScalingRatio)
	return nil
}

func (c *Context) loop(msg Message) error {
	if c.sim == nil {
		return ErrNotStarted
	}
	current := c.sim.Nodes()
	if len(msg.Nodes) != len(current.Data) {
		return fmt.Errorf("%w: got %d values, want %d", ErrTopologyMismatch, len(msg.Nodes), len(current.Data))
	}
	nodes, err := buffer.WrapNodes(msg.Nodes, current.Sized())
	if err != nil {
		return err
	}
	return c.sim.SetNodes(nodes)
}
