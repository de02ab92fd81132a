package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/rep"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/san-kum/dynlayout/internal/metrics"
	"github.com/san-kum/dynlayout/internal/sim"
	"github.com/san-kum/dynlayout/internal/worker"
)

const pollInterval = 250 * time.Millisecond

// Server exposes one isolated layout context on a rep socket. Requests are
// handled strictly one at a time.
type Server struct {
	sock    mangos.Socket
	lctx    *worker.Context
	pool    *sim.NodePool
	current []float64
	metrics *metrics.Registry
	logger  *log.Logger
}

type ServerOption func(*Server)

func WithServerLogger(l *log.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry records message, frame and tick metrics into r.
func WithRegistry(r *metrics.Registry) ServerOption {
	return func(s *Server) { s.metrics = r }
}

// Listen opens a rep socket on addr, e.g. tcp://127.0.0.1:40899 or
// inproc://layout.
func Listen(addr string, opts ...ServerOption) (*Server, error) {
	sock, err := rep.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("create rep socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionRecvDeadline, pollInterval); err != nil {
		sock.Close()
		return nil, err
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	s := &Server{sock: sock, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(s)
	}

	ctxOpts := []worker.Option{worker.WithLogger(s.logger)}
	if s.metrics != nil {
		ctxOpts = append(ctxOpts, worker.WithObserver(s.metrics))
	}
	s.lctx = worker.NewContext(ctxOpts...)
	return s, nil
}

// Serve answers requests until ctx is done or the socket is closed.
func (s *Server) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, err := s.sock.Recv()
		if err != nil {
			if errors.Is(err, mangos.ErrRecvTimeout) {
				continue
			}
			if errors.Is(err, mangos.ErrClosed) {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}

		reply := s.handle(data)
		out, err := Encode(reply)
		if err != nil {
			s.logger.Error("encode reply", "header", reply.Header, "err", err)
			if out, err = Encode(Frame{Header: reply.Header, Err: err.Error()}); err != nil {
				continue
			}
		}
		if s.metrics != nil {
			s.metrics.RecordFrame("out", len(out))
		}
		if err := s.sock.Send(out); err != nil {
			s.logger.Warn("send reply", "err", err)
		}
	}
}

func (s *Server) handle(data []byte) Frame {
	started := time.Now()
	if s.metrics != nil {
		s.metrics.RecordFrame("in", len(data))
	}

	f, err := Decode(data, s.alloc)
	if err != nil {
		s.record("malformed", "error", started)
		return Frame{Header: HeaderIgnored, Err: err.Error()}
	}

	reply, err := s.lctx.Handle(worker.Message{
		Header: f.Header,
		Nodes:  f.Nodes,
		Edges:  f.Edges,
		Config: f.Config,
	})
	s.recycle(f.Nodes)

	if err != nil {
		var tickErr *sim.TickError
		if s.metrics != nil && errors.As(err, &tickErr) {
			s.metrics.RecordTickError(tickErr.Cursor.Phase)
		}
		s.logger.Warn("message failed", "header", f.Header, "err", err)
		s.record(string(f.Header), "error", started)
		return Frame{Header: f.Header, Err: err.Error()}
	}
	if reply == nil {
		s.record(string(f.Header), "ignored", started)
		return Frame{Header: HeaderIgnored}
	}

	if f.Header == worker.HeaderStart {
		n := s.lctx.Simulator().Nodes()
		s.pool = sim.NewNodePool(n.Len(), n.Sized())
		s.current = n.Data
		if s.metrics != nil {
			s.metrics.SetTopology(n.Len(), s.lctx.Simulator().Edges().Len())
		}
	}

	s.record(string(f.Header), "ok", started)
	return Frame{Header: f.Header, Nodes: reply.Nodes, Stats: &reply.Stats}
}

func (s *Server) alloc(n int) []float64 {
	if s.pool == nil || !s.pool.Fits(n) {
		return nil
	}
	return s.pool.Get()
}

// recycle returns whichever node buffer the simulator no longer holds.
func (s *Server) recycle(decoded []float64) {
	if s.pool == nil || !s.lctx.Started() {
		return
	}
	held := s.lctx.Simulator().Nodes().Data
	switch {
	case sameBuffer(held, decoded):
		if !sameBuffer(held, s.current) {
			s.pool.Put(s.current)
		}
	default:
		s.pool.Put(decoded)
	}
	s.current = held
}

func sameBuffer(a, b []float64) bool {
	return len(a) > 0 && len(a) == len(b) && &a[0] == &b[0]
}

func (s *Server) record(header, status string, started time.Time) {
	if s.metrics != nil {
		s.metrics.RecordMessage(header, status, time.Since(started))
	}
}

func (s *Server) Close() error {
	return s.sock.Close()
}
