package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/req"

	"github.com/san-kum/dynlayout/internal/config"
	"github.com/san-kum/dynlayout/internal/worker"
)

// ErrRemote wraps an error string returned by the server.
var ErrRemote = errors.New("transport: remote error")

// Client drives a remote layout context over a req socket.
type Client struct {
	sock mangos.Socket
}

// Dial connects to a server. timeout bounds every send and receive.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	sock, err := req.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("create req socket: %w", err)
	}
	if timeout > 0 {
		if err := sock.SetOption(mangos.OptionRecvDeadline, timeout); err != nil {
			sock.Close()
			return nil, err
		}
		if err := sock.SetOption(mangos.OptionSendDeadline, timeout); err != nil {
			sock.Close()
			return nil, err
		}
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{sock: sock}, nil
}

func (c *Client) Start(ctx context.Context, nodes, edges []float64, cfg config.ParameterMap) (worker.Reply, error) {
	return c.Call(ctx, Frame{Header: worker.HeaderStart, Nodes: nodes, Edges: edges, Config: cfg})
}

func (c *Client) Loop(ctx context.Context, nodes []float64) (worker.Reply, error) {
	return c.Call(ctx, Frame{Header: worker.HeaderLoop, Nodes: nodes})
}

// Call sends one frame and waits for the answer. ctx is checked before
// sending; the socket deadlines bound the exchange itself.
func (c *Client) Call(ctx context.Context, f Frame) (worker.Reply, error) {
	if err := ctx.Err(); err != nil {
		return worker.Reply{}, err
	}
	out, err := Encode(f)
	if err != nil {
		return worker.Reply{}, err
	}
	if err := c.sock.Send(out); err != nil {
		return worker.Reply{}, fmt.Errorf("send %s: %w", f.Header, err)
	}
	data, err := c.sock.Recv()
	if err != nil {
		return worker.Reply{}, fmt.Errorf("receive %s reply: %w", f.Header, err)
	}

	in, err := Decode(data, nil)
	if err != nil {
		return worker.Reply{}, err
	}
	if in.Err != "" {
		err := fmt.Errorf("%w: %s", ErrRemote, in.Err)
		return worker.Reply{Err: err}, err
	}

	r := worker.Reply{Nodes: in.Nodes}
	if in.Stats != nil {
		r.Stats = *in.Stats
	}
	return r, nil
}

func (c *Client) Close() error {
	return c.sock.Close()
}
