package worker

import (
	"context"
	"sync"
)

// Worker runs a Context on its own goroutine. Every start or loop message
// produces exactly one Reply on the Replies channel.
type Worker struct {
	ctx     *Context
	inbox   chan Message
	replies chan Reply
	quit    chan struct{}
	done    chan struct{}

	closeOnce sync.Once
}

func Start(opts ...Option) *Worker {
	w := &Worker{
		ctx:     NewContext(opts...),
		inbox:   make(chan Message),
		replies: make(chan Reply, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.done)
	defer close(w.replies)

	for {
		select {
		case msg := <-w.inbox:
			reply, err := w.ctx.Handle(msg)
			if err != nil {
				reply = &Reply{Err: err}
			}
			if reply == nil {
				continue
			}
			select {
			case w.replies <- *reply:
			case <-w.quit:
				return
			}
		case <-w.quit:
			return
		}
	}
}

// Post hands msg to the worker without waiting for the tick.
func (w *Worker) Post(ctx context.Context, msg Message) error {
	select {
	case <-w.quit:
		return ErrClosed
	default:
	}

	select {
	case w.inbox <- msg:
		return nil
	case <-w.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) Replies() <-chan Reply { return w.replies }

// Call posts msg and waits for its reply. Messages with unknown headers are
// dropped by the worker, so Call returns an empty reply for them at once.
//
// Once posted, the node buffer belongs to the worker until the tick is done,
// so a cancelled ctx does not cut the wait short: Call still collects the
// reply and returns it together with ctx.Err().
func (w *Worker) Call(ctx context.Context, msg Message) (Reply, error) {
	if err := w.Post(ctx, msg); err != nil {
		return Reply{}, err
	}
	if !msg.Header.Known() {
		return Reply{}, nil
	}

	r, ok := <-w.replies
	if !ok {
		return Reply{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return r, err
	}
	return r, r.Err
}

// Close stops the worker after the message in progress, if any.
func (w *Worker) Close() error {
	w.closeOnce.Do(func() { close(w.quit) })
	<-w.done
	return nil
}
