package websocket

import (
	"context"
	"time"

	"github.com/oshokin/nitai/internal/errs"
)

// result is the answer to a command.
type result[T any] struct {
	value T
	err   error
}

// command is a unit of work executed by the actor.
type command interface {
	// fail answers the command with err without executing it.
	fail(err error)
}

type sendCommand struct {
	message *Message
	reply   chan<- result[struct{}]
}

type sendBatchCommand struct {
	messages []*Message
	reply    chan<- result[struct{}]
}

type receiveCommand struct {
	ctx     context.Context //nolint:containedctx // Bounds the wait inside the actor.
	timeout time.Duration
	reply   chan<- result[*Message]
}

type closeCommand struct {
	code   *uint16
	reason *string
	reply  chan<- result[struct{}]
}

func (c *sendCommand) fail(err error)      { c.reply <- result[struct{}]{err: err} }
func (c *sendBatchCommand) fail(err error) { c.reply <- result[struct{}]{err: err} }
func (c *receiveCommand) fail(err error)   { c.reply <- result[*Message]{err: err} }
func (c *closeCommand) fail(err error)     { c.reply <- result[struct{}]{err: err} }

// request enqueues the command built by newCommand and waits for its answer.
// Reply channels are buffered, so the actor never blocks on a caller that gave up.
func request[T any](ctx context.Context, m *mailbox, newCommand func(reply chan<- result[T]) command) (T, error) {
	var zero T

	if m.isClosed() {
		return zero, errs.ErrDisconnected
	}

	reply := make(chan result[T], 1)
	if err := m.push(newCommand(reply)); err != nil {
		return zero, err
	}

	select {
	case res := <-reply:
		return res.value, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
