package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/oshokin/nitai/internal/errs"
	"github.com/oshokin/nitai/internal/logger"
)

// inbound is a frame or a read error handed over by the reader goroutine.
type inbound struct {
	message *Message
	err     error
}

// actor owns the connection and executes commands one at a time.
type actor struct {
	conn    Conn
	mailbox *mailbox
	// frames is unbuffered: a frame leaves the reader only when a receive takes it.
	frames chan inbound
	// stop is closed when the actor exits.
	stop chan struct{}
	// done is closed after the connection has been closed.
	done chan struct{}
}

func newActor(conn Conn, mailbox *mailbox) *actor {
	return &actor{
		conn:    conn,
		mailbox: mailbox,
		frames:  make(chan inbound),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (a *actor) run(ctx context.Context) {
	defer a.shutdown(ctx)

	go a.read()

	for {
		cmd, ok := a.mailbox.next()
		if !ok {
			logger.DebugKV(ctx, "All WebSocket handles released, closing connection")

			return
		}

		if a.execute(ctx, cmd) {
			return
		}
	}
}

// execute runs a single command and reports whether the actor must stop.
func (a *actor) execute(ctx context.Context, cmd command) bool {
	switch c := cmd.(type) {
	case *sendCommand:
		c.reply <- result[struct{}]{err: a.write(c.message)}
	case *sendBatchCommand:
		c.reply <- result[struct{}]{err: a.writeBatch(c.messages)}
	case *receiveCommand:
		message, err := a.receive(c)
		c.reply <- result[*Message]{value: message, err: err}
	case *closeCommand:
		c.reply <- result[struct{}]{err: a.close(ctx, c)}

		return true
	default:
		cmd.fail(fmt.Errorf("%w: unsupported command %T", errs.ErrLibrary, cmd))
	}

	return false
}

func (a *actor) write(message *Message) error {
	return errs.Library(a.conn.WriteMessage(message))
}

func (a *actor) writeBatch(messages []*Message) error {
	for _, message := range messages {
		if err := a.write(message); err != nil {
			return err
		}
	}

	return nil
}

// receive waits for the next inbound frame. It returns nil without error once the stream has ended.
func (a *actor) receive(cmd *receiveCommand) (*Message, error) {
	var timeout <-chan time.Time

	if cmd.timeout > 0 {
		timer := time.NewTimer(cmd.timeout)
		defer timer.Stop()

		timeout = timer.C
	}

	select {
	case in, ok := <-a.frames:
		if !ok {
			return nil, nil
		}

		return in.message, in.err
	case <-timeout:
		return nil, fmt.Errorf("%w: no message within %s", errs.ErrTimeout, cmd.timeout)
	case <-cmd.ctx.Done():
		return nil, cmd.ctx.Err()
	}
}

// close sends a close frame and closes the connection whether the frame was sent or not.
func (a *actor) close(ctx context.Context, cmd *closeCommand) error {
	code := CloseNormal
	if cmd.code != nil {
		code = *cmd.code
	}

	frame := &Message{Type: MessageClose}
	if cmd.reason != nil && utf8.ValidString(*cmd.reason) {
		frame = NewCloseMessage(code, cmd.reason)
	}

	sendErr := a.write(frame)

	if err := a.conn.Close(); err != nil {
		logger.DebugKV(ctx, "Failed to close WebSocket connection", "error", err)
	}

	logger.DebugKV(ctx, "WebSocket connection closed", "code", frame.CloseCode, "reason", frame.CloseReason)

	return sendErr
}

// read forwards inbound frames, one at a time, until the stream ends or the actor exits.
func (a *actor) read() {
	defer close(a.frames)

	a.conn.SetControlHandler(func(message *Message) {
		a.deliver(inbound{message: message})
	})

	for {
		message, err := a.conn.ReadMessage()
		if errors.Is(err, io.EOF) {
			return
		}

		if err != nil {
			a.deliver(inbound{err: errs.Library(err)})

			return
		}

		if !a.deliver(inbound{message: message}) {
			return
		}
	}
}

func (a *actor) deliver(in inbound) bool {
	select {
	case a.frames <- in:
		return true
	case <-a.stop:
		return false
	}
}

// shutdown rejects new commands, answers the queued ones and releases the connection.
func (a *actor) shutdown(ctx context.Context) {
	pending := a.mailbox.shutdown()
	for _, cmd := range pending {
		cmd.fail(errs.ErrDisconnected)
	}

	if len(pending) > 0 {
		logger.DebugKV(ctx, "Dropped WebSocket commands after shutdown", "count", len(pending))
	}

	close(a.stop)

	// Closing twice is harmless; the error of the second close is expected.
	_ = a.conn.Close()

	close(a.done)
}
