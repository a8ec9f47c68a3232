package websocket

import (
	"context"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/nitai/internal/logger"
)

// WebSocket is a handle to a connection served by a single actor goroutine.
// It is safe for concurrent use; Clone returns another handle to the same connection.
type WebSocket struct {
	// id identifies the connection in logs.
	id        string
	handshake Handshake
	sender    *sender
}

// sender is shared by every clone of a handle. When it becomes unreachable
// the mailbox stops accepting commands and the actor shuts down.
type sender struct {
	mailbox *mailbox
	// done is closed once the actor has released the connection.
	done <-chan struct{}
}

// New starts the actor serving conn and returns the first handle to it.
func New(ctx context.Context, conn Conn, handshake Handshake) *WebSocket {
	id := uuid.New().String()
	ctx = logger.WithKV(context.WithoutCancel(ctx), "websocket_id", id)

	box := newMailbox()
	a := newActor(conn, box)

	s := &sender{mailbox: box, done: a.done}
	runtime.AddCleanup(s, func(m *mailbox) { m.close() }, box)

	handshake.Header = handshake.Header.Clone()
	if handshake.Header == nil {
		handshake.Header = make(http.Header)
	}

	go a.run(ctx)

	logger.DebugKV(ctx, "WebSocket connection established",
		"remote_addr", handshake.RemoteAddr, "protocol", handshake.Protocol)

	return &WebSocket{id: id, handshake: handshake, sender: s}
}

// Clone returns another handle to the same connection.
func (ws *WebSocket) Clone() *WebSocket {
	clone := *ws

	return &clone
}

// ID returns the identifier used to correlate log entries of this connection.
func (ws *WebSocket) ID() string {
	return ws.id
}

// StatusCode returns the status of the upgrade response.
func (ws *WebSocket) StatusCode() int {
	return ws.handshake.StatusCode
}

// Proto returns the protocol of the upgrade response.
func (ws *WebSocket) Proto() string {
	return ws.handshake.Proto
}

// Header returns a copy of the upgrade response headers.
func (ws *WebSocket) Header() http.Header {
	return ws.handshake.Header.Clone()
}

// Protocol returns the negotiated subprotocol, or an empty string.
func (ws *WebSocket) Protocol() string {
	return ws.handshake.Protocol
}

// LocalAddr returns the local address of the connection.
func (ws *WebSocket) LocalAddr() net.Addr {
	return ws.handshake.LocalAddr
}

// RemoteAddr returns the remote address of the connection.
func (ws *WebSocket) RemoteAddr() net.Addr {
	return ws.handshake.RemoteAddr
}

// Send writes one frame.
func (ws *WebSocket) Send(ctx context.Context, message *Message) error {
	_, err := request(ctx, ws.sender.mailbox, func(reply chan<- result[struct{}]) command {
		return &sendCommand{message: message, reply: reply}
	})

	return err
}

// SendAll writes the frames in order as one command, so no other frame is interleaved.
// An empty batch is a no-op.
func (ws *WebSocket) SendAll(ctx context.Context, messages []*Message) error {
	if len(messages) == 0 {
		return nil
	}

	batch := append([]*Message(nil), messages...)

	_, err := request(ctx, ws.sender.mailbox, func(reply chan<- result[struct{}]) command {
		return &sendBatchCommand{messages: batch, reply: reply}
	})

	return err
}

// Recv returns the next inbound frame. A zero timeout waits until a frame arrives
// or ctx is done; otherwise the wait fails with errs.ErrTimeout after timeout.
// A frame arriving after a timed out wait is kept for the next Recv.
// Recv returns nil without error once the stream has ended.
func (ws *WebSocket) Recv(ctx context.Context, timeout time.Duration) (*Message, error) {
	return request(ctx, ws.sender.mailbox, func(reply chan<- result[*Message]) command {
		return &receiveCommand{ctx: ctx, timeout: timeout, reply: reply}
	})
}

// Close sends a close frame and shuts the connection down. The code defaults to 1000.
// Without a valid UTF-8 reason the frame carries no status at all.
// Every command issued afterwards fails with errs.ErrDisconnected.
func (ws *WebSocket) Close(ctx context.Context, code *uint16, reason *string) error {
	_, err := request(ctx, ws.sender.mailbox, func(reply chan<- result[struct{}]) command {
		return &closeCommand{code: code, reason: reason, reply: reply}
	})

	return err
}

// Done returns a channel closed once the connection has been released.
func (ws *WebSocket) Done() <-chan struct{} {
	return ws.sender.done
}
