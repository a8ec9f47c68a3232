package websocket

//go:generate $MOCKGEN -source=conn.go -destination=mocks/conn_mock.go

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oshokin/nitai/internal/errs"
)

// controlWriteWait bounds how long a pong reply may block.
const controlWriteWait = 5 * time.Second

// ErrUnknownMessageType indicates an attempt to send a frame of an unsupported type.
var ErrUnknownMessageType = fmt.Errorf("%w: unknown message type", errs.ErrLibrary)

// Conn is the socket owned by the actor.
// ReadMessage is only called from the reader goroutine, everything else from the actor.
type Conn interface {
	// WriteMessage writes a single frame.
	WriteMessage(msg *Message) error
	// ReadMessage blocks until the next data or close frame.
	// It returns io.EOF once the stream has ended.
	ReadMessage() (*Message, error)
	// SetControlHandler registers a callback for inbound ping and pong frames.
	SetControlHandler(handler func(msg *Message))
	// Close closes the underlying network connection.
	Close() error
}

// Handshake holds the immutable metadata of an established connection.
type Handshake struct {
	// StatusCode is the status of the upgrade response, normally 101.
	StatusCode int
	// Proto is the protocol of the upgrade response.
	Proto string
	// Header holds the upgrade response headers.
	Header http.Header
	// Protocol is the negotiated subprotocol, empty when none.
	Protocol string
	// LocalAddr and RemoteAddr are the connection endpoints.
	LocalAddr  net.Addr
	RemoteAddr net.Addr
}

type gorillaConn struct {
	conn          *websocket.Conn
	closeReceived bool
}

// NewConn adapts a gorilla connection to Conn.
func NewConn(conn *websocket.Conn) Conn {
	return &gorillaConn{conn: conn}
}

// NewHandshake collects the metadata of a gorilla connection and its upgrade response.
func NewHandshake(conn *websocket.Conn, resp *http.Response) Handshake {
	handshake := Handshake{
		Protocol:   conn.Subprotocol(),
		LocalAddr:  conn.LocalAddr(),
		RemoteAddr: conn.RemoteAddr(),
		Header:     make(http.Header),
	}

	if resp != nil {
		handshake.StatusCode = resp.StatusCode
		handshake.Proto = resp.Proto
		handshake.Header = resp.Header.Clone()
	}

	return handshake
}

func (c *gorillaConn) WriteMessage(msg *Message) error {
	switch msg.Type {
	case MessageText:
		return c.conn.WriteMessage(websocket.TextMessage, msg.Data)
	case MessageBinary:
		return c.conn.WriteMessage(websocket.BinaryMessage, msg.Data)
	case MessagePing:
		return c.conn.WriteMessage(websocket.PingMessage, msg.Data)
	case MessagePong:
		return c.conn.WriteMessage(websocket.PongMessage, msg.Data)
	case MessageClose:
		var payload []byte
		if msg.CloseCode != 0 {
			payload = websocket.FormatCloseMessage(int(msg.CloseCode), msg.CloseReason)
		}

		return c.conn.WriteMessage(websocket.CloseMessage, payload)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
	}
}

func (c *gorillaConn) ReadMessage() (*Message, error) {
	if c.closeReceived {
		return nil, io.EOF
	}

	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		return c.convertReadError(err)
	}

	switch messageType {
	case websocket.TextMessage:
		return &Message{Type: MessageText, Data: data}, nil
	case websocket.BinaryMessage:
		return &Message{Type: MessageBinary, Data: data}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageType, messageType)
	}
}

func (c *gorillaConn) convertReadError(err error) (*Message, error) {
	if errors.Is(err, net.ErrClosed) {
		return nil, io.EOF
	}

	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) || closeErr.Code == websocket.CloseAbnormalClosure {
		return nil, err
	}

	c.closeReceived = true

	if closeErr.Code == websocket.CloseNoStatusReceived {
		return &Message{Type: MessageClose}, nil
	}

	return &Message{
		Type:        MessageClose,
		CloseCode:   uint16(closeErr.Code), //nolint:gosec // Close codes fit in 16 bits on the wire.
		CloseReason: closeErr.Text,
	}, nil
}

func (c *gorillaConn) SetControlHandler(handler func(msg *Message)) {
	c.conn.SetPingHandler(func(appData string) error {
		err := c.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(controlWriteWait))

		handler(&Message{Type: MessagePing, Data: []byte(appData)})

		if err == nil || errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil
		}

		return err
	})

	c.conn.SetPongHandler(func(appData string) error {
		handler(&Message{Type: MessagePong, Data: []byte(appData)})

		return nil
	})
}

func (c *gorillaConn) Close() error {
	return c.conn.Close()
}
