package websocket

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"

	"github.com/oshokin/nitai/internal/errs"
)

// MessageType identifies the kind of a WebSocket frame.
type MessageType uint8

// Message types.
const (
	// MessageText is a UTF-8 text frame.
	MessageText MessageType = iota + 1
	// MessageBinary is a binary frame.
	MessageBinary
	// MessagePing is a ping control frame.
	MessagePing
	// MessagePong is a pong control frame.
	MessagePong
	// MessageClose is a close control frame.
	MessageClose
)

// Close codes used by this package.
const (
	// CloseNormal is the status code of a normal closure.
	CloseNormal uint16 = 1000
	// defaultCloseReason is used by NewCloseMessage when no valid reason is given.
	defaultCloseReason = "Goodbye"
)

//nolint:gochecknoglobals // Stateless, concurrency-safe codec configuration.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// String returns the name of the message type.
func (t MessageType) String() string {
	switch t {
	case MessageText:
		return "text"
	case MessageBinary:
		return "binary"
	case MessagePing:
		return "ping"
	case MessagePong:
		return "pong"
	case MessageClose:
		return "close"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Message is a single WebSocket frame.
type Message struct {
	// Type is the frame type.
	Type MessageType
	// Data is the payload of text, binary, ping and pong frames.
	Data []byte
	// CloseCode is the status code of a close frame; 0 means the frame carried no status.
	CloseCode uint16
	// CloseReason is the reason of a close frame.
	CloseReason string
}

// NewTextMessage creates a text frame.
func NewTextMessage(text string) *Message {
	return &Message{Type: MessageText, Data: []byte(text)}
}

// NewBinaryMessage creates a binary frame.
func NewBinaryMessage(data []byte) *Message {
	return &Message{Type: MessageBinary, Data: bytes.Clone(data)}
}

// NewPingMessage creates a ping frame.
func NewPingMessage(data []byte) *Message {
	return &Message{Type: MessagePing, Data: bytes.Clone(data)}
}

// NewPongMessage creates a pong frame.
func NewPongMessage(data []byte) *Message {
	return &Message{Type: MessagePong, Data: bytes.Clone(data)}
}

// NewCloseMessage creates a close frame. A missing or non UTF-8 reason is replaced with "Goodbye".
func NewCloseMessage(code uint16, reason *string) *Message {
	text := defaultCloseReason
	if reason != nil && utf8.ValidString(*reason) {
		text = *reason
	}

	return &Message{Type: MessageClose, CloseCode: code, CloseReason: text}
}

// NewTextJSON creates a text frame holding v encoded as JSON.
func NewTextJSON(v any) (*Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errs.Decode(err)
	}

	return &Message{Type: MessageText, Data: data}, nil
}

// NewBinaryJSON creates a binary frame holding v encoded as JSON.
func NewBinaryJSON(v any) (*Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errs.Decode(err)
	}

	return &Message{Type: MessageBinary, Data: data}, nil
}

// Text returns the payload of a text frame.
func (m *Message) Text() (string, bool) {
	if m.Type != MessageText {
		return "", false
	}

	return string(m.Data), true
}

// Binary returns the payload of a binary frame.
func (m *Message) Binary() ([]byte, bool) {
	if m.Type != MessageBinary {
		return nil, false
	}

	return m.Data, true
}

// Ping returns the payload of a ping frame.
func (m *Message) Ping() ([]byte, bool) {
	if m.Type != MessagePing {
		return nil, false
	}

	return m.Data, true
}

// Pong returns the payload of a pong frame.
func (m *Message) Pong() ([]byte, bool) {
	if m.Type != MessagePong {
		return nil, false
	}

	return m.Data, true
}

// CloseFrame returns the status code and reason of a close frame that carried a status.
func (m *Message) CloseFrame() (uint16, string, bool) {
	if m.Type != MessageClose || m.CloseCode == 0 {
		return 0, "", false
	}

	return m.CloseCode, m.CloseReason, true
}

// JSON decodes the payload of a text or binary frame.
func (m *Message) JSON() (any, error) {
	if m.Type != MessageText && m.Type != MessageBinary {
		return nil, fmt.Errorf("%w: %s frame has no JSON payload", errs.ErrDecode, m.Type)
	}

	var value any
	if err := json.Unmarshal(m.Data, &value); err != nil {
		return nil, errs.Decode(err)
	}

	return value, nil
}

// String returns a short description of the frame for logs.
func (m *Message) String() string {
	if m.Type == MessageClose {
		return fmt.Sprintf("close(%d, %q)", m.CloseCode, m.CloseReason)
	}

	if m.Type == MessageText {
		return fmt.Sprintf("text(%q)", m.Data)
	}

	return fmt.Sprintf("%s(%d bytes)", m.Type, len(m.Data))
}
