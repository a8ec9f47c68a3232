package fetch

import (
	"time"

	"github.com/oshokin/nitai/internal/client"
	"github.com/oshokin/nitai/internal/response"
)

// OutputFormat selects how a response body is rendered.
type OutputFormat uint8

const (
	// FormatText prints the body decoded as text.
	FormatText OutputFormat = iota
	// FormatJSON prints the body as indented JSON.
	FormatJSON
	// FormatQuery prints the result of a gjson path evaluated against the body.
	FormatQuery
	// FormatMeta prints the response metadata as YAML and leaves the body unread.
	FormatMeta
)

// String returns the name of the format.
func (f OutputFormat) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatQuery:
		return "query"
	case FormatMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// Target is a single request to send.
type Target struct {
	// Method is the HTTP method.
	Method string
	// URL is the request URL.
	URL string
	// Options customize the request.
	Options *client.RequestOptions
}

// RenderOptions control what happens to the responses of a fetch.
type RenderOptions struct {
	// Format selects the rendering of each body.
	Format OutputFormat
	// Query is the gjson path used by FormatQuery.
	Query string
	// OutputPath saves bodies into a file instead of printing them.
	// With several targets or an existing directory it names a directory.
	OutputPath string
	// FailOnErrorStatus counts 4xx and 5xx answers as failures.
	FailOnErrorStatus bool
}

// Session describes a scripted WebSocket conversation.
type Session struct {
	// URL is the ws, wss, http or https URL to connect to.
	URL string
	// Options customize the handshake.
	Options *client.WebSocketOptions
	// Messages are sent as text frames right after the handshake, in order.
	Messages []string
	// Receive is the number of frames to wait for after sending.
	Receive int
	// Timeout bounds the wait for each received frame. Zero waits indefinitely.
	Timeout time.Duration
}

// Metadata is the YAML view of a response printed by FormatMeta.
type Metadata struct {
	ID              string              `yaml:"id"`
	URL             string              `yaml:"url"`
	StatusCode      int                 `yaml:"status_code"`
	Status          string              `yaml:"status"`
	Proto           string              `yaml:"proto"`
	ContentLength   int64               `yaml:"content_length"`
	LocalAddr       string              `yaml:"local_addr,omitempty"`
	RemoteAddr      string              `yaml:"remote_addr,omitempty"`
	Header          map[string][]string `yaml:"header"`
	History         []response.History  `yaml:"history,omitempty"`
	PeerCertificate string              `yaml:"peer_certificate_sha256,omitempty"`
}

// Statistics tracks the outcome of a session.
type Statistics struct {
	// StartTime is when the session began.
	StartTime time.Time
	// EndTime is when the session completed.
	EndTime time.Time
	// RequestsTotal is the number of requests attempted.
	RequestsTotal int64
	// RequestsSucceeded is the number of requests that got an acceptable answer.
	RequestsSucceeded int64
	// RequestsFailed is the number of requests that failed.
	RequestsFailed int64
	// ErrorStatuses is the number of 4xx and 5xx answers.
	ErrorStatuses int64
	// BytesReceived is the total size of received bodies and frames.
	BytesReceived int64
	// FilesSaved is the number of bodies written to disk.
	FilesSaved int64
	// MessagesSent is the number of WebSocket frames sent.
	MessagesSent int64
	// MessagesReceived is the number of WebSocket frames received.
	MessagesReceived int64
	// Errors is a list of all errors encountered during the session.
	Errors []RequestError
}

// RequestError represents a single failed request.
type RequestError struct {
	// Method is the HTTP method, or "WS" for WebSocket sessions.
	Method string
	// URL is the target of the request.
	URL string
	// Phase indicates when the error occurred.
	Phase string
	// Code is the stable error code of the failure.
	Code string
	// ErrorMessage is the error message.
	ErrorMessage string
}
