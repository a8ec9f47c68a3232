package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/oshokin/nitai/internal/errs"
	"github.com/oshokin/nitai/internal/logger"
	http_transport "github.com/oshokin/nitai/internal/transport/http"
	nitai_websocket "github.com/oshokin/nitai/internal/websocket"
)

// WebSocketOptions customizes a WebSocket handshake. The zero value uses the configuration.
type WebSocketOptions struct {
	// Header holds additional handshake headers.
	Header http.Header
	// Query is merged into the URL query.
	Query url.Values
	// Protocols overrides the configured subprotocols.
	Protocols []string
	// BasicAuth sets HTTP basic authentication on the handshake.
	BasicAuth *BasicAuth
	// BearerToken sets a bearer Authorization header on the handshake.
	BearerToken string
	// ReadBufferSize and WriteBufferSize override the configured buffer sizes.
	ReadBufferSize  int
	WriteBufferSize int
	// MaxMessageSize overrides the configured inbound message limit.
	MaxMessageSize int64
}

// WebSocket performs the opening handshake and hands the connection to a new actor.
// http and https URLs are upgraded to ws and wss.
func (c *ClientImpl) WebSocket(
	ctx context.Context,
	rawURL string,
	opts *WebSocketOptions,
) (*nitai_websocket.WebSocket, error) {
	if opts == nil {
		opts = &WebSocketOptions{}
	}

	target, err := parseURL(rawURL, "ws", "wss", "http", "https")
	if err != nil {
		return nil, err
	}

	switch target.Scheme {
	case "http":
		target.Scheme = "ws"
	case "https":
		target.Scheme = "wss"
	}

	if len(opts.Query) > 0 {
		query := target.Query()

		for key, values := range opts.Query {
			for _, value := range values {
				query.Add(key, value)
			}
		}

		target.RawQuery = query.Encode()
	}

	header := c.handshakeHeader(opts)

	dialer := *c.dialer
	if opts.Protocols != nil {
		dialer.Subprotocols = opts.Protocols
	}

	if opts.ReadBufferSize > 0 {
		dialer.ReadBufferSize = opts.ReadBufferSize
	}

	if opts.WriteBufferSize > 0 {
		dialer.WriteBufferSize = opts.WriteBufferSize
	}

	conn, resp, err := dialer.DialContext(ctx, target.String(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close() //nolint:errcheck,gosec // The handshake body is never needed.
	}

	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrHandshakeFailed, resp.Status, err)
		}

		return nil, errs.Library(err)
	}

	maxMessageSize := c.cfg.WebSocket.ParsedMaxMessageSize
	if opts.MaxMessageSize > 0 {
		maxMessageSize = opts.MaxMessageSize
	}

	if maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}

	logger.DebugKV(ctx, "WebSocket handshake completed",
		"url", target.Redacted(), "protocol", conn.Subprotocol())

	return nitai_websocket.New(ctx, nitai_websocket.NewConn(conn), nitai_websocket.NewHandshake(conn, resp)), nil
}

func (c *ClientImpl) handshakeHeader(opts *WebSocketOptions) http.Header {
	header := http_transport.MergeDefaultHeaders(opts.Header, c.headerProvider)

	if opts.BasicAuth != nil {
		auth := &http.Request{Header: make(http.Header)}
		auth.SetBasicAuth(opts.BasicAuth.Username, opts.BasicAuth.Password)
		header.Set(authorizationHeader, auth.Header.Get(authorizationHeader))
	}

	if opts.BearerToken != "" {
		header.Set(authorizationHeader, "Bearer "+opts.BearerToken)
	}

	return header
}
