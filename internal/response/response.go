package response

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/oshokin/nitai/internal/errs"
	"github.com/oshokin/nitai/internal/logger"
)

// ErrBodyTooLarge indicates that a body exceeded the configured buffering limit.
var ErrBodyTooLarge = fmt.Errorf("%w: response body exceeds the size limit", errs.ErrLibrary)

// History is one hop of the redirect chain that led to a response.
type History struct {
	// StatusCode is the redirect status returned by the server.
	StatusCode int `yaml:"status"`
	// URL is the location the redirect pointed to.
	URL string `yaml:"url"`
	// Previous is the URL that answered with the redirect.
	Previous string `yaml:"previous"`
}

// Response is an HTTP response whose metadata is immutable and whose body
// can be buffered for reuse or streamed once.
type Response struct {
	// id identifies the response in logs.
	id string
	// statusCode is the numeric HTTP status.
	statusCode int
	// status is the status line, e.g. "200 OK".
	status string
	// proto is the protocol version, e.g. "HTTP/1.1".
	proto      string
	protoMajor int
	protoMinor int
	// header holds the response headers; it is never mutated after construction.
	header http.Header
	// request is the request that produced the response, after redirects.
	request *http.Request
	// url is the final URL of the response.
	url *url.URL
	// contentLength is the declared body size, or -1 when unknown.
	contentLength int64
	// localAddr and remoteAddr are the connection endpoints, when known.
	localAddr  net.Addr
	remoteAddr net.Addr
	// history is the redirect chain, oldest first.
	history []History
	// peerCertificate is the DER-encoded leaf certificate of the server, when recorded.
	peerCertificate       []byte
	recordPeerCertificate bool
	// maxBodySize limits how much of the body is buffered; 0 disables the limit.
	maxBodySize int64
	// body is the only mutable state of the response.
	body *bodySlot
}

// Option customizes a Response during construction.
type Option func(*Response)

// WithAddrs records the local and remote addresses of the connection.
func WithAddrs(localAddr, remoteAddr net.Addr) Option {
	return func(r *Response) {
		r.localAddr = localAddr
		r.remoteAddr = remoteAddr
	}
}

// WithHistory records the redirect chain.
func WithHistory(history []History) Option {
	return func(r *Response) {
		r.history = append([]History(nil), history...)
	}
}

// WithPeerCertificate records the leaf certificate presented by the server.
func WithPeerCertificate() Option {
	return func(r *Response) {
		r.recordPeerCertificate = true
	}
}

// WithMaxBodySize limits the number of bytes buffered from the body.
func WithMaxBodySize(limit int64) Option {
	return func(r *Response) {
		r.maxBodySize = limit
	}
}

// New takes over a transport response. The caller must not touch resp.Body afterwards.
func New(resp *http.Response, options ...Option) *Response {
	r := &Response{
		id:            uuid.New().String(),
		statusCode:    resp.StatusCode,
		status:        resp.Status,
		proto:         resp.Proto,
		protoMajor:    resp.ProtoMajor,
		protoMinor:    resp.ProtoMinor,
		header:        resp.Header.Clone(),
		request:       resp.Request,
		contentLength: resp.ContentLength,
	}

	if r.header == nil {
		r.header = make(http.Header)
	}

	if resp.Request != nil && resp.Request.URL != nil {
		r.url = resp.Request.URL
	}

	stream := resp.Body
	if stream == nil {
		stream = http.NoBody
	}

	r.body = newBodySlot(newStreamableBody(stream))

	for _, option := range options {
		option(r)
	}

	if r.recordPeerCertificate && resp.TLS != nil && len(resp.TLS.PeerCertificates) > 0 {
		r.peerCertificate = bytes.Clone(resp.TLS.PeerCertificates[0].Raw)
	}

	return r
}

// ID returns the identifier used to correlate log entries of this response.
func (r *Response) ID() string {
	return r.id
}

// StatusCode returns the numeric HTTP status.
func (r *Response) StatusCode() int {
	return r.statusCode
}

// Status returns the status line, e.g. "200 OK".
func (r *Response) Status() string {
	return r.status
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r.statusCode >= http.StatusOK && r.statusCode < http.StatusMultipleChoices
}

// Proto returns the protocol version, e.g. "HTTP/1.1".
func (r *Response) Proto() string {
	return r.proto
}

// Header returns a copy of the response headers.
func (r *Response) Header() http.Header {
	return r.header.Clone()
}

// URL returns the final URL of the response, after redirects.
func (r *Response) URL() *url.URL {
	if r.url == nil {
		return nil
	}

	clone := *r.url

	return &clone
}

// ContentLength returns the declared body size, or -1 when the server did not provide one.
func (r *Response) ContentLength() int64 {
	return r.contentLength
}

// LocalAddr returns the local address of the connection, or nil when unknown.
func (r *Response) LocalAddr() net.Addr {
	return r.localAddr
}

// RemoteAddr returns the remote address of the connection, or nil when unknown.
func (r *Response) RemoteAddr() net.Addr {
	return r.remoteAddr
}

// History returns the redirect chain that led to the response, oldest first.
func (r *Response) History() []History {
	return append([]History(nil), r.history...)
}

// PeerCertificate returns the DER-encoded leaf certificate of the server,
// or nil when it was not recorded.
func (r *Response) PeerCertificate() []byte {
	return bytes.Clone(r.peerCertificate)
}

// Raw returns a fresh transport response backed by the buffered body.
// It can be called any number of times.
func (r *Response) Raw(ctx context.Context) (*http.Response, error) {
	return r.materialize(ctx, false)
}

// Stream returns a transport response wrapping the network stream itself.
// It succeeds at most once and only if the body has not been buffered; afterwards
// every body access fails with errs.ErrMemoryAccess. The caller must close the body.
func (r *Response) Stream(ctx context.Context) (*http.Response, error) {
	return r.materialize(ctx, true)
}

// Close drops the body. It is safe to call any number of times,
// also after the body was consumed.
func (r *Response) Close() {
	b := r.body.evict()
	if b == nil || b.kind != bodyStreamable {
		return
	}

	if err := b.stream.Close(); err != nil {
		logger.DebugKV(context.Background(), "Failed to close response stream",
			"response_id", r.id, "error", err)
	}
}

// materialize takes the body, turns it into a fresh transport response,
// and puts a reusable copy back unless the caller asked for the stream.
func (r *Response) materialize(ctx context.Context, wantStream bool) (*http.Response, error) {
	b, err := r.body.take()
	if err != nil {
		return nil, err
	}

	if b.kind == bodyReusable {
		r.body.restore(b)

		return r.build(b.buffer), nil
	}

	if wantStream {
		r.body.release()
		logger.DebugKV(ctx, "Response body handed out for streaming", "response_id", r.id)

		built := r.build(nil)
		built.Body = b.stream
		built.ContentLength = r.contentLength

		return built, nil
	}

	buffer, err := r.drain(b.stream)
	if err != nil {
		r.body.release()

		return nil, err
	}

	if !r.body.restore(newReusableBody(buffer)) {
		logger.DebugKV(ctx, "Response closed while its body was buffered", "response_id", r.id)
	}

	logger.DebugKV(ctx, "Response body buffered",
		"response_id", r.id, "size", humanize.Bytes(uint64(len(buffer))))

	return r.build(buffer), nil
}

// drain reads the stream to the end and closes it.
func (r *Response) drain(stream io.ReadCloser) ([]byte, error) {
	defer stream.Close() //nolint:errcheck // The stream is exhausted or failed, close errors add nothing.

	var reader io.Reader = stream
	if r.maxBodySize > 0 {
		reader = io.LimitReader(stream, r.maxBodySize+1)
	}

	buffer, err := io.ReadAll(reader)
	if err != nil {
		return nil, errs.Library(fmt.Errorf("failed to read response body: %w", err))
	}

	if r.maxBodySize > 0 && int64(len(buffer)) > r.maxBodySize {
		return nil, fmt.Errorf("%w: limit is %s", ErrBodyTooLarge, humanize.Bytes(uint64(r.maxBodySize)))
	}

	return buffer, nil
}

// build creates a transport response with the immutable metadata and a reader over buffer.
// The buffer is shared, read-only.
func (r *Response) build(buffer []byte) *http.Response {
	return &http.Response{
		Status:        r.status,
		StatusCode:    r.statusCode,
		Proto:         r.proto,
		ProtoMajor:    r.protoMajor,
		ProtoMinor:    r.protoMinor,
		Header:        r.header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(buffer)),
		ContentLength: int64(len(buffer)),
		Request:       r.request,
	}
}
