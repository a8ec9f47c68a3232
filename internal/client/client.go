package client

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oshokin/nitai/internal/config"
	"github.com/oshokin/nitai/internal/errs"
	"github.com/oshokin/nitai/internal/resolver"
	"github.com/oshokin/nitai/internal/response"
	http_transport "github.com/oshokin/nitai/internal/transport/http"
	"github.com/oshokin/nitai/internal/utils"
	nitai_websocket "github.com/oshokin/nitai/internal/websocket"
)

// Client executes HTTP requests and opens WebSocket connections.
type Client interface {
	// Do sends a prepared request.
	Do(req *http.Request) (*response.Response, error)
	// Request builds and sends a request with the given method.
	Request(ctx context.Context, method, rawURL string, opts *RequestOptions) (*response.Response, error)
	// Get sends a GET request.
	Get(ctx context.Context, rawURL string, opts *RequestOptions) (*response.Response, error)
	// Head sends a HEAD request.
	Head(ctx context.Context, rawURL string, opts *RequestOptions) (*response.Response, error)
	// Options sends an OPTIONS request.
	Options(ctx context.Context, rawURL string, opts *RequestOptions) (*response.Response, error)
	// Post sends a POST request.
	Post(ctx context.Context, rawURL string, opts *RequestOptions) (*response.Response, error)
	// Put sends a PUT request.
	Put(ctx context.Context, rawURL string, opts *RequestOptions) (*response.Response, error)
	// Patch sends a PATCH request.
	Patch(ctx context.Context, rawURL string, opts *RequestOptions) (*response.Response, error)
	// Delete sends a DELETE request.
	Delete(ctx context.Context, rawURL string, opts *RequestOptions) (*response.Response, error)
	// WebSocket opens a WebSocket connection.
	WebSocket(ctx context.Context, rawURL string, opts *WebSocketOptions) (*nitai_websocket.WebSocket, error)
}

// ClientImpl implements the Client interface.
type ClientImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// httpClient sends HTTP requests.
	httpClient *http.Client
	// dialer opens WebSocket connections.
	dialer *websocket.Dialer
	// headerProvider supplies the default headers of WebSocket handshakes.
	headerProvider utils.HeaderProvider
}

const (
	// defaultKeepAlive is the TCP keep-alive period of outgoing connections.
	defaultKeepAlive = 30 * time.Second
	// defaultTLSHandshakeTimeout bounds the TLS handshake.
	defaultTLSHandshakeTimeout = 10 * time.Second
	// defaultIdleConnTimeout is how long an idle connection stays in the pool.
	defaultIdleConnTimeout = 90 * time.Second
	// defaultMaxIdleConns limits the idle connection pool.
	defaultMaxIdleConns = 100
)

// NewClient creates a client from a validated configuration.
// A nil resolver uses the system resolver without caching.
func NewClient(cfg *config.Config, dnsResolver *resolver.Resolver) (Client, error) {
	tlsConfig, err := newTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	netDialer := &net.Dialer{
		Timeout:   cfg.ParsedConnectTimeout,
		KeepAlive: defaultKeepAlive,
	}

	dialContext := netDialer.DialContext
	if dnsResolver != nil {
		dialContext = dnsResolver.DialContext(netDialer)
	}

	proxy := http.ProxyFromEnvironment
	if cfg.ParsedProxy != nil {
		proxy = http.ProxyURL(cfg.ParsedProxy)
	}

	baseTransport := &http.Transport{
		Proxy:                 proxy,
		DialContext:           dialContext,
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ParsedReadTimeout,
		IdleConnTimeout:       defaultIdleConnTimeout,
		MaxIdleConns:          defaultMaxIdleConns,
		ForceAttemptHTTP2:     true,
		// Decompression is decided by DecompressionTransport alone.
		DisableCompression: true,
	}

	var jar http.CookieJar

	if cfg.CookieStore {
		if jar, err = cookiejar.New(nil); err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
	}

	headerProvider := utils.NewStaticHeaderProvider(cfg.UserAgent, cfg.Headers)

	httpClient := &http.Client{
		Transport: http_transport.NewHeaderInjector(
			http_transport.NewLogTransport(
				http_transport.NewDecompressionTransport(baseTransport, cfg.Gzip, cfg.Deflate, cfg.Zstd),
				cfg.ParsedMaxLogLength),
			headerProvider),
		CheckRedirect: checkRedirect,
		Jar:           jar,
		Timeout:       cfg.ParsedTimeout,
	}

	dialer := &websocket.Dialer{
		NetDialContext:   dialContext,
		Proxy:            proxy,
		TLSClientConfig:  tlsConfig,
		HandshakeTimeout: cfg.WebSocket.ParsedHandshakeTimeout,
		ReadBufferSize:   cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:  cfg.WebSocket.WriteBufferSize,
		Subprotocols:     cfg.WebSocket.Protocols,
		Jar:              jar,
	}

	return &ClientImpl{
		cfg:            cfg,
		httpClient:     httpClient,
		dialer:         dialer,
		headerProvider: headerProvider,
	}, nil
}

func newTLSConfig(cfg *config.Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		//nolint:gosec // Verification can be disabled explicitly in the configuration.
		InsecureSkipVerify: !cfg.Verify,
	}

	if cfg.CABundle == "" {
		return tlsConfig, nil
	}

	pem, err := os.ReadFile(filepath.Clean(cfg.CABundle))
	if err != nil {
		return nil, errs.IO(fmt.Errorf("failed to read CA bundle: %w", err))
	}

	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}

	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCABundle, cfg.CABundle)
	}

	tlsConfig.RootCAs = pool

	return tlsConfig, nil
}

// Do sends a prepared request, following the configured redirect policy.
func (c *ClientImpl) Do(req *http.Request) (*response.Response, error) {
	return c.do(req, c.cfg.AllowRedirects, 0)
}

// Request builds and sends a request with the given method.
func (c *ClientImpl) Request(
	ctx context.Context,
	method, rawURL string,
	opts *RequestOptions,
) (*response.Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	req, err := newRequest(ctx, method, rawURL, opts)
	if err != nil {
		return nil, err
	}

	allowRedirects := c.cfg.AllowRedirects
	if opts.AllowRedirects != nil {
		allowRedirects = *opts.AllowRedirects
	}

	return c.do(req, allowRedirects, opts.Timeout)
}

// Get sends a GET request.
func (c *ClientImpl) Get(ctx context.Context, rawURL string, opts *RequestOptions) (*response.Response, error) {
	return c.Request(ctx, http.MethodGet, rawURL, opts)
}

// Head sends a HEAD request.
func (c *ClientImpl) Head(ctx context.Context, rawURL string, opts *RequestOptions) (*response.Response, error) {
	return c.Request(ctx, http.MethodHead, rawURL, opts)
}

// Options sends an OPTIONS request.
func (c *ClientImpl) Options(ctx context.Context, rawURL string, opts *RequestOptions) (*response.Response, error) {
	return c.Request(ctx, http.MethodOptions, rawURL, opts)
}

// Post sends a POST request.
func (c *ClientImpl) Post(ctx context.Context, rawURL string, opts *RequestOptions) (*response.Response, error) {
	return c.Request(ctx, http.MethodPost, rawURL, opts)
}

// Put sends a PUT request.
func (c *ClientImpl) Put(ctx context.Context, rawURL string, opts *RequestOptions) (*response.Response, error) {
	return c.Request(ctx, http.MethodPut, rawURL, opts)
}

// Patch sends a PATCH request.
func (c *ClientImpl) Patch(ctx context.Context, rawURL string, opts *RequestOptions) (*response.Response, error) {
	return c.Request(ctx, http.MethodPatch, rawURL, opts)
}

// Delete sends a DELETE request.
func (c *ClientImpl) Delete(ctx context.Context, rawURL string, opts *RequestOptions) (*response.Response, error) {
	return c.Request(ctx, http.MethodDelete, rawURL, opts)
}
