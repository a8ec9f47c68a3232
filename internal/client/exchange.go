package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/oshokin/nitai/internal/errs"
	"github.com/oshokin/nitai/internal/logger"
	"github.com/oshokin/nitai/internal/response"
)

type exchangeContextKey struct{}

// exchange collects what happens to one logical request across its redirects.
type exchange struct {
	allowRedirects bool
	maxRedirects   int

	mu         sync.Mutex
	history    []response.History
	localAddr  net.Addr
	remoteAddr net.Addr
}

func exchangeFromContext(ctx context.Context) *exchange {
	state, _ := ctx.Value(exchangeContextKey{}).(*exchange)

	return state
}

func (e *exchange) gotConn(info httptrace.GotConnInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.localAddr = info.Conn.LocalAddr()
	e.remoteAddr = info.Conn.RemoteAddr()
}

func (e *exchange) addrs() (net.Addr, net.Addr) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.localAddr, e.remoteAddr
}

func (e *exchange) redirects() []response.History {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]response.History(nil), e.history...)
}

// checkRedirect applies the per-request redirect policy and records each hop.
func checkRedirect(req *http.Request, via []*http.Request) error {
	state := exchangeFromContext(req.Context())
	if state == nil {
		return nil
	}

	if !state.allowRedirects {
		return http.ErrUseLastResponse
	}

	if len(via) > state.maxRedirects {
		return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, state.maxRedirects)
	}

	hop := response.History{URL: req.URL.String()}

	if req.Response != nil {
		hop.StatusCode = req.Response.StatusCode
	}

	if len(via) > 0 {
		hop.Previous = via[len(via)-1].URL.String()
	}

	state.mu.Lock()
	state.history = append(state.history, hop)
	state.mu.Unlock()

	return nil
}

// do sends req and wraps the result into a response.
func (c *ClientImpl) do(req *http.Request, allowRedirects bool, timeout time.Duration) (*response.Response, error) {
	state := &exchange{
		allowRedirects: allowRedirects,
		maxRedirects:   c.cfg.MaxRedirects,
	}

	ctx := context.WithValue(req.Context(), exchangeContextKey{}, state)
	ctx = httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{GotConn: state.gotConn})

	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	startTime := time.Now()

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		cancel()

		return nil, errs.Library(err)
	}

	// The timeout keeps running while the body is read; closing the body releases it.
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}

	localAddr, remoteAddr := state.addrs()
	options := []response.Option{
		response.WithAddrs(localAddr, remoteAddr),
		response.WithMaxBodySize(c.cfg.ParsedMaxBodySize),
	}

	if c.cfg.History {
		options = append(options, response.WithHistory(state.redirects()))
	}

	if c.cfg.TLSInfo {
		options = append(options, response.WithPeerCertificate())
	}

	result := response.New(resp, options...)

	logger.DebugKV(ctx, "Response received",
		"response_id", result.ID(),
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status", result.StatusCode(),
		"redirects", len(state.redirects()),
		"duration", time.Since(startTime))

	return result, nil
}

// cancelOnClose releases a request context once its body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	defer b.cancel()

	return b.ReadCloser.Close()
}
