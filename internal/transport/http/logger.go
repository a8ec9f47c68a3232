package http

import (
	"errors"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/nitai/internal/config"
	"github.com/oshokin/nitai/internal/logger"
	"github.com/oshokin/nitai/internal/utils"
)

// LogTransport is a custom http.RoundTripper that logs HTTP requests and responses at debug level.
type LogTransport struct {
	// next is the underlying HTTP round tripper.
	next http.RoundTripper
	// maxLogLength is the maximum length of logged request/response data.
	maxLogLength uint64
}

// Static error definitions for better error handling.
var (
	// ErrNilRequest indicates that the HTTP request is nil.
	ErrNilRequest = errors.New("request is nil")
)

// NewLogTransport creates and returns a new instance of LogTransport.
// If maxLogLength is 0, it defaults to config.DefaultMaxLogLength.
func NewLogTransport(next http.RoundTripper, maxLogLength uint64) http.RoundTripper {
	if maxLogLength == 0 {
		maxLogLength = config.DefaultMaxLogLength
	}

	return &LogTransport{
		next:         next,
		maxLogLength: maxLogLength,
	}
}

// RoundTrip executes a single HTTP transaction and logs the request and response.
func (t *LogTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	if !logger.IsDebugLevel() {
		return t.next.RoundTrip(req)
	}

	ctx := req.Context()
	requestDump := t.dumpRequest(req)
	startTime := time.Now()

	resp, err := t.next.RoundTrip(req)

	duration := time.Since(startTime)

	if err != nil {
		logger.DebugKV(ctx, "Request failed",
			"method", req.Method, "url", req.URL.Redacted(), "duration", duration, "error", err)

		return nil, err
	}

	logger.DebugKV(ctx, "Request completed",
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"duration", duration,
		"request", requestDump,
		"response", t.dumpResponse(resp))

	return resp, nil
}

func (t *LogTransport) dumpRequest(req *http.Request) string {
	// Bodies that cannot be replayed are left alone.
	withBody := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil

	dump, err := httputil.DumpRequestOut(req, withBody)
	if err != nil {
		return err.Error()
	}

	return t.truncate(dump)
}

// dumpResponse includes the body only for small text bodies, so streamed downloads stay streamed.
func (t *LogTransport) dumpResponse(resp *http.Response) string {
	withBody := utils.IsTextContentType(resp.Header.Get(contentTypeHeader)) &&
		resp.ContentLength >= 0 &&
		uint64(resp.ContentLength) <= t.maxLogLength

	dump, err := httputil.DumpResponse(resp, withBody)
	if err != nil {
		return err.Error()
	}

	return t.truncate(dump)
}

func (t *LogTransport) truncate(data []byte) string {
	if uint64(len(data)) > t.maxLogLength {
		return string(data[:t.maxLogLength]) + "... [truncated, " + humanize.Bytes(uint64(len(data))) + " total]"
	}

	return string(data)
}
