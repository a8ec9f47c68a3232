package http

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// DecompressionTransport advertises the enabled encodings and decodes response bodies on the fly.
// Requests that set their own Accept-Encoding get the raw body back.
type DecompressionTransport struct {
	// next is the underlying HTTP round tripper.
	next http.RoundTripper
	// encodings are the enabled content encodings, in preference order.
	encodings []string
	// acceptEncoding is the precomputed Accept-Encoding value.
	acceptEncoding string
}

// NewDecompressionTransport wraps next. With every encoding disabled it returns next unchanged.
func NewDecompressionTransport(next http.RoundTripper, gzipEnabled, deflateEnabled, zstdEnabled bool) http.RoundTripper {
	var encodings []string

	if zstdEnabled {
		encodings = append(encodings, EncodingZstd)
	}

	if gzipEnabled {
		encodings = append(encodings, EncodingGzip)
	}

	if deflateEnabled {
		encodings = append(encodings, EncodingDeflate)
	}

	if len(encodings) == 0 {
		return next
	}

	return &DecompressionTransport{
		next:           next,
		encodings:      encodings,
		acceptEncoding: strings.Join(encodings, ", "),
	}
}

// RoundTrip executes a single HTTP transaction and decodes the response body.
func (t *DecompressionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(acceptEncodingHeader) != "" || req.Method == http.MethodHead {
		return t.next.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set(acceptEncodingHeader, t.acceptEncoding)

	resp, err := t.next.RoundTrip(clone)
	if err != nil {
		return nil, err
	}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get(contentEncodingHeader)))
	if encoding == "" || !t.isEnabled(encoding) || resp.Body == nil || resp.Body == http.NoBody {
		return resp, nil
	}

	body, err := newDecodedBody(encoding, resp.Body)
	if err != nil {
		resp.Body.Close() //nolint:errcheck,gosec // The decode error is the one that matters.

		return nil, fmt.Errorf("failed to decode %s response: %w", encoding, err)
	}

	resp.Body = body
	resp.Header.Del(contentEncodingHeader)
	resp.Header.Del(contentLengthHeader)
	resp.ContentLength = -1
	resp.Uncompressed = true

	return resp, nil
}

func (t *DecompressionTransport) isEnabled(encoding string) bool {
	for _, enabled := range t.encodings {
		if enabled == encoding {
			return true
		}
	}

	return false
}

// decodedBody reads through a decoder and closes both the decoder and the network body.
type decodedBody struct {
	reader  io.Reader
	release func()
	body    io.ReadCloser
}

func (b *decodedBody) Read(p []byte) (int, error) {
	return b.reader.Read(p)
}

func (b *decodedBody) Close() error {
	if b.release != nil {
		b.release()
	}

	return b.body.Close()
}

func newDecodedBody(encoding string, body io.ReadCloser) (io.ReadCloser, error) {
	switch encoding {
	case EncodingGzip:
		reader, err := gzip.NewReader(body)
		if err != nil {
			return nil, err
		}

		return &decodedBody{reader: reader, release: func() { _ = reader.Close() }, body: body}, nil
	case EncodingDeflate:
		return newDeflateBody(body)
	case EncodingZstd:
		decoder, err := zstd.NewReader(body)
		if err != nil {
			return nil, err
		}

		return &decodedBody{reader: decoder, release: decoder.Close, body: body}, nil
	default:
		return body, nil
	}
}

// newDeflateBody accepts both zlib-wrapped and raw deflate streams, since servers send either.
func newDeflateBody(body io.ReadCloser) (io.ReadCloser, error) {
	buffered := bufio.NewReader(body)

	header, err := buffered.Peek(2)
	if err != nil && err != io.EOF { //nolint:errorlint // bufio returns io.EOF unwrapped.
		return nil, err
	}

	if isZlibHeader(header) {
		reader, zlibErr := zlib.NewReader(buffered)
		if zlibErr != nil {
			return nil, zlibErr
		}

		return &decodedBody{reader: reader, release: func() { _ = reader.Close() }, body: body}, nil
	}

	reader := flate.NewReader(buffered)

	return &decodedBody{reader: reader, release: func() { _ = reader.Close() }, body: body}, nil
}

func isZlibHeader(header []byte) bool {
	const deflateMethod = 8

	if len(header) < 2 {
		return false
	}

	return header[0]&0x0f == deflateMethod && (uint16(header[0])<<8|uint16(header[1]))%31 == 0
}
