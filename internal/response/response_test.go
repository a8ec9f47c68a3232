package response

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/nitai/internal/errs"
)

// countingBody is a one-shot body that records how often it was read and closed.
type countingBody struct {
	reader io.Reader
	reads  atomic.Int64
	closes atomic.Int64
}

func newCountingBody(content string) *countingBody {
	return &countingBody{reader: strings.NewReader(content)}
}

func (b *countingBody) Read(p []byte) (int, error) {
	b.reads.Add(1)

	return b.reader.Read(p)
}

func (b *countingBody) Close() error {
	b.closes.Add(1)

	return nil
}

// failingBody fails every read.
type failingBody struct{}

func (failingBody) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
func (failingBody) Close() error             { return nil }

func newTestResponse(body io.ReadCloser, contentType string) *http.Response {
	header := make(http.Header)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          body,
		ContentLength: -1,
	}
}

// TestResponse_RepeatedBufferedReads tests that buffered reads return identical content
// without draining the network stream a second time.
func TestResponse_RepeatedBufferedReads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	body := newCountingBody("hello")
	r := New(newTestResponse(body, "text/plain"))

	text, err := r.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	readsAfterFirstAccess := body.reads.Load()

	raw, err := r.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), raw)

	for range 3 {
		text, err = r.Text(ctx)
		require.NoError(t, err)
		assert.Equal(t, "hello", text)
	}

	assert.Equal(t, readsAfterFirstAccess, body.reads.Load(), "the stream must be drained only once")
	assert.Equal(t, int64(1), body.closes.Load())
}

// TestResponse_BytesReturnsPrivateCopy tests that mutating returned bytes does not affect the cache.
func TestResponse_BytesReturnsPrivateCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := New(newTestResponse(newCountingBody("hello"), ""))

	first, err := r.Bytes(ctx)
	require.NoError(t, err)

	first[0] = 'J'

	second, err := r.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), second)
}

// TestResponse_StreamOnce tests that the streaming accessor drains the body exactly once.
func TestResponse_StreamOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := New(newTestResponse(newCountingBody("hello"), ""))

	streamed, err := r.Stream(ctx)
	require.NoError(t, err)

	content, err := io.ReadAll(streamed.Body)
	require.NoError(t, err)
	require.NoError(t, streamed.Body.Close())
	assert.Equal(t, "hello", string(content))

	_, err = r.Text(ctx)
	require.ErrorIs(t, err, errs.ErrMemoryAccess)

	_, err = r.Stream(ctx)
	require.ErrorIs(t, err, errs.ErrMemoryAccess)

	_, err = r.Bytes(ctx)
	require.ErrorIs(t, err, errs.ErrMemoryAccess)
}

// TestResponse_StreamAfterBuffering tests that a buffered body can still be read as a stream.
func TestResponse_StreamAfterBuffering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := New(newTestResponse(newCountingBody("hello"), ""))

	_, err := r.Bytes(ctx)
	require.NoError(t, err)

	for range 2 {
		streamed, streamErr := r.Stream(ctx)
		require.NoError(t, streamErr)

		content, readErr := io.ReadAll(streamed.Body)
		require.NoError(t, readErr)
		assert.Equal(t, "hello", string(content))
	}
}

// TestResponse_Close tests that Close evicts the body and can be repeated.
func TestResponse_Close(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		before func(*testing.T, *Response)
	}{
		{
			name:   "close fresh response",
			before: func(*testing.T, *Response) {},
		},
		{
			name: "close buffered response",
			before: func(t *testing.T, r *Response) {
				t.Helper()

				_, err := r.Text(context.Background())
				require.NoError(t, err)
			},
		},
		{
			name: "close streamed response",
			before: func(t *testing.T, r *Response) {
				t.Helper()

				_, err := r.Stream(context.Background())
				require.NoError(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			r := New(newTestResponse(newCountingBody("hello"), ""))
			tt.before(t, r)

			r.Close()
			r.Close()

			_, err := r.Text(ctx)
			require.ErrorIs(t, err, errs.ErrMemoryAccess)

			_, err = r.JSON(ctx)
			require.ErrorIs(t, err, errs.ErrMemoryAccess)

			_, err = r.Stream(ctx)
			require.ErrorIs(t, err, errs.ErrMemoryAccess)

			// Metadata survives the body.
			assert.Equal(t, http.StatusOK, r.StatusCode())
		})
	}
}

// TestResponse_CloseReleasesStream tests that closing an unread response closes the network stream.
func TestResponse_CloseReleasesStream(t *testing.T) {
	t.Parallel()

	body := newCountingBody("hello")
	r := New(newTestResponse(body, ""))

	r.Close()

	assert.Equal(t, int64(1), body.closes.Load())
	assert.Equal(t, int64(0), body.reads.Load())
}

// TestResponse_ConcurrentAccessFailsFast tests that a body held by one reader
// is rejected for others instead of blocking them.
func TestResponse_ConcurrentAccessFailsFast(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pipeReader, pipeWriter := io.Pipe()
	r := New(newTestResponse(pipeReader, ""))

	type result struct {
		content []byte
		err     error
	}

	done := make(chan result, 1)

	go func() {
		content, err := r.Bytes(ctx)
		done <- result{content: content, err: err}
	}()

	// Wait until the first reader owns the body and is blocked in the drain.
	require.Eventually(t, func() bool {
		return r.body.current.Load() == bodyInUse
	}, defaultWait, defaultTick)

	_, err := r.Text(ctx)
	require.ErrorIs(t, err, errs.ErrMemoryAccess)

	_, err = r.Stream(ctx)
	require.ErrorIs(t, err, errs.ErrMemoryAccess)

	_, err = pipeWriter.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, pipeWriter.Close())

	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, []byte("hello"), first.content)

	// Once the holder is done, the buffered copy is available again.
	text, err := r.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

// TestResponse_ConcurrentReaders tests that every concurrent reader either gets the full body
// or a memory access error, and that at least one of them succeeds.
func TestResponse_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	const readers = 32

	ctx := context.Background()
	content := strings.Repeat("nitai", 1024)
	r := New(newTestResponse(newCountingBody(content), ""))

	var (
		wg        sync.WaitGroup
		successes atomic.Int64
		start     = make(chan struct{})
	)

	for range readers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			<-start

			raw, err := r.Bytes(ctx)
			if err != nil {
				assert.ErrorIs(t, err, errs.ErrMemoryAccess)

				return
			}

			assert.Equal(t, content, string(raw))
			successes.Add(1)
		}()
	}

	close(start)
	wg.Wait()

	assert.Positive(t, successes.Load())

	raw, err := r.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, content, string(raw))
}

// TestResponse_CloseDuringDrain tests that a drain finishing after Close does not resurrect the body.
func TestResponse_CloseDuringDrain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pipeReader, pipeWriter := io.Pipe()
	r := New(newTestResponse(pipeReader, ""))

	done := make(chan error, 1)

	go func() {
		_, err := r.Bytes(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return r.body.current.Load() == bodyInUse
	}, defaultWait, defaultTick)

	r.Close()

	_, err := pipeWriter.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, pipeWriter.Close())

	// The reader that owned the body still gets its bytes.
	require.NoError(t, <-done)

	_, err = r.Bytes(ctx)
	require.ErrorIs(t, err, errs.ErrMemoryAccess)
}

// TestResponse_DrainFailure tests that a failing stream surfaces as a library error.
func TestResponse_DrainFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := New(newTestResponse(failingBody{}, ""))

	_, err := r.Text(ctx)
	require.ErrorIs(t, err, errs.ErrLibrary)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// The stream is gone after a failed drain.
	_, err = r.Text(ctx)
	require.ErrorIs(t, err, errs.ErrMemoryAccess)
}

// TestResponse_MaxBodySize tests the buffering limit.
func TestResponse_MaxBodySize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		limit       int64
		expectError bool
	}{
		{name: "no limit", content: "hello world", limit: 0},
		{name: "below limit", content: "hello", limit: 10},
		{name: "exactly at limit", content: "hello", limit: 5},
		{name: "above limit", content: "hello world", limit: 5, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := New(newTestResponse(newCountingBody(tt.content), ""), WithMaxBodySize(tt.limit))

			text, err := r.Text(context.Background())
			if tt.expectError {
				require.ErrorIs(t, err, ErrBodyTooLarge)
				require.ErrorIs(t, err, errs.ErrLibrary)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.content, text)
		})
	}
}

// TestResponse_Metadata tests the metadata accessors.
func TestResponse_Metadata(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Test", "test-value")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))
	defer server.Close()

	request, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+"/items", http.NoBody)
	require.NoError(t, err)

	httpResponse, err := server.Client().Do(request)
	require.NoError(t, err)

	remote := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}
	history := []History{{StatusCode: http.StatusFound, URL: server.URL + "/items", Previous: server.URL + "/old"}}

	r := New(httpResponse, WithAddrs(nil, remote), WithHistory(history), WithPeerCertificate())
	defer r.Close()

	assert.NotEmpty(t, r.ID())
	assert.Equal(t, http.StatusCreated, r.StatusCode())
	assert.Equal(t, "201 Created", r.Status())
	assert.True(t, r.OK())
	assert.Equal(t, "HTTP/1.1", r.Proto())
	assert.Equal(t, "test-value", r.Header().Get("X-Test"))
	assert.Equal(t, "/items", r.URL().Path)
	assert.Equal(t, int64(len("created")), r.ContentLength())
	assert.Nil(t, r.LocalAddr())
	assert.Equal(t, remote, r.RemoteAddr())
	assert.Equal(t, history, r.History())
	assert.Nil(t, r.PeerCertificate(), "plain HTTP has no certificate")

	// Accessor results are copies.
	r.Header().Set("X-Test", "changed")
	assert.Equal(t, "test-value", r.Header().Get("X-Test"))

	raw, err := r.Raw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, raw.StatusCode)
	assert.Equal(t, "test-value", raw.Header.Get("X-Test"))
}

// TestResponse_OK tests status classification.
func TestResponse_OK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		statusCode int
		expected   bool
	}{
		{statusCode: http.StatusOK, expected: true},
		{statusCode: http.StatusNoContent, expected: true},
		{statusCode: http.StatusMovedPermanently, expected: false},
		{statusCode: http.StatusNotFound, expected: false},
		{statusCode: http.StatusInternalServerError, expected: false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.statusCode), func(t *testing.T) {
			t.Parallel()

			httpResponse := newTestResponse(http.NoBody, "")
			httpResponse.StatusCode = tt.statusCode

			assert.Equal(t, tt.expected, New(httpResponse).OK())
		})
	}
}

// TestResponse_NilBody tests that a response without a body reads as empty.
func TestResponse_NilBody(t *testing.T) {
	t.Parallel()

	r := New(newTestResponse(nil, ""))

	raw, err := r.Bytes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, raw)
	assert.False(t, errors.Is(err, errs.ErrMemoryAccess))
}
