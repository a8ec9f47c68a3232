package http

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oshokin/nitai/internal/utils"
	mock_utils "github.com/oshokin/nitai/internal/utils/mocks"
)

// newHeaderEchoServer answers every request with the headers it received.
func newHeaderEchoServer(t *testing.T, received chan<- http.Header) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r.Header.Clone()

		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	return server
}

// TestHeaderInjector_RoundTrip tests which default headers reach the server.
func TestHeaderInjector_RoundTrip(t *testing.T) {
	t.Parallel()

	defaults := http.Header{
		"User-Agent": {"nitai/1.0"},
		"X-Api-Key":  {"secret"},
	}

	tests := []struct {
		name          string
		requestHeader http.Header
		expected      map[string][]string
	}{
		{
			name: "missing headers are added",
			expected: map[string][]string{
				"User-Agent": {"nitai/1.0"},
				"X-Api-Key":  {"secret"},
			},
		},
		{
			name:          "request headers win",
			requestHeader: http.Header{"User-Agent": {"curl/8.0"}, "X-Api-Key": {"mine"}},
			expected: map[string][]string{
				"User-Agent": {"curl/8.0"},
				"X-Api-Key":  {"mine"},
			},
		},
		{
			name:          "partially set request",
			requestHeader: http.Header{"X-Api-Key": {"mine"}},
			expected: map[string][]string{
				"User-Agent": {"nitai/1.0"},
				"X-Api-Key":  {"mine"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)

			provider := mock_utils.NewMockHeaderProvider(ctrl)
			provider.EXPECT().DefaultHeaders().Return(defaults).Times(1)

			received := make(chan http.Header, 1)
			server := newHeaderEchoServer(t, received)

			req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, server.URL, nil)
			require.NoError(t, err)

			for name, values := range tt.requestHeader {
				req.Header[name] = values
			}

			original := req.Header.Clone()

			resp, err := NewHeaderInjector(http.DefaultTransport, provider).RoundTrip(req)
			require.NoError(t, err)

			defer resp.Body.Close() //nolint:errcheck // Test cleanup, error is not critical.

			got := <-received
			for name, values := range tt.expected {
				assert.Equal(t, values, got.Values(name), name)
			}

			// The caller's request is not modified.
			assert.Equal(t, original, req.Header)
		})
	}
}

// TestHeaderInjector_SharedDefaults tests that concurrent requests never modify the provider's headers.
func TestHeaderInjector_SharedDefaults(t *testing.T) {
	t.Parallel()

	const requests = 5

	provider := utils.NewStaticHeaderProvider("nitai/1.0", map[string]string{"X-Trace": "1"})
	snapshot := provider.DefaultHeaders().Clone()

	received := make(chan http.Header, requests)
	server := newHeaderEchoServer(t, received)
	injector := NewHeaderInjector(http.DefaultTransport, provider)

	var wg sync.WaitGroup

	for range requests {
		wg.Add(1)

		go func() {
			defer wg.Done()

			req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, server.URL, nil)
			if !assert.NoError(t, err) {
				return
			}

			req.Header.Add("X-Trace", "request")

			resp, err := injector.RoundTrip(req)
			if assert.NoError(t, err) {
				_ = resp.Body.Close()
			}
		}()
	}

	wg.Wait()
	close(received)

	for header := range received {
		assert.Equal(t, []string{"request"}, header.Values("X-Trace"))
		assert.Equal(t, "nitai/1.0", header.Get("User-Agent"))
	}

	assert.Equal(t, snapshot, provider.DefaultHeaders())
}

// TestMergeDefaultHeaders tests completing a header set without a round tripper.
func TestMergeDefaultHeaders(t *testing.T) {
	t.Parallel()

	provider := utils.NewStaticHeaderProvider("nitai/1.0", map[string]string{"Origin": "https://nitai.test"})

	t.Run("nil header", func(t *testing.T) {
		t.Parallel()

		merged := MergeDefaultHeaders(nil, provider)
		assert.Equal(t, "nitai/1.0", merged.Get("User-Agent"))
		assert.Equal(t, "https://nitai.test", merged.Get("Origin"))
	})

	t.Run("explicit header kept", func(t *testing.T) {
		t.Parallel()

		header := http.Header{"Origin": {"https://other.test"}}

		merged := MergeDefaultHeaders(header, provider)
		assert.Equal(t, "https://other.test", merged.Get("Origin"))
		assert.Equal(t, "nitai/1.0", merged.Get("User-Agent"))
		assert.Empty(t, header.Get("User-Agent"), "input must not be modified")
	})
}
