package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oshokin/nitai/internal/client"
	mock_client "github.com/oshokin/nitai/internal/client/mocks"
	"github.com/oshokin/nitai/internal/config"
	"github.com/oshokin/nitai/internal/errs"
	"github.com/oshokin/nitai/internal/response"
)

const testURL = "http://nitai.test/data.json"

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	require.NoError(t, config.ValidateConfig(cfg))

	return cfg
}

func newTestResponse(statusCode int, contentType, body string) *response.Response {
	return response.New(&http.Response{
		StatusCode:    statusCode,
		Status:        fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		Proto:         "HTTP/1.1",
		Header:        http.Header{"Content-Type": {contentType}},
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       httptest.NewRequest(http.MethodGet, testURL, nil),
	})
}

type testService struct {
	*ServiceImpl
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestService(t *testing.T, cfg *config.Config, c client.Client) *testService {
	t.Helper()

	var stdout, stderr bytes.Buffer

	//nolint:forcetypeassert // NewService always returns *ServiceImpl.
	s := NewService(cfg, c, &stdout, &stderr).(*ServiceImpl)

	return &testService{ServiceImpl: s, stdout: &stdout, stderr: &stderr}
}

func newRealClient(t *testing.T, cfg *config.Config) client.Client {
	t.Helper()

	c, err := client.NewClient(cfg, nil)
	require.NoError(t, err)

	return c
}

// TestFetch_Formats tests every rendering of a response body.
func TestFetch_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		contentType  string
		body         string
		opts         *RenderOptions
		expected     string
		expectedJSON string
		contains     []string
	}{
		{
			name:        "text",
			contentType: "text/plain; charset=utf-8",
			body:        "hello",
			opts:        &RenderOptions{Format: FormatText},
			expected:    "hello",
		},
		{
			name:        "nil options default to text",
			contentType: "text/plain",
			body:        "plain",
			expected:    "plain",
		},
		{
			name:         "json",
			contentType:  "application/json",
			body:         `{"b":1,"a":[1,2]}`,
			opts:         &RenderOptions{Format: FormatJSON},
			expectedJSON: `{"a":[1,2],"b":1}`,
			contains:     []string{"{\n  \"a\": ["},
		},
		{
			name:        "query",
			contentType: "application/json",
			body:        `{"items":[{"name":"first"},{"name":"second"}]}`,
			opts:        &RenderOptions{Format: FormatQuery, Query: "items.1.name"},
			expected:    "second\n",
		},
		{
			name:        "meta",
			contentType: "text/plain",
			body:        "unused",
			opts:        &RenderOptions{Format: FormatMeta},
			contains:    []string{"status_code: 200", "url: " + testURL, "proto: HTTP/1.1", "content_length: 6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockClient := mock_client.NewMockClient(ctrl)
			mockClient.EXPECT().
				Request(gomock.Any(), http.MethodGet, testURL, gomock.Nil()).
				Return(newTestResponse(http.StatusOK, tt.contentType, tt.body), nil)

			s := newTestService(t, newTestConfig(t), mockClient)

			err := s.Fetch(t.Context(), []*Target{{Method: http.MethodGet, URL: testURL}}, tt.opts)
			require.NoError(t, err)

			switch {
			case tt.expectedJSON != "":
				assert.JSONEq(t, tt.expectedJSON, s.stdout.String())
			case tt.contains == nil:
				assert.Equal(t, tt.expected, s.stdout.String())
			}

			for _, fragment := range tt.contains {
				assert.Contains(t, s.stdout.String(), fragment)
			}

			assert.Contains(t, s.stderr.String(), "200 OK GET "+testURL)

			stats := s.Statistics()
			assert.Equal(t, int64(1), stats.RequestsTotal)
			assert.Equal(t, int64(1), stats.RequestsSucceeded)
			assert.Empty(t, stats.Errors)
		})
	}
}

// TestFetch_Failures tests that failed requests are recorded with their error code.
func TestFetch_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		resp         *response.Response
		requestErr   error
		opts         *RenderOptions
		expectedCode string
		expectedErr  error
		phase        string
	}{
		{
			name:         "transport error",
			requestErr:   errs.Library(errors.New("connection refused")),
			expectedCode: errs.CodeLibrary,
			phase:        "sending request",
		},
		{
			name:         "builder error",
			requestErr:   errs.Builder(errors.New("bad URL")),
			expectedCode: errs.CodeBuilder,
			phase:        "sending request",
		},
		{
			name:         "query without match",
			resp:         newTestResponse(http.StatusOK, "application/json", `{"a":1}`),
			opts:         &RenderOptions{Format: FormatQuery, Query: "missing"},
			expectedCode: errs.CodeDecode,
			expectedErr:  ErrNoMatch,
			phase:        "rendering body",
		},
		{
			name:         "invalid JSON",
			resp:         newTestResponse(http.StatusOK, "application/json", `{"a":`),
			opts:         &RenderOptions{Format: FormatJSON},
			expectedCode: errs.CodeDecode,
			phase:        "rendering body",
		},
		{
			name:         "error status with fail on error",
			resp:         newTestResponse(http.StatusNotFound, "text/plain", "missing"),
			opts:         &RenderOptions{FailOnErrorStatus: true},
			expectedCode: errs.CodeUnknown,
			expectedErr:  ErrErrorStatus,
			phase:        "sending request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockClient := mock_client.NewMockClient(ctrl)
			mockClient.EXPECT().
				Request(gomock.Any(), http.MethodGet, testURL, gomock.Nil()).
				Return(tt.resp, tt.requestErr)

			s := newTestService(t, newTestConfig(t), mockClient)

			err := s.Fetch(t.Context(), []*Target{{Method: http.MethodGet, URL: testURL}}, tt.opts)
			require.ErrorIs(t, err, ErrRequestsFailed)
			assert.Empty(t, s.stdout.String())

			stats := s.Statistics()
			assert.Equal(t, int64(1), stats.RequestsFailed)
			require.Len(t, stats.Errors, 1)
			assert.Equal(t, tt.expectedCode, stats.Errors[0].Code)
			assert.Equal(t, tt.phase, stats.Errors[0].Phase)
			assert.Equal(t, testURL, stats.Errors[0].URL)

			if tt.expectedErr != nil {
				assert.Contains(t, stats.Errors[0].ErrorMessage, tt.expectedErr.Error())
			}
		})
	}
}

// TestFetch_ErrorStatusWithoutFail tests that error statuses are counted but rendered by default.
func TestFetch_ErrorStatusWithoutFail(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockClient := mock_client.NewMockClient(ctrl)
	mockClient.EXPECT().
		Request(gomock.Any(), http.MethodGet, testURL, gomock.Nil()).
		Return(newTestResponse(http.StatusServiceUnavailable, "text/plain", "down"), nil)

	s := newTestService(t, newTestConfig(t), mockClient)

	require.NoError(t, s.Fetch(t.Context(), []*Target{{Method: http.MethodGet, URL: testURL}}, nil))

	assert.Equal(t, "down", s.stdout.String())
	assert.Contains(t, s.stderr.String(), "503 Service Unavailable")

	stats := s.Statistics()
	assert.Equal(t, int64(1), stats.ErrorStatuses)
	assert.Equal(t, int64(1), stats.RequestsSucceeded)
}

// TestFetch_KeepsTargetOrder tests that outputs follow the order of targets, not of completion.
func TestFetch_KeepsTargetOrder(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			time.Sleep(100 * time.Millisecond)
		}

		_, _ = w.Write([]byte(r.URL.Path + "\n"))
	}))
	defer server.Close()

	cfg := newTestConfig(t)
	s := newTestService(t, cfg, newRealClient(t, cfg))

	targets := []*Target{
		{Method: http.MethodGet, URL: server.URL + "/slow"},
		{Method: http.MethodGet, URL: server.URL + "/fast"},
		{Method: http.MethodPost, URL: server.URL + "/post"},
	}

	require.NoError(t, s.Fetch(t.Context(), targets, nil))

	assert.Equal(t, "/slow\n/fast\n/post\n", s.stdout.String())
	assert.Equal(t, int64(3), s.Statistics().RequestsSucceeded)
}

// TestFetch_ConcurrencyLimit tests that no more than max_concurrent_requests run at once.
func TestFetch_ConcurrencyLimit(t *testing.T) {
	t.Parallel()

	var (
		active  = make(chan struct{}, 10)
		maxSeen = make(chan int, 10)
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		active <- struct{}{}
		maxSeen <- len(active)

		time.Sleep(50 * time.Millisecond)
		<-active

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	cfg := newTestConfig(t)
	cfg.MaxConcurrentRequests = 2

	s := newTestService(t, cfg, newRealClient(t, cfg))

	targets := make([]*Target, 6)
	for i := range targets {
		targets[i] = &Target{Method: http.MethodGet, URL: fmt.Sprintf("%s/%d", server.URL, i)}
	}

	require.NoError(t, s.Fetch(t.Context(), targets, nil))
	close(maxSeen)

	for seen := range maxSeen {
		assert.LessOrEqual(t, seen, 2)
	}
}

// TestFetch_CanceledContext tests that nothing is sent once the context is canceled.
func TestFetch_CanceledContext(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockClient := mock_client.NewMockClient(ctrl)

	s := newTestService(t, newTestConfig(t), mockClient)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	require.NoError(t, s.Fetch(ctx, []*Target{{Method: http.MethodGet, URL: testURL}}, nil))
	assert.Zero(t, s.Statistics().RequestsTotal)
}

// TestOutputFormat_String tests the names of output formats.
func TestOutputFormat_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "text", FormatText.String())
	assert.Equal(t, "json", FormatJSON.String())
	assert.Equal(t, "query", FormatQuery.String())
	assert.Equal(t, "meta", FormatMeta.String())
	assert.Equal(t, "unknown", OutputFormat(42).String())
}
