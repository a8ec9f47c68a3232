package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oshokin/nitai/internal/errs"
)

// TestFormatDuration tests human-readable durations.
func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		duration time.Duration
		expected string
	}{
		{duration: 250 * time.Millisecond, expected: "250ms"},
		{duration: 42 * time.Second, expected: "42s"},
		{duration: 3*time.Minute + 5*time.Second, expected: "3m 5s"},
		{duration: 2*time.Hour + time.Minute + time.Second, expected: "2h 1m 1s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}

// TestRetryCommand tests that only unique failed GET URLs are retried.
func TestRetryCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		errors   []RequestError
		expected string
	}{
		{name: "no errors", expected: ""},
		{
			name:     "only other methods",
			errors:   []RequestError{{Method: "POST", URL: "http://a"}, {Method: websocketMethod, URL: "ws://b"}},
			expected: "",
		},
		{
			name: "unique GET URLs in order",
			errors: []RequestError{
				{Method: "GET", URL: "http://a"},
				{Method: "POST", URL: "http://b"},
				{Method: "GET", URL: "http://c"},
				{Method: "GET", URL: "http://a"},
			},
			expected: "nitai get http://a http://c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, retryCommand(tt.errors))
		})
	}
}

// TestRecordError tests which errors end up in the statistics.
func TestRecordError(t *testing.T) {
	t.Parallel()

	s := newTestService(t, newTestConfig(t), nil)
	errCtx := &ErrorContext{Method: "GET", URL: "http://a", Phase: "sending request"}

	s.recordError(nil, errors.New("ignored"))
	s.recordError(errCtx, nil)
	s.recordError(errCtx, context.Canceled)
	s.recordError(errCtx, errs.ErrDisconnected)

	stats := s.Statistics()
	assert.Len(t, stats.Errors, 1)
	assert.Equal(t, errs.CodeDisconnected, stats.Errors[0].Code)
}

// TestStatistics_Snapshot tests that snapshots are detached from the live statistics.
func TestStatistics_Snapshot(t *testing.T) {
	t.Parallel()

	s := newTestService(t, newTestConfig(t), nil)
	s.recordError(&ErrorContext{Method: "GET", URL: "http://a"}, errors.New("boom"))
	s.incrementFailed()

	snapshot := s.Statistics()
	snapshot.Errors[0].URL = "changed"

	assert.Equal(t, "http://a", s.Statistics().Errors[0].URL)
	assert.Equal(t, int64(1), s.Statistics().RequestsTotal)
}

// TestPrintSummary tests that printing a summary never panics on any state.
func TestPrintSummary(t *testing.T) {
	t.Parallel()

	s := newTestService(t, newTestConfig(t), nil)

	assert.NotPanics(t, func() { s.PrintSummary(t.Context()) })

	s.markStart()
	s.incrementSucceeded()
	s.addBytesReceived(2048)
	s.addMessagesSent(2)
	s.recordError(&ErrorContext{Method: "GET", URL: "http://a", Phase: "sending request"}, errs.ErrIO)
	s.incrementFailed()
	s.markEnd()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	assert.NotPanics(t, func() { s.PrintSummary(t.Context()) })
	assert.NotPanics(t, func() { s.PrintSummary(ctx) })
}
