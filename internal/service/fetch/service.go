package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/oshokin/nitai/internal/client"
	"github.com/oshokin/nitai/internal/config"
	"github.com/oshokin/nitai/internal/logger"
	"github.com/oshokin/nitai/internal/response"
)

// Service runs fetch and WebSocket sessions.
type Service interface {
	// Fetch sends every target concurrently and renders the responses in target order.
	Fetch(ctx context.Context, targets []*Target, opts *RenderOptions) error
	// Converse runs a scripted WebSocket conversation.
	Converse(ctx context.Context, session *Session) error
	// PrintSummary prints a formatted summary of the session statistics.
	PrintSummary(ctx context.Context)
	// Statistics returns a snapshot of the session statistics.
	Statistics() Statistics
}

// ServiceImpl implements Service on top of a client.
type ServiceImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// client sends the requests.
	client client.Client
	// stdout receives rendered bodies and received frames.
	stdout io.Writer
	// stderr receives status lines.
	stderr io.Writer
	// outputMutex serializes writes to stdout and stderr.
	outputMutex *sync.Mutex
	// stats tracks statistics for the current session.
	stats *Statistics
	// statsMutex protects concurrent access to statistics.
	statsMutex *sync.Mutex
}

// NewService creates a service writing bodies to stdout and status lines to stderr.
func NewService(cfg *config.Config, c client.Client, stdout, stderr io.Writer) Service {
	return &ServiceImpl{
		cfg:         cfg,
		client:      c,
		stdout:      stdout,
		stderr:      stderr,
		outputMutex: new(sync.Mutex),
		stats:       new(Statistics),
		statsMutex:  new(sync.Mutex),
	}
}

// Fetch sends every target concurrently, bounded by max_concurrent_requests.
// Rendered bodies are buffered and printed in target order once every request has finished.
func (s *ServiceImpl) Fetch(ctx context.Context, targets []*Target, opts *RenderOptions) error {
	if opts == nil {
		opts = new(RenderOptions)
	}

	s.markStart()
	defer s.markEnd()

	outputs := make([][]byte, len(targets))

	var group errgroup.Group

	group.SetLimit(int(s.cfg.MaxConcurrentRequests))

	for index, target := range targets {
		group.Go(func() error {
			// Check if context was canceled (CTRL+C pressed) - stop immediately.
			if ctx.Err() != nil {
				return nil
			}

			outputs[index] = s.fetchOne(ctx, target, opts, len(targets) > 1)

			return nil
		})
	}

	_ = group.Wait()

	s.outputMutex.Lock()
	defer s.outputMutex.Unlock()

	for _, output := range outputs {
		if _, err := s.stdout.Write(output); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	if s.Statistics().RequestsFailed > 0 {
		return ErrRequestsFailed
	}

	return nil
}

// fetchOne sends a single target and returns its rendered output.
func (s *ServiceImpl) fetchOne(ctx context.Context, target *Target, opts *RenderOptions, isBatch bool) []byte {
	errCtx := &ErrorContext{Method: target.Method, URL: target.URL, Phase: "sending request"}
	startTime := time.Now()

	resp, err := s.client.Request(ctx, target.Method, target.URL, target.Options)
	if err != nil {
		s.handleError(ctx, errCtx, err)

		return nil
	}

	defer resp.Close()

	s.printStatusLine(target, resp, time.Since(startTime))

	if resp.StatusCode() >= http.StatusBadRequest {
		s.incrementErrorStatus()

		if opts.FailOnErrorStatus {
			s.handleError(ctx, errCtx, fmt.Errorf("%w: %s", ErrErrorStatus, resp.Status()))

			return nil
		}
	}

	var output []byte

	if opts.OutputPath != "" {
		errCtx.Phase = "saving body"
		err = s.saveBody(ctx, resp, opts.OutputPath, isBatch)
	} else {
		errCtx.Phase = "rendering body"
		output, err = s.render(ctx, resp, opts)
	}

	if err != nil {
		s.handleError(ctx, errCtx, err)

		return nil
	}

	s.incrementSucceeded()

	return output
}

// handleError logs and records a failed request.
func (s *ServiceImpl) handleError(ctx context.Context, errCtx *ErrorContext, err error) {
	logger.Errorf(ctx, "%s %s: %s failed: %v", errCtx.Method, errCtx.URL, errCtx.Phase, err)

	s.recordError(errCtx, err)
	s.incrementFailed()
}

// printStatusLine prints a colored one-line status of a response to stderr.
func (s *ServiceImpl) printStatusLine(target *Target, resp *response.Response, elapsed time.Duration) {
	var line bytes.Buffer

	statusColor(resp.StatusCode()).Fprintf(&line, "%s", resp.Status())
	fmt.Fprintf(&line, " %s %s", target.Method, responseURL(resp, target.URL))

	if size := resp.ContentLength(); size >= 0 {
		//nolint:gosec // Size is checked to be non-negative.
		fmt.Fprintf(&line, " (%s, %s)", humanize.Bytes(uint64(size)), formatDuration(elapsed))
	} else {
		fmt.Fprintf(&line, " (%s)", formatDuration(elapsed))
	}

	line.WriteByte('\n')

	s.outputMutex.Lock()
	defer s.outputMutex.Unlock()

	_, _ = s.stderr.Write(line.Bytes())
}

// responseURL returns the final URL of a response, or fallback when it is unknown.
func responseURL(resp *response.Response, fallback string) string {
	if finalURL := resp.URL(); finalURL != nil {
		return finalURL.Redacted()
	}

	return fallback
}

// statusColor picks the color of a status code class.
func statusColor(statusCode int) *color.Color {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return color.New(color.FgRed, color.Bold)
	case statusCode >= http.StatusBadRequest:
		return color.New(color.FgYellow, color.Bold)
	case statusCode >= http.StatusMultipleChoices:
		return color.New(color.FgCyan, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}
