package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/nitai/internal/logger"
)

const summarySeparator = "═══════════════════════════════════════════════════════════════"

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// Statistics returns a snapshot of the session statistics.
func (s *ServiceImpl) Statistics() Statistics {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	snapshot := *s.stats
	snapshot.Errors = append([]RequestError(nil), s.stats.Errors...)

	return snapshot
}

func (s *ServiceImpl) markStart() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	if s.stats.StartTime.IsZero() {
		s.stats.StartTime = time.Now()
	}
}

func (s *ServiceImpl) markEnd() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.EndTime = time.Now()
}

// incrementSucceeded increments the succeeded requests counter.
func (s *ServiceImpl) incrementSucceeded() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.RequestsSucceeded++
	s.stats.RequestsTotal++
}

// incrementFailed increments the failed requests counter.
func (s *ServiceImpl) incrementFailed() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.RequestsFailed++
	s.stats.RequestsTotal++
}

func (s *ServiceImpl) incrementErrorStatus() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.ErrorStatuses++
}

func (s *ServiceImpl) incrementFileSaved(bytes int64) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.FilesSaved++
	s.stats.BytesReceived += bytes
}

func (s *ServiceImpl) addBytesReceived(bytes int64) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.BytesReceived += bytes
}

func (s *ServiceImpl) addMessagesSent(count int64) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.MessagesSent += count
}

func (s *ServiceImpl) addMessageReceived(bytes int64) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.MessagesReceived++
	s.stats.BytesReceived += bytes
}

// PrintSummary prints a formatted summary of the session.
// A single successful request prints nothing.
func (s *ServiceImpl) PrintSummary(ctx context.Context) {
	stats := s.Statistics()

	if stats.RequestsTotal == 0 || (stats.RequestsTotal == 1 && len(stats.Errors) == 0) {
		return
	}

	// Check if the context was canceled (CTRL+C or timeout).
	wasInterrupted := ctx.Err() != nil

	logger.Info(ctx, "")
	logger.Info(ctx, summarySeparator)

	if wasInterrupted {
		logger.Info(ctx, "                 SESSION SUMMARY (Interrupted)")
	} else {
		logger.Info(ctx, "                       SESSION SUMMARY")
	}

	logger.Info(ctx, summarySeparator)

	s.printRequestStatistics(ctx, &stats)
	s.printTransferStatistics(ctx, &stats)

	logger.Info(ctx, summarySeparator)

	s.printErrorDetails(ctx, &stats)
}

// printRequestStatistics prints request counters.
func (s *ServiceImpl) printRequestStatistics(ctx context.Context, stats *Statistics) {
	logger.Infof(ctx, "Requests:         %d total", stats.RequestsTotal)
	logger.Infof(ctx, "  Succeeded:      %d", stats.RequestsSucceeded)

	if stats.RequestsFailed > 0 {
		logger.Infof(ctx, "  Failed:         %d", stats.RequestsFailed)
	}

	if stats.ErrorStatuses > 0 {
		logger.Infof(ctx, "  Error Statuses: %d", stats.ErrorStatuses)
	}

	successRate := float64(stats.RequestsSucceeded) / float64(stats.RequestsTotal) * 100
	logger.Infof(ctx, "  Success Rate:   %.1f%%", successRate)

	if stats.FilesSaved > 0 {
		logger.Infof(ctx, "Files Saved:      %d", stats.FilesSaved)
	}

	if stats.MessagesSent > 0 || stats.MessagesReceived > 0 {
		logger.Infof(ctx, "Messages:         %d sent, %d received", stats.MessagesSent, stats.MessagesReceived)
	}
}

// printTransferStatistics prints data transfer statistics.
func (s *ServiceImpl) printTransferStatistics(ctx context.Context, stats *Statistics) {
	if stats.BytesReceived > 0 {
		//nolint:gosec // BytesReceived is always positive, no overflow risk.
		logger.Infof(ctx, "Data Received:    %s", humanize.Bytes(uint64(stats.BytesReceived)))
	}

	if stats.StartTime.IsZero() || stats.EndTime.IsZero() {
		return
	}

	duration := stats.EndTime.Sub(stats.StartTime)
	logger.Infof(ctx, "Duration:         %s", formatDuration(duration))

	if stats.BytesReceived > 0 && duration > 0 {
		bytesPerSecond := float64(stats.BytesReceived) / duration.Seconds()
		logger.Infof(ctx, "Average Speed:    %s/s", humanize.Bytes(uint64(bytesPerSecond)))
	}
}

// printErrorDetails prints every recorded error and a command that retries the failed URLs.
func (s *ServiceImpl) printErrorDetails(ctx context.Context, stats *Statistics) {
	if len(stats.Errors) == 0 {
		logger.Info(ctx, "All requests completed successfully!")

		return
	}

	logger.Errorf(ctx, "ERRORS ENCOUNTERED: %d", len(stats.Errors))

	for i := range stats.Errors {
		requestErr := &stats.Errors[i]

		logger.Errorf(ctx, "  %s %s", requestErr.Method, requestErr.URL)
		logger.Errorf(ctx, "      Phase: %s", requestErr.Phase)
		logger.Errorf(ctx, "      Code:  %s", requestErr.Code)
		logger.Errorf(ctx, "      Error: %s", requestErr.ErrorMessage)
	}

	if command := retryCommand(stats.Errors); command != "" {
		logger.Info(ctx, "")
		logger.Info(ctx, "To retry only failed requests, run:")
		logger.Infof(ctx, "  %s", command)
	}
}

// retryCommand builds a command line that fetches the failed GET URLs again.
func retryCommand(requestErrors []RequestError) string {
	var (
		seen = make(map[string]struct{})
		urls []string
	)

	for i := range requestErrors {
		if requestErrors[i].Method != http.MethodGet {
			continue
		}

		if _, exists := seen[requestErrors[i].URL]; exists {
			continue
		}

		seen[requestErrors[i].URL] = struct{}{}
		urls = append(urls, requestErrors[i].URL)
	}

	if len(urls) == 0 {
		return ""
	}

	return "nitai get " + strings.Join(urls, " ")
}
