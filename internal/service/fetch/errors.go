package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/nitai/internal/errs"
)

// Common errors for the service layer.
var (
	// ErrRequestsFailed indicates that at least one request of the session failed.
	ErrRequestsFailed = errors.New("one or more requests failed")
	// ErrIncompleteDownload indicates that the saved file size doesn't match the announced size.
	ErrIncompleteDownload = fmt.Errorf("%w: incomplete download", errs.ErrIO)
	// ErrNoMatch indicates that a JSON query matched nothing.
	ErrNoMatch = fmt.Errorf("%w: query matched nothing", errs.ErrDecode)
	// ErrErrorStatus indicates an error status code while failing on error statuses is enabled.
	ErrErrorStatus = errors.New("server answered with an error status")
)

// ErrorContext provides context information for request errors.
type ErrorContext struct {
	// Method is the HTTP method, or "WS" for WebSocket sessions.
	Method string
	// URL is the target of the failed request.
	URL string
	// Phase indicates when the error occurred (e.g., "sending request", "saving body").
	Phase string
}

// recordError records an error in the statistics with proper context.
// Context cancellation errors are ignored as they are expected during graceful shutdown.
func (s *ServiceImpl) recordError(errCtx *ErrorContext, err error) {
	if errCtx == nil || err == nil {
		return
	}

	if errors.Is(err, context.Canceled) {
		return
	}

	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.Errors = append(s.stats.Errors, RequestError{
		Method:       errCtx.Method,
		URL:          errCtx.URL,
		Phase:        errCtx.Phase,
		Code:         errs.Code(err),
		ErrorMessage: err.Error(),
	})
}
