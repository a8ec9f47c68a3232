package app

import (
	"context"

	"github.com/oshokin/nitai/internal/config"
	"github.com/oshokin/nitai/internal/logger"
	"github.com/oshokin/nitai/internal/service/fetch"
)

// ExecuteWebSocketCommand runs a scripted WebSocket conversation.
func ExecuteWebSocketCommand(ctx context.Context, cfg *config.Config, session *fetch.Session) {
	s := newService(ctx, cfg)

	if err := s.Converse(ctx, session); err != nil {
		logger.Fatalf(ctx, "WebSocket session failed: %v", err)
	}
}
