package fetch

import (
	"context"
	"fmt"

	"github.com/oshokin/nitai/internal/logger"
	nitai_websocket "github.com/oshokin/nitai/internal/websocket"
)

const (
	// websocketMethod labels WebSocket sessions in statistics.
	websocketMethod = "WS"
	// closeReason is sent with the normal closure that ends a conversation.
	closeReason = "bye"
)

// Converse connects, sends every message in one batch, prints the requested number
// of received frames and closes the connection with a normal closure.
func (s *ServiceImpl) Converse(ctx context.Context, session *Session) error {
	s.markStart()
	defer s.markEnd()

	errCtx := &ErrorContext{Method: websocketMethod, URL: session.URL, Phase: "handshake"}

	ws, err := s.client.WebSocket(ctx, session.URL, session.Options)
	if err != nil {
		s.handleError(ctx, errCtx, err)

		return err
	}

	ctx = logger.WithKV(ctx, "websocket_id", ws.ID())
	logger.Infof(ctx, "Connected to %s (protocol %q)", session.URL, ws.Protocol())

	var (
		closeCode, reason = nitai_websocket.CloseNormal, closeReason
		isPeerClosed      bool
	)

	defer func() {
		closeErr := ws.Close(context.WithoutCancel(ctx), &closeCode, &reason)

		switch {
		case closeErr == nil:
		case isPeerClosed:
			logger.Debugf(ctx, "Close frame not sent after the server closed: %v", closeErr)
		default:
			logger.Warnf(ctx, "Failed to close the connection cleanly: %v", closeErr)
		}
	}()

	messages := make([]*nitai_websocket.Message, 0, len(session.Messages))
	for _, text := range session.Messages {
		messages = append(messages, nitai_websocket.NewTextMessage(text))
	}

	errCtx.Phase = "sending messages"

	if err = ws.SendAll(ctx, messages); err != nil {
		s.handleError(ctx, errCtx, err)

		return err
	}

	s.addMessagesSent(int64(len(messages)))

	errCtx.Phase = "receiving messages"

	for received := 0; received < session.Receive; received++ {
		message, recvErr := ws.Recv(ctx, session.Timeout)
		if recvErr != nil {
			s.handleError(ctx, errCtx, recvErr)

			return recvErr
		}

		if message == nil {
			logger.Infof(ctx, "Server ended the stream after %d message(s)", received)

			break
		}

		if message.Type == nitai_websocket.MessageClose {
			isPeerClosed = true
		}

		s.printMessage(message)
	}

	s.incrementSucceeded()

	return nil
}

// printMessage writes a received frame to stdout, one frame per line.
func (s *ServiceImpl) printMessage(message *nitai_websocket.Message) {
	s.addMessageReceived(int64(len(message.Data)))

	s.outputMutex.Lock()
	defer s.outputMutex.Unlock()

	if text, ok := message.Text(); ok {
		_, _ = fmt.Fprintln(s.stdout, text)

		return
	}

	_, _ = fmt.Fprintln(s.stdout, message.String())
}
