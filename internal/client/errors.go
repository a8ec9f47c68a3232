package client

import (
	"errors"
	"fmt"

	"github.com/oshokin/nitai/internal/errs"
)

// Static error definitions for better error handling.
var (
	// ErrInvalidCABundle indicates that the CA bundle holds no usable certificate.
	ErrInvalidCABundle = fmt.Errorf("%w: no certificates found in CA bundle", errs.ErrIO)
	// ErrTooManyRedirects indicates that the redirect limit was reached.
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrUnsupportedScheme indicates a URL scheme the client cannot serve.
	ErrUnsupportedScheme = fmt.Errorf("%w: unsupported URL scheme", errs.ErrBuilder)
	// ErrConflictingBody indicates that more than one request body was provided.
	ErrConflictingBody = fmt.Errorf("%w: only one of form, JSON and body can be set", errs.ErrBuilder)
	// ErrHandshakeFailed indicates that the server refused the WebSocket upgrade.
	ErrHandshakeFailed = fmt.Errorf("%w: websocket handshake failed", errs.ErrLibrary)
)
