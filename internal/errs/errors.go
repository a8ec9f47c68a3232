package errs

import (
	"errors"
	"fmt"
)

// Static error definitions for better error handling.
var (
	// ErrMemoryAccess indicates a response body that is held by a concurrent reader or already consumed.
	ErrMemoryAccess = errors.New("memory access error")
	// ErrDisconnected indicates that the WebSocket connection actor is no longer reachable.
	ErrDisconnected = errors.New("websocket disconnected")
	// ErrTimeout indicates that a receive deadline elapsed before a frame arrived.
	ErrTimeout = errors.New("operation timed out")
	// ErrLibrary indicates a failure reported by the transport or protocol layer.
	ErrLibrary = errors.New("library error")
	// ErrDecode indicates that a body or message could not be converted to text or JSON.
	ErrDecode = errors.New("decode error")
	// ErrBuilder indicates that a request could not be built from its options.
	ErrBuilder = errors.New("failed to build request")
	// ErrIO indicates a local I/O failure.
	ErrIO = errors.New("io error")
)

// Error codes reported by Code.
const (
	CodeMemory       = "ERR_NITAI_MEMORY"
	CodeDisconnected = "ERR_NITAI_WEBSOCKET_DISCONNECTED"
	CodeTimeout      = "ERR_NITAI_TIMEOUT"
	CodeLibrary      = "ERR_NITAI_LIBRARY"
	CodeDecode       = "ERR_NITAI_DECODE"
	CodeBuilder      = "ERR_NITAI_BUILDER"
	CodeIO           = "ERR_NITAI_IO"
	CodeUnknown      = "ERR_NITAI_UNKNOWN"
)

// wrapped carries a taxonomy sentinel together with its cause,
// so errors.Is matches both of them.
type wrapped struct {
	kind  error
	cause error
}

func (e *wrapped) Error() string {
	return fmt.Sprintf("%v: %v", e.kind, e.cause)
}

func (e *wrapped) Unwrap() []error {
	return []error{e.kind, e.cause}
}

func wrap(kind, cause error) error {
	if cause == nil {
		return nil
	}

	if errors.Is(cause, kind) {
		return cause
	}

	return &wrapped{kind: kind, cause: cause}
}

// Library wraps a transport or protocol failure. It returns nil for a nil cause.
func Library(err error) error {
	return wrap(ErrLibrary, err)
}

// Decode wraps a text or JSON conversion failure. It returns nil for a nil cause.
func Decode(err error) error {
	return wrap(ErrDecode, err)
}

// Builder wraps a request construction failure. It returns nil for a nil cause.
func Builder(err error) error {
	return wrap(ErrBuilder, err)
}

// IO wraps a local I/O failure. It returns nil for a nil cause.
func IO(err error) error {
	return wrap(ErrIO, err)
}

// Code returns the stable identifier of the taxonomy member err belongs to.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMemoryAccess):
		return CodeMemory
	case errors.Is(err, ErrDisconnected):
		return CodeDisconnected
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	case errors.Is(err, ErrDecode):
		return CodeDecode
	case errors.Is(err, ErrBuilder):
		return CodeBuilder
	case errors.Is(err, ErrIO):
		return CodeIO
	case errors.Is(err, ErrLibrary):
		return CodeLibrary
	default:
		return CodeUnknown
	}
}
