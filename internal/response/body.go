package response

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/oshokin/nitai/internal/errs"
)

// bodyKind tells which representation a body currently has.
type bodyKind uint8

const (
	// bodyStreamable is a network stream that can be read exactly once.
	bodyStreamable bodyKind = iota
	// bodyReusable is an immutable in-memory copy that can be read any number of times.
	bodyReusable
)

// body is the content of a body slot.
type body struct {
	kind   bodyKind
	stream io.ReadCloser
	buffer []byte
}

func newStreamableBody(stream io.ReadCloser) *body {
	return &body{kind: bodyStreamable, stream: stream}
}

func newReusableBody(buffer []byte) *body {
	return &body{kind: bodyReusable, buffer: buffer}
}

// bodyInUse marks a slot whose body has been taken by a reader that has not put it back yet.
//
//nolint:gochecknoglobals // The marker is compared by address and never mutated.
var bodyInUse = new(body)

// Static error definitions for better error handling.
var (
	// errBodyBusy indicates that another goroutine currently owns the body.
	errBodyBusy = fmt.Errorf("%w: body is held by a concurrent reader", errs.ErrMemoryAccess)
	// errBodyConsumed indicates that the body was streamed or the response was closed.
	errBodyConsumed = fmt.Errorf("%w: body already consumed", errs.ErrMemoryAccess)
)

// bodySlot holds zero or one body. Ownership moves in and out with atomic swaps only.
type bodySlot struct {
	current atomic.Pointer[body]
}

func newBodySlot(b *body) *bodySlot {
	s := new(bodySlot)
	s.current.Store(b)

	return s
}

// take moves the body out of the slot, leaving the in-use marker behind.
// The caller must finish with restore or release.
// Nothing is written to the slot when the take fails.
func (s *bodySlot) take() (*body, error) {
	for {
		b := s.current.Load()

		switch b {
		case bodyInUse:
			return nil, errBodyBusy
		case nil:
			return nil, errBodyConsumed
		}

		if s.current.CompareAndSwap(b, bodyInUse) {
			return b, nil
		}
	}
}

// restore puts a body back unless the slot was evicted while it was out.
func (s *bodySlot) restore(b *body) bool {
	return s.current.CompareAndSwap(bodyInUse, b)
}

// release leaves the slot empty after a take.
func (s *bodySlot) release() {
	s.current.CompareAndSwap(bodyInUse, nil)
}

// evict empties the slot unconditionally and returns what was there,
// unless the body was out with a reader at that moment.
func (s *bodySlot) evict() *body {
	b := s.current.Swap(nil)
	if b == bodyInUse {
		return nil
	}

	return b
}
