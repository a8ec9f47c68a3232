package websocket

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/oshokin/nitai/internal/errs"
)

// mailbox is an unbounded multi-producer, single-consumer FIFO of commands.
type mailbox struct {
	mu    sync.Mutex
	queue *queue.Queue
	// signal wakes the consumer; one pending wake-up is enough.
	signal chan struct{}
	// closed rejects new commands; queued ones are still delivered.
	closed bool
	// enqueued counts accepted commands.
	enqueued atomic.Uint64
}

func newMailbox() *mailbox {
	return &mailbox{
		queue:  queue.New(),
		signal: make(chan struct{}, 1),
	}
}

// push enqueues a command, or fails with errs.ErrDisconnected once the mailbox is closed.
func (m *mailbox) push(cmd command) error {
	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()

		return errs.ErrDisconnected
	}

	m.queue.Add(cmd)
	m.enqueued.Add(1)
	m.mu.Unlock()

	m.wake()

	return nil
}

// next blocks until a command is available. It returns false once the
// mailbox is closed and drained.
func (m *mailbox) next() (command, bool) {
	for {
		m.mu.Lock()

		if m.queue.Length() > 0 {
			cmd, _ := m.queue.Remove().(command)
			m.mu.Unlock()

			return cmd, true
		}

		if m.closed {
			m.mu.Unlock()

			return nil, false
		}

		m.mu.Unlock()

		<-m.signal
	}
}

// close stops accepting commands. Queued commands are still handed out by next.
func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.wake()
}

// shutdown closes the mailbox and returns the commands nobody will serve.
func (m *mailbox) shutdown() []command {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	pending := make([]command, 0, m.queue.Length())
	for m.queue.Length() > 0 {
		if cmd, ok := m.queue.Remove().(command); ok {
			pending = append(pending, cmd)
		}
	}

	return pending
}

func (m *mailbox) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

func (m *mailbox) wake() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}
