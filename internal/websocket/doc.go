// Package websocket provides a WebSocket handle that many goroutines can share.
//
// A connection is owned by exactly one actor goroutine. Handles never touch the
// socket: every operation becomes a command on an unbounded FIFO mailbox and
// waits for its answer on a reply channel of its own. The actor executes one
// command at a time, so a batch written by SendAll is never interleaved with
// frames from other callers, and no lock is held across network I/O.
//
// Commands are served strictly in arrival order across all clones of a handle.
// Two goroutines calling Recv on the same connection are given consecutive
// inbound frames in the order their calls were enqueued; there is no per-caller
// isolation. This is the expected behavior, not a race.
//
// After Close, or once every handle has been garbage collected, the actor exits
// and any further command fails immediately with errs.ErrDisconnected.
package websocket
