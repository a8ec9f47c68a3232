// Package response wraps a transport HTTP response so that its body can be read
// many times or streamed exactly once.
//
// The first buffered read (Text, JSON, Bytes, Raw) drains the network stream into
// memory and keeps the bytes; later buffered reads are served from that copy.
// Stream hands the untouched network stream to the caller instead, after which the
// body is gone for everybody.
//
// A Response is safe for concurrent use. Body access is serialized by an atomic
// ownership transfer on a single slot, not by a lock: while one goroutine holds the
// body (for example while it is being drained), every other body access fails
// immediately with errs.ErrMemoryAccess instead of waiting. Metadata accessors never
// touch the slot and never fail.
package response
