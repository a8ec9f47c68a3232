// Package errs defines the error taxonomy shared by the HTTP response and
// WebSocket layers. Every failure returned by those layers matches exactly one
// of the sentinels below with errors.Is, and Code maps it to a stable string
// identifier for calling code that cannot inspect Go error chains.
package errs
