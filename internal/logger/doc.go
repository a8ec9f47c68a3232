// Package logger provides a structured logging solution using the Zap logging library.
// It includes utilities for creating and managing loggers, setting log levels,
// and integrating logging with context for enhanced traceability.
// Key-value pairs attached with WithKV (response and connection IDs) follow the
// context through the HTTP and WebSocket layers.
package logger
