// Package fetch runs the command-line workflows of nitai on top of the client:
// concurrent URL fetches rendered as text, JSON, a gjson query or YAML metadata,
// streamed downloads into files, and scripted WebSocket conversations.
// It keeps per-session statistics and prints a summary at the end.
package fetch
