// Package http provides http.RoundTripper wrappers used by the client:
// request/response debug logging, User-Agent injection
// and transparent gzip, deflate and zstd decompression.
package http
