// Package client executes HTTP requests and opens WebSocket connections.
//
// A Client is built once from the configuration and is safe for concurrent use.
// HTTP responses come back as *response.Response, whose body can be buffered
// for repeated reads or streamed once. WebSocket connections come back as
// *websocket.WebSocket handles served by their own actor goroutine.
package client
