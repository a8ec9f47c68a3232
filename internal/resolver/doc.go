// Package resolver provides a process-wide caching DNS resolver.
// One Resolver is created at start-up and shared by every client;
// it is safe for concurrent use and needs no teardown.
package resolver
