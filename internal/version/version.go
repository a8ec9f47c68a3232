// Package version exposes build information injected at link time.
package version

import "strings"

//nolint:gochecknoglobals // These are overridden with -ldflags "-X" at build time.
var (
	// Version is the semantic version of the build.
	Version = "0.1.0"
	// Commit is the git commit the binary was built from.
	Commit = "none"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// productName prefixes the User-Agent.
const productName = "nitai"

// Short returns the bare version string.
func Short() string {
	return Version
}

// Full returns the version together with the commit and build time.
func Full() string {
	return "version: " + Version + ", commit: " + Commit + ", built at: " + BuildTime
}

// UserAgent returns the User-Agent sent when none is configured, e.g. "nitai/0.1.0".
// A leading "v" in Version is dropped.
func UserAgent() string {
	return productName + "/" + strings.TrimPrefix(Version, "v")
}
