package http

import (
	"net/http"

	"github.com/oshokin/nitai/internal/utils"
)

// HeaderInjector is an http.RoundTripper that adds the default headers missing from a request.
// Headers already set on the request, including empty values, are left untouched.
type HeaderInjector struct {
	// next is the underlying HTTP round tripper.
	next http.RoundTripper
	// headerProvider supplies the default headers.
	headerProvider utils.HeaderProvider
}

// NewHeaderInjector creates and returns a new instance of HeaderInjector.
func NewHeaderInjector(next http.RoundTripper, headerProvider utils.HeaderProvider) http.RoundTripper {
	return &HeaderInjector{
		next:           next,
		headerProvider: headerProvider,
	}
}

// RoundTrip sends req with the missing default headers.
// The caller's request is never modified; a clone carries the added headers.
func (t *HeaderInjector) RoundTrip(req *http.Request) (*http.Response, error) {
	var clone *http.Request

	for name, values := range t.headerProvider.DefaultHeaders() {
		if _, isSet := req.Header[name]; isSet {
			continue
		}

		if clone == nil {
			clone = req.Clone(req.Context())
		}

		clone.Header[name] = append([]string(nil), values...)
	}

	if clone == nil {
		return t.next.RoundTrip(req)
	}

	return t.next.RoundTrip(clone)
}

// MergeDefaultHeaders returns a copy of header completed with the default headers it lacks.
// It serves requests that do not go through a round tripper, such as WebSocket handshakes.
func MergeDefaultHeaders(header http.Header, headerProvider utils.HeaderProvider) http.Header {
	merged := header.Clone()
	if merged == nil {
		merged = make(http.Header)
	}

	for name, values := range headerProvider.DefaultHeaders() {
		if _, isSet := merged[name]; !isSet {
			merged[name] = append([]string(nil), values...)
		}
	}

	return merged
}
