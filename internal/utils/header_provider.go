package utils

//go:generate $MOCKGEN -source=header_provider.go -destination=mocks/header_provider_mock.go

import "net/http"

// HeaderProvider supplies the headers added to requests that do not set them.
type HeaderProvider interface {
	// DefaultHeaders returns the default headers. Callers must not modify the result.
	DefaultHeaders() http.Header
}

// StaticHeaderProvider returns the same headers for every request.
type StaticHeaderProvider struct {
	header http.Header
}

// NewStaticHeaderProvider builds the default headers from a User-Agent and extra headers.
// The User-Agent wins over an extra header of the same name; an empty one is left out.
func NewStaticHeaderProvider(userAgent string, extra map[string]string) HeaderProvider {
	header := make(http.Header, len(extra)+1)

	for name, value := range extra {
		header.Set(name, value)
	}

	if userAgent != "" {
		header.Set("User-Agent", userAgent)
	}

	return &StaticHeaderProvider{header: header}
}

// DefaultHeaders returns the headers built at construction.
func (p *StaticHeaderProvider) DefaultHeaders() http.Header {
	return p.header
}
