package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/oshokin/nitai/internal/errs"
)

//nolint:gochecknoglobals // Stateless, concurrency-safe codec configuration.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BasicAuth holds HTTP basic authentication credentials.
type BasicAuth struct {
	Username string
	Password string
}

// RequestOptions customizes a single request. The zero value sends a bare request.
type RequestOptions struct {
	// Header holds additional request headers.
	Header http.Header
	// Query is merged into the URL query.
	Query url.Values
	// Form is sent as an application/x-www-form-urlencoded body.
	Form url.Values
	// JSON is encoded and sent as an application/json body.
	JSON any
	// Body is sent as is.
	Body io.Reader
	// BasicAuth sets HTTP basic authentication.
	BasicAuth *BasicAuth
	// BearerToken sets a bearer Authorization header.
	BearerToken string
	// Cookies are added to the request.
	Cookies []*http.Cookie
	// Timeout bounds the request including its body. Zero uses the client timeout only.
	Timeout time.Duration
	// AllowRedirects overrides the configured redirect policy.
	AllowRedirects *bool
}

const (
	contentTypeHeader   = "Content-Type"
	authorizationHeader = "Authorization"
	contentTypeJSON     = "application/json"
	contentTypeForm     = "application/x-www-form-urlencoded"
)

// newRequest builds a transport request. Every failure wraps errs.ErrBuilder.
func newRequest(ctx context.Context, method, rawURL string, opts *RequestOptions) (*http.Request, error) {
	target, err := parseURL(rawURL, "http", "https")
	if err != nil {
		return nil, err
	}

	if len(opts.Query) > 0 {
		query := target.Query()

		for key, values := range opts.Query {
			for _, value := range values {
				query.Add(key, value)
			}
		}

		target.RawQuery = query.Encode()
	}

	body, contentType, err := requestBody(opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, errs.Builder(err)
	}

	for key, values := range opts.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	if contentType != "" && req.Header.Get(contentTypeHeader) == "" {
		req.Header.Set(contentTypeHeader, contentType)
	}

	if opts.BasicAuth != nil {
		req.SetBasicAuth(opts.BasicAuth.Username, opts.BasicAuth.Password)
	}

	if opts.BearerToken != "" {
		req.Header.Set(authorizationHeader, "Bearer "+opts.BearerToken)
	}

	for _, cookie := range opts.Cookies {
		req.AddCookie(cookie)
	}

	return req, nil
}

// requestBody picks the single body source of a request.
func requestBody(opts *RequestOptions) (io.Reader, string, error) {
	sources := 0

	for _, isSet := range []bool{opts.Form != nil, opts.JSON != nil, opts.Body != nil} {
		if isSet {
			sources++
		}
	}

	if sources > 1 {
		return nil, "", ErrConflictingBody
	}

	switch {
	case opts.Form != nil:
		return strings.NewReader(opts.Form.Encode()), contentTypeForm, nil
	case opts.JSON != nil:
		data, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, "", errs.Builder(fmt.Errorf("failed to encode JSON body: %w", err))
		}

		return bytes.NewReader(data), contentTypeJSON, nil
	case opts.Body != nil:
		return opts.Body, "", nil
	default:
		return http.NoBody, "", nil
	}
}

// parseURL parses an absolute URL and checks its scheme.
func parseURL(rawURL string, schemes ...string) (*url.URL, error) {
	target, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, errs.Builder(err)
	}

	if target.Host == "" {
		return nil, errs.Builder(fmt.Errorf("URL %q has no host", rawURL))
	}

	target.Scheme = strings.ToLower(target.Scheme)

	for _, scheme := range schemes {
		if target.Scheme == scheme {
			return target, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, target.Scheme)
}
