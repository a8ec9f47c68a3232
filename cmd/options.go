package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/spf13/pflag"

	"github.com/oshokin/nitai/internal/app"
	"github.com/oshokin/nitai/internal/client"
	"github.com/oshokin/nitai/internal/service/fetch"
)

// Static error definitions for better error handling.
var (
	// ErrInvalidHeader indicates a header flag that is not in the "Name: value" form.
	ErrInvalidHeader = errors.New("header must look like 'Name: value'")
	// ErrInvalidFormField indicates a form flag that is not in the "name=value" form.
	ErrInvalidFormField = errors.New("form field must look like 'name=value'")
	// ErrInvalidCredentials indicates a user flag that is not in the "user:password" form.
	ErrInvalidCredentials = errors.New("credentials must look like 'user:password'")
	// ErrConflictingFormats indicates that more than one output format was requested.
	ErrConflictingFormats = errors.New("only one of --json, --query and --meta can be set")
)

// addFetchFlags registers the flags shared by every command that sends HTTP requests.
func addFetchFlags(flags *pflag.FlagSet) {
	flags.StringP("input", "i", "", "file with one URL per line, lines starting with '#' are skipped.")
	flags.StringArrayP("header", "H", nil, "extra request header, for example: 'Accept: text/html'. Can be repeated.")
	flags.StringP("user", "u", "", "basic authentication credentials in the 'user:password' form.")
	flags.String("bearer", "", "bearer token sent in the Authorization header.")
	flags.StringArrayP("cookie", "b", nil, "cookie sent with the request, for example: 'session=abc'. Can be repeated.")
	flags.DurationP("timeout", "t", 0, "timeout of each request, including reading its body.")
	flags.Bool("no-redirects", false, "do not follow redirects.")
	flags.Bool("json", false, "print bodies as indented JSON.")
	flags.StringP("query", "q", "", "print the result of a gjson path evaluated against each body.")
	flags.Bool("meta", false, "print response metadata with the redirect history as YAML instead of bodies.")
	flags.StringP("output", "o", "", "save bodies into a file, or into a directory when fetching several URLs.")
	flags.BoolP("fail", "f", false, "treat 4xx and 5xx answers as failures.")
}

// fetchParamsFromFlags collects the fetch flags into application parameters.
func fetchParamsFromFlags(flags *pflag.FlagSet, method string, urls []string) (*app.FetchParams, error) {
	options, err := requestOptionsFromFlags(flags)
	if err != nil {
		return nil, err
	}

	render, err := renderOptionsFromFlags(flags)
	if err != nil {
		return nil, err
	}

	params := &app.FetchParams{
		Method:  method,
		URLs:    urls,
		Options: options,
		Render:  render,
	}

	params.InputFile, _ = flags.GetString("input")

	if flags.Lookup("method") != nil {
		params.Method, _ = flags.GetString("method")
	}

	if flags.Lookup("data") != nil {
		params.Data, _ = flags.GetString("data")
	}

	return params, nil
}

func requestOptionsFromFlags(flags *pflag.FlagSet) (*client.RequestOptions, error) {
	options := new(client.RequestOptions)

	rawHeaders, _ := flags.GetStringArray("header")

	header, err := parseHeaders(rawHeaders)
	if err != nil {
		return nil, err
	}

	options.Header = header

	if user, _ := flags.GetString("user"); user != "" {
		if options.BasicAuth, err = parseBasicAuth(user); err != nil {
			return nil, err
		}
	}

	options.BearerToken, _ = flags.GetString("bearer")
	options.Timeout, _ = flags.GetDuration("timeout")

	rawCookies, _ := flags.GetStringArray("cookie")
	for _, rawCookie := range rawCookies {
		cookies, parseErr := http.ParseCookie(rawCookie)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid cookie %q: %w", rawCookie, parseErr)
		}

		options.Cookies = append(options.Cookies, cookies...)
	}

	if noRedirects, _ := flags.GetBool("no-redirects"); noRedirects {
		allowRedirects := false
		options.AllowRedirects = &allowRedirects
	}

	if flags.Lookup("form") != nil {
		rawForm, _ := flags.GetStringArray("form")

		if options.Form, err = parseForm(rawForm); err != nil {
			return nil, err
		}
	}

	return options, nil
}

func renderOptionsFromFlags(flags *pflag.FlagSet) (*fetch.RenderOptions, error) {
	var (
		render   = new(fetch.RenderOptions)
		selected int
	)

	if asJSON, _ := flags.GetBool("json"); asJSON {
		render.Format = fetch.FormatJSON
		selected++
	}

	if query, _ := flags.GetString("query"); query != "" {
		render.Format = fetch.FormatQuery
		render.Query = query
		selected++
	}

	if meta, _ := flags.GetBool("meta"); meta {
		render.Format = fetch.FormatMeta
		selected++
	}

	if selected > 1 {
		return nil, ErrConflictingFormats
	}

	render.OutputPath, _ = flags.GetString("output")
	render.FailOnErrorStatus, _ = flags.GetBool("fail")

	return render, nil
}

// parseHeaders parses "Name: value" pairs; repeated names keep every value.
func parseHeaders(rawHeaders []string) (http.Header, error) {
	if len(rawHeaders) == 0 {
		return nil, nil
	}

	header := make(http.Header, len(rawHeaders))

	for _, rawHeader := range rawHeaders {
		name, value, found := strings.Cut(rawHeader, ":")

		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHeader, rawHeader)
		}

		header.Add(textproto.CanonicalMIMEHeaderKey(name), strings.TrimSpace(value))
	}

	return header, nil
}

// parseForm parses "name=value" pairs into form values.
func parseForm(rawFields []string) (url.Values, error) {
	if len(rawFields) == 0 {
		return nil, nil
	}

	form := make(url.Values, len(rawFields))

	for _, rawField := range rawFields {
		name, value, found := strings.Cut(rawField, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFormField, rawField)
		}

		form.Add(name, value)
	}

	return form, nil
}

// parseBasicAuth parses "user:password" credentials.
func parseBasicAuth(credentials string) (*client.BasicAuth, error) {
	username, password, found := strings.Cut(credentials, ":")
	if !found || username == "" {
		return nil, ErrInvalidCredentials
	}

	return &client.BasicAuth{Username: username, Password: password}, nil
}
