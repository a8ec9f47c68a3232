package response

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/oshokin/nitai/internal/errs"
)

// defaultCharset is used when the Content-Type header names no charset.
const defaultCharset = "utf-8"

//nolint:gochecknoglobals // Stateless, concurrency-safe codec configuration.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Static error definitions for better error handling.
var (
	// ErrUnknownCharset indicates a charset label that has no known decoder.
	ErrUnknownCharset = fmt.Errorf("%w: unknown charset", errs.ErrDecode)
	// ErrInvalidJSON indicates a body that is not valid JSON.
	ErrInvalidJSON = fmt.Errorf("%w: body is not valid JSON", errs.ErrDecode)
)

// Bytes returns the body. The returned slice is a private copy.
func (r *Response) Bytes(ctx context.Context) ([]byte, error) {
	return r.buffered(ctx)
}

// Text returns the body decoded with the charset of the Content-Type header, UTF-8 by default.
func (r *Response) Text(ctx context.Context) (string, error) {
	return r.TextWithCharset(ctx, defaultCharset)
}

// TextWithCharset returns the body decoded with the charset of the Content-Type header,
// or with fallbackCharset when the header names none.
func (r *Response) TextWithCharset(ctx context.Context, fallbackCharset string) (string, error) {
	buffer, err := r.buffered(ctx)
	if err != nil {
		return "", err
	}

	charset := fallbackCharset
	if _, params, parseErr := mime.ParseMediaType(r.header.Get("Content-Type")); parseErr == nil {
		if value := strings.TrimSpace(params["charset"]); value != "" {
			charset = value
		}
	}

	return decodeText(buffer, charset)
}

// JSON returns the body decoded into generic JSON values
// (map[string]any, []any, string, float64, bool or nil).
func (r *Response) JSON(ctx context.Context) (any, error) {
	return DecodeJSON[any](ctx, r)
}

// JSONPath returns the value selected by a gjson path from the body.
func (r *Response) JSONPath(ctx context.Context, path string) (gjson.Result, error) {
	buffer, err := r.buffered(ctx)
	if err != nil {
		return gjson.Result{}, err
	}

	if !gjson.ValidBytes(buffer) {
		return gjson.Result{}, ErrInvalidJSON
	}

	return gjson.GetBytes(buffer, path), nil
}

// DecodeJSON decodes the body into a value of type T.
func DecodeJSON[T any](ctx context.Context, r *Response) (T, error) {
	var result T

	buffer, err := r.buffered(ctx)
	if err != nil {
		return result, err
	}

	if err = json.Unmarshal(buffer, &result); err != nil {
		return result, errs.Decode(err)
	}

	return result, nil
}

// buffered materializes a reusable response and reads its body into a private copy.
func (r *Response) buffered(ctx context.Context) ([]byte, error) {
	resp, err := r.materialize(ctx, false)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close() //nolint:errcheck // In-memory reader.

	buffer, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Library(err)
	}

	return buffer, nil
}

func decodeText(buffer []byte, charset string) (string, error) {
	encoding, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("%w: '%s'", ErrUnknownCharset, charset)
	}

	decoded, err := encoding.NewDecoder().Bytes(buffer)
	if err != nil {
		return "", errs.Decode(err)
	}

	return string(decoded), nil
}
