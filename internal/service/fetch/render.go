package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/nitai/internal/errs"
	"github.com/oshokin/nitai/internal/response"
)

//nolint:gochecknoglobals // Stateless, concurrency-safe codec configuration.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

const jsonIndent = "  "

// render converts a response into printable output according to opts.
func (s *ServiceImpl) render(ctx context.Context, resp *response.Response, opts *RenderOptions) ([]byte, error) {
	switch opts.Format {
	case FormatMeta:
		output, err := yaml.Marshal(newMetadata(resp))
		if err != nil {
			return nil, errs.Decode(err)
		}

		return output, nil
	case FormatJSON:
		value, err := resp.JSON(ctx)
		if err != nil {
			return nil, err
		}

		output, err := json.MarshalIndent(value, "", jsonIndent)
		if err != nil {
			return nil, errs.Decode(err)
		}

		s.addBytesReceived(int64(len(output)))

		return append(output, '\n'), nil
	case FormatQuery:
		result, err := resp.JSONPath(ctx, opts.Query)
		if err != nil {
			return nil, err
		}

		if !result.Exists() {
			return nil, fmt.Errorf("%w: %q", ErrNoMatch, opts.Query)
		}

		return append([]byte(result.String()), '\n'), nil
	case FormatText:
		text, err := resp.Text(ctx)
		if err != nil {
			return nil, err
		}

		s.addBytesReceived(int64(len(text)))

		return []byte(text), nil
	default:
		return nil, fmt.Errorf("unknown output format %d", opts.Format)
	}
}

// newMetadata collects the immutable metadata of a response.
func newMetadata(resp *response.Response) *Metadata {
	metadata := &Metadata{
		ID:            resp.ID(),
		URL:           responseURL(resp, ""),
		StatusCode:    resp.StatusCode(),
		Status:        resp.Status(),
		Proto:         resp.Proto(),
		ContentLength: resp.ContentLength(),
		Header:        resp.Header(),
		History:       resp.History(),
	}

	if addr := resp.LocalAddr(); addr != nil {
		metadata.LocalAddr = addr.String()
	}

	if addr := resp.RemoteAddr(); addr != nil {
		metadata.RemoteAddr = addr.String()
	}

	if certificate := resp.PeerCertificate(); certificate != nil {
		fingerprint := sha256.Sum256(certificate)
		metadata.PeerCertificate = hex.EncodeToString(fingerprint[:])
	}

	return metadata
}
