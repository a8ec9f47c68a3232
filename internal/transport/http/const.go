package http

const (
	// acceptEncodingHeader lists the encodings the client can decode.
	acceptEncodingHeader = "Accept-Encoding"
	// contentEncodingHeader names the encoding applied to a response body.
	contentEncodingHeader = "Content-Encoding"
	// contentLengthHeader is the declared size of a body.
	contentLengthHeader = "Content-Length"
	// contentTypeHeader is the media type of a body.
	contentTypeHeader = "Content-Type"
)

// Content encodings understood by DecompressionTransport.
const (
	EncodingGzip    = "gzip"
	EncodingDeflate = "deflate"
	EncodingZstd    = "zstd"
)
