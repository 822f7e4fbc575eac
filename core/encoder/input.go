package encoder

import "io"

// InputKind tags which shape an AudioInput carries.
type InputKind int

const (
	// InputStream carries a readable byte stream of raw compressed audio
	// that the encoder consumes from its stdin pipe.
	InputStream InputKind = iota
	// InputURL carries a URL the encoder itself opens, plus any headers
	// needed to authenticate the request (cookies, user agent).
	InputURL
)

// AudioInput is the tagged union the Source Fetcher hands to the Encoder
// Pipeline: either a byte stream, or a URL+headers the encoder opens on its
// own. The encoder's command line branches on Kind.
type AudioInput struct {
	Kind InputKind

	// Set when Kind == InputStream.
	Stream io.ReadCloser

	// Set when Kind == InputURL.
	URL     string
	Headers map[string]string

	// IsHLS marks a URL input that resolves to an HLS playlist, which needs
	// ffmpeg's protocol allowlist (tls, http, file, crypto) enabled.
	IsHLS bool
}

// StreamInput wraps a raw byte stream as an AudioInput.
func StreamInput(r io.ReadCloser) AudioInput {
	return AudioInput{Kind: InputStream, Stream: r}
}

// URLInput wraps a remote URL as an AudioInput.
func URLInput(url string, headers map[string]string, isHLS bool) AudioInput {
	return AudioInput{Kind: InputURL, URL: url, Headers: headers, IsHLS: isHLS}
}
