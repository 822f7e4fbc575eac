package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"oneradio/core/apperr"
	"oneradio/core/encoder"
)

// HTTPFallbackFetcher opens a direct URL generically, used when a source's
// own resolver fails. It follows at most HTTPFallbackMaxRedirects redirects
// with a per-hop timeout, and requires an audio content-type / 2xx status.
type HTTPFallbackFetcher struct {
	client *http.Client
}

// NewHTTPFallbackFetcher builds an HTTPFallbackFetcher with the redirect and
// per-hop timeout policy spec §4.2 requires.
func NewHTTPFallbackFetcher() *HTTPFallbackFetcher {
	// The timeout sits on the transport, so it applies to each hop's wait for
	// response headers and never cuts off the audio body while it streams.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = HTTPFallbackHopTimeout
	return &HTTPFallbackFetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= HTTPFallbackMaxRedirects {
					return fmt.Errorf("fetch: too many redirects")
				}
				return nil
			},
		},
	}
}

// FetchURL opens rawURL directly and returns its body as an AudioInput
// stream, or a FetchUpstream-classified error on a non-2xx or non-audio
// response.
func (f *HTTPFallbackFetcher) FetchURL(ctx context.Context, rawURL string) (encoder.AudioInput, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return encoder.AudioInput{}, apperr.Wrap(apperr.Internal, "build fallback request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errIsContextDeadline(err) {
			return encoder.AudioInput{}, apperr.Wrap(apperr.Timeout, "http fallback fetch timed out", err)
		}
		return encoder.AudioInput{}, apperr.Wrap(apperr.UpstreamFailure, "http fallback fetch failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return encoder.AudioInput{}, apperr.New(apperr.UpstreamFailure, fmt.Sprintf("fallback upstream status %d", resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "audio/") && !strings.Contains(contentType, "octet-stream") {
		resp.Body.Close()
		return encoder.AudioInput{}, apperr.New(apperr.UpstreamFailure, fmt.Sprintf("fallback upstream non-audio content-type %q", contentType))
	}

	return encoder.StreamInput(resp.Body), nil
}
