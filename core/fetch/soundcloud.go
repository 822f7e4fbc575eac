package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"oneradio/config"
	"oneradio/core/apperr"
	"oneradio/core/encoder"
	"oneradio/model"
)

// soundcloudResolveURL is SoundCloud's public resolve endpoint: given a
// track or playlist page URL, it returns the track's metadata and a stream
// URL template.
const soundcloudResolveURL = "https://api-v2.soundcloud.com/resolve"

// SoundCloudFetcher resolves a SoundCloud track URL to a direct audio
// stream via SoundCloud's resolve API, falling back to the generic HTTP
// fetcher if resolution fails. Playlists are rejected — only URLs that
// resolve to a single track with a known duration are accepted.
type SoundCloudFetcher struct {
	cfg      *config.Config
	client   *http.Client
	fallback *HTTPFallbackFetcher
}

// NewSoundCloudFetcher builds a SoundCloudFetcher from cfg.
func NewSoundCloudFetcher(cfg *config.Config) *SoundCloudFetcher {
	return &SoundCloudFetcher{
		cfg:      cfg,
		client:   &http.Client{},
		fallback: NewHTTPFallbackFetcher(),
	}
}

type soundcloudResolveResponse struct {
	Kind     string `json:"kind"` // "track" or "playlist"
	Duration int    `json:"duration"`
	Media    struct {
		Transcodings []struct {
			URL    string `json:"url"`
			Format struct {
				Protocol string `json:"protocol"` // "progressive" or "hls"
			} `json:"format"`
		} `json:"transcodings"`
	} `json:"media"`
}

func (f *SoundCloudFetcher) Fetch(ctx context.Context, track *model.Track) (encoder.AudioInput, error) {
	if f.cfg.SoundcloudClientID == "" {
		return encoder.AudioInput{}, apperr.New(apperr.FeatureDisabled, "soundcloud is not configured")
	}

	input, err := f.resolve(ctx, track.URL)
	if err == nil {
		return input, nil
	}
	return f.fallback.FetchURL(ctx, track.URL)
}

func (f *SoundCloudFetcher) resolve(ctx context.Context, trackURL string) (encoder.AudioInput, error) {
	q := url.Values{}
	q.Set("url", trackURL)
	q.Set("client_id", f.cfg.SoundcloudClientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, soundcloudResolveURL+"?"+q.Encode(), nil)
	if err != nil {
		return encoder.AudioInput{}, apperr.Wrap(apperr.Internal, "build soundcloud resolve request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return encoder.AudioInput{}, apperr.Wrap(apperr.UpstreamFailure, "soundcloud resolve failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return encoder.AudioInput{}, apperr.New(apperr.UpstreamFailure, fmt.Sprintf("soundcloud resolve status %d", resp.StatusCode))
	}

	var decoded soundcloudResolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return encoder.AudioInput{}, apperr.Wrap(apperr.UpstreamFailure, "soundcloud resolve decode failed", err)
	}

	if decoded.Kind != "track" || decoded.Duration <= 0 {
		return encoder.AudioInput{}, apperr.New(apperr.UnsupportedURL, "soundcloud playlists are not supported")
	}
	if len(decoded.Media.Transcodings) == 0 {
		return encoder.AudioInput{}, apperr.New(apperr.UpstreamFailure, "soundcloud track has no transcodings")
	}

	transcodingURL := decoded.Media.Transcodings[0].URL
	streamURL, err := f.resolveTranscodingURL(ctx, transcodingURL)
	if err != nil {
		return encoder.AudioInput{}, err
	}

	return encoder.URLInput(streamURL, nil, false), nil
}

// resolveTranscodingURL exchanges a SoundCloud transcoding descriptor URL
// for the final signed stream URL the encoder should open.
func (f *SoundCloudFetcher) resolveTranscodingURL(ctx context.Context, transcodingURL string) (string, error) {
	q := url.Values{}
	q.Set("client_id", f.cfg.SoundcloudClientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, transcodingURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "build soundcloud transcoding request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.UpstreamFailure, "soundcloud transcoding fetch failed", err)
	}
	defer resp.Body.Close()

	var decoded struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", apperr.Wrap(apperr.UpstreamFailure, "soundcloud transcoding decode failed", err)
	}
	if decoded.URL == "" {
		return "", apperr.New(apperr.UpstreamFailure, "soundcloud transcoding missing stream url")
	}
	return decoded.URL, nil
}
