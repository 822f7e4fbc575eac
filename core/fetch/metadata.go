package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"oneradio/config"
	"oneradio/core/apperr"
	"oneradio/model"
)

// Metadata is the best-effort information the out-of-scope "metadata
// resolver" collaborator returns for a URL: title, duration, thumbnail.
type Metadata struct {
	Title     string
	Duration  *float64
	Thumbnail string
}

// MetadataCache is implemented by cache.MetadataCache; kept as an interface
// here so this package has no dependency on the cache package's Redis
// client, only on the behavior it needs.
type MetadataCache interface {
	Get(ctx context.Context, url string) (Metadata, bool)
	Set(ctx context.Context, url string, m Metadata)
}

// MetadataResolver resolves title/duration/thumbnail for a normalized URL,
// checking cache first and falling through to the provider on a miss.
type MetadataResolver struct {
	cfg    *config.Config
	cache  MetadataCache
	client *http.Client
}

// NewMetadataResolver builds a MetadataResolver. cache may be nil, in which
// case every call is a cache miss.
func NewMetadataResolver(cfg *config.Config, cache MetadataCache) *MetadataResolver {
	return &MetadataResolver{cfg: cfg, cache: cache, client: &http.Client{}}
}

func (r *MetadataResolver) Resolve(ctx context.Context, source model.Source, normalizedURL string) (Metadata, error) {
	if r.cache != nil {
		if m, ok := r.cache.Get(ctx, normalizedURL); ok {
			return m, nil
		}
	}

	var (
		m   Metadata
		err error
	)
	switch source {
	case model.SourceYouTube:
		m, err = r.resolveYouTubeOEmbed(ctx, normalizedURL)
	case model.SourceSoundCloud:
		m, err = r.resolveSoundCloud(ctx, normalizedURL)
	default:
		return Metadata{}, ErrUnsupported
	}
	if err != nil {
		return Metadata{}, err
	}

	if r.cache != nil {
		r.cache.Set(ctx, normalizedURL, m)
	}
	return m, nil
}

type oEmbedResponse struct {
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (r *MetadataResolver) resolveYouTubeOEmbed(ctx context.Context, rawURL string) (Metadata, error) {
	q := url.Values{}
	q.Set("url", rawURL)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.youtube.com/oembed?"+q.Encode(), nil)
	if err != nil {
		return Metadata{}, apperr.Wrap(apperr.Internal, "build oembed request", err)
	}
	req.Header.Set("User-Agent", r.cfg.YoutubeUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return Metadata{}, apperr.Wrap(apperr.UpstreamFailure, "oembed request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Metadata{}, ErrUnsupported
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Metadata{}, apperr.New(apperr.UpstreamFailure, fmt.Sprintf("oembed status %d", resp.StatusCode))
	}

	var decoded oEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Metadata{}, apperr.Wrap(apperr.UpstreamFailure, "oembed decode failed", err)
	}

	return Metadata{Title: decoded.Title, Thumbnail: decoded.ThumbnailURL}, nil
}

func (r *MetadataResolver) resolveSoundCloud(ctx context.Context, rawURL string) (Metadata, error) {
	if r.cfg.SoundcloudClientID == "" {
		return Metadata{}, apperr.New(apperr.FeatureDisabled, "soundcloud is not configured")
	}

	q := url.Values{}
	q.Set("url", rawURL)
	q.Set("client_id", r.cfg.SoundcloudClientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, soundcloudResolveURL+"?"+q.Encode(), nil)
	if err != nil {
		return Metadata{}, apperr.Wrap(apperr.Internal, "build soundcloud resolve request", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Metadata{}, apperr.Wrap(apperr.UpstreamFailure, "soundcloud resolve failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Metadata{}, apperr.New(apperr.UpstreamFailure, fmt.Sprintf("soundcloud resolve status %d", resp.StatusCode))
	}

	var decoded struct {
		Kind        string  `json:"kind"`
		Title       string  `json:"title"`
		Duration    float64 `json:"duration"`
		ArtworkURL  string  `json:"artwork_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Metadata{}, apperr.Wrap(apperr.UpstreamFailure, "soundcloud resolve decode failed", err)
	}
	if decoded.Kind != "track" {
		return Metadata{}, apperr.New(apperr.UnsupportedURL, "soundcloud playlists are not supported")
	}

	seconds := decoded.Duration / 1000
	return Metadata{Title: decoded.Title, Duration: &seconds, Thumbnail: decoded.ArtworkURL}, nil
}
