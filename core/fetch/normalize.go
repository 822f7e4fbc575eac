package fetch

import (
	"net/url"
	"strings"

	"oneradio/model"
)

var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"youtu.be":          true,
	"music.youtube.com": true,
}

var soundcloudHosts = map[string]bool{
	"soundcloud.com":     true,
	"www.soundcloud.com": true,
	"m.soundcloud.com":   true,
}

// DetectSource classifies a raw URL by its host. Returns ErrUnsupported if
// it matches neither known source.
func DetectSource(raw string) (model.Source, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrUnsupported
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case youtubeHosts[host]:
		return model.SourceYouTube, nil
	case soundcloudHosts[host]:
		return model.SourceSoundCloud, nil
	default:
		return "", ErrUnsupported
	}
}

// Normalize dispatches to the per-source normalizer. Only YouTube URLs are
// rewritten today; other sources pass through unchanged.
func Normalize(source model.Source, raw string) string {
	if source == model.SourceYouTube {
		return NormalizeYouTube(raw)
	}
	return raw
}

var youtubeTimestampParams = []string{"t", "start", "time_continue", "timestamp"}

// NormalizeYouTube strips timestamp query parameters and a timestamp
// fragment from a YouTube URL so playback always begins at 0. Non-YouTube
// URLs pass through unchanged. Applied at enqueue time.
func NormalizeYouTube(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !youtubeHosts[strings.ToLower(u.Hostname())] {
		return raw
	}

	q := u.Query()
	for _, p := range youtubeTimestampParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()

	if strings.HasPrefix(u.Fragment, "t=") || strings.HasPrefix(u.Fragment, "time_continue=") {
		u.Fragment = ""
	}

	return u.String()
}
