// Package fetch resolves a Track's URL into an AudioInput the Encoder
// Pipeline can consume, with a per-source primary/fallback policy and a
// startup timeout. Grounded on the teacher's core/netease.Client (a thin
// http.Client wrapper) for the HTTP-fallback shape, generalized to the two
// real sources this spec requires.
package fetch

import (
	"context"
	"errors"
	"time"

	"oneradio/core/apperr"
	"oneradio/core/encoder"
	"oneradio/model"
)

// Timeouts from spec §4.2 / §5.
const (
	InProcessStartupTimeout = 5 * time.Second
	SubprocessStartupTimeout = 90 * time.Second
	HTTPFallbackHopTimeout   = 10 * time.Second
	HTTPFallbackMaxRedirects = 5
)

var (
	// ErrUnsupported means the URL is neither a recognized video nor a
	// recognized single track.
	ErrUnsupported = apperr.New(apperr.UnsupportedURL, "unsupported url")
)

// Fetcher resolves a Track's normalized URL into an AudioInput.
type Fetcher interface {
	Fetch(ctx context.Context, track *model.Track) (encoder.AudioInput, error)
}

// Dispatcher routes a Track to the Fetcher registered for its Source. It is
// itself a Fetcher, so the engine only ever talks to one interface.
type Dispatcher struct {
	bySource map[model.Source]Fetcher
}

// NewDispatcher builds a Dispatcher over the given per-source fetchers.
func NewDispatcher(youtube, soundcloud Fetcher) *Dispatcher {
	return &Dispatcher{bySource: map[model.Source]Fetcher{
		model.SourceYouTube:    youtube,
		model.SourceSoundCloud: soundcloud,
	}}
}

func (d *Dispatcher) Fetch(ctx context.Context, track *model.Track) (encoder.AudioInput, error) {
	f, ok := d.bySource[track.Source]
	if !ok || f == nil {
		return encoder.AudioInput{}, ErrUnsupported
	}
	return f.Fetch(ctx, track)
}

// errIsContextDeadline reports whether err is (or wraps) a context deadline
// exceeded error, used to translate stdlib timeouts into apperr.Timeout.
func errIsContextDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
