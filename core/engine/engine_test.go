package engine

import (
	"context"
	"testing"
	"time"

	"oneradio/core/broadcast"
	"oneradio/core/encoder"
	"oneradio/core/queue"
	"oneradio/model"
)

// fakeFetcher returns a pre-built AudioInput for every track, regardless of
// source, so engine tests never touch the network or a subprocess.
type fakeFetcher struct{}

func (fakeFetcher) Fetch(ctx context.Context, track *model.Track) (encoder.AudioInput, error) {
	return encoder.StreamInput(nil), nil
}

// fakePipeline is a pipelineHandle the test controls directly: it can push
// Data/End/Error events on demand and records Kill/Suspend/Resume calls.
type fakePipeline struct {
	events    chan encoder.Event
	killed    chan struct{}
	suspended int
	resumed   int
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{events: make(chan encoder.Event, 8), killed: make(chan struct{}, 1)}
}

func (p *fakePipeline) Events() <-chan encoder.Event { return p.events }
func (p *fakePipeline) Kill() {
	select {
	case p.killed <- struct{}{}:
	default:
	}
	// Like a real killed encoder, the reader still reports the end of output.
	p.events <- encoder.Event{Type: encoder.EventEnd}
	close(p.events)
}
func (p *fakePipeline) Suspend() error { p.suspended++; return nil }
func (p *fakePipeline) Resume() error  { p.resumed++; return nil }

func newTestEngine(t *testing.T, pipelines chan *fakePipeline) *Engine {
	t.Helper()
	e := New(Options{
		FFmpegPath:   "ffmpeg",
		AudioBitrate: "128k",
		Queue:        queue.New(),
		Fetcher:      fakeFetcher{},
		Bus:          broadcast.New(),
	})
	e.startEncoder = func(ffmpegPath, bitrate string, input encoder.AudioInput) (pipelineHandle, error) {
		p := <-pipelines
		return p, nil
	}
	return e
}

func waitForStatus(t *testing.T, e *Engine, want Status) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if e.Status() == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for status %q, got %q", want, e.Status())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func enqueueTrack(e *Engine, id string) {
	e.queue.Enqueue(queue.Payload{Source: model.SourceYouTube, URL: "https://youtu.be/" + id, Title: id})
}

func TestEnsurePlayingTransitionsIdleToPlayingOnFirstData(t *testing.T) {
	pipelines := make(chan *fakePipeline, 1)
	p := newFakePipeline()
	pipelines <- p

	e := newTestEngine(t, pipelines)
	enqueueTrack(e, "t1")

	e.EnsurePlaying()
	waitForStatus(t, e, StatusStarting)

	p.events <- encoder.Event{Type: encoder.EventData, Chunk: []byte("chunk")}
	waitForStatus(t, e, StatusPlaying)

	snap := e.Snapshot()
	if snap.Current == nil || snap.Current.StartedAt == nil {
		t.Fatalf("expected current track with startedAt set, got %+v", snap.Current)
	}
}

func TestEnsurePlayingIsIdempotentWhilePlaying(t *testing.T) {
	pipelines := make(chan *fakePipeline, 1)
	p := newFakePipeline()
	pipelines <- p

	e := newTestEngine(t, pipelines)
	enqueueTrack(e, "t1")
	enqueueTrack(e, "t2")

	e.EnsurePlaying()
	waitForStatus(t, e, StatusStarting)
	p.events <- encoder.Event{Type: encoder.EventData, Chunk: []byte("x")}
	waitForStatus(t, e, StatusPlaying)

	e.EnsurePlaying()
	e.EnsurePlaying()

	if e.queue.Size() != 1 {
		t.Fatalf("expected second track to remain queued, got size %d", e.queue.Size())
	}
}

func TestPauseFreezesReportedStartedAt(t *testing.T) {
	pipelines := make(chan *fakePipeline, 1)
	p := newFakePipeline()
	pipelines <- p

	e := newTestEngine(t, pipelines)
	enqueueTrack(e, "t1")
	e.EnsurePlaying()
	waitForStatus(t, e, StatusStarting)
	p.events <- encoder.Event{Type: encoder.EventData, Chunk: []byte("x")}
	waitForStatus(t, e, StatusPlaying)

	e.SetPaused(true)
	if p.suspended != 1 {
		t.Fatalf("expected encoder suspended once, got %d", p.suspended)
	}

	first := e.Snapshot()
	time.Sleep(20 * time.Millisecond)
	second := e.Snapshot()

	if *first.Current.StartedAt != *second.Current.StartedAt {
		t.Fatalf("expected startedAt to stay frozen while paused: %d != %d",
			*first.Current.StartedAt, *second.Current.StartedAt)
	}

	e.SetPaused(false)
	if p.resumed != 1 {
		t.Fatalf("expected encoder resumed once, got %d", p.resumed)
	}
}

func TestSkipCurrentDoesNotDoubleAdvance(t *testing.T) {
	pipelines := make(chan *fakePipeline, 2)
	p1 := newFakePipeline()
	p2 := newFakePipeline()
	pipelines <- p1
	pipelines <- p2

	e := newTestEngine(t, pipelines)
	enqueueTrack(e, "t1")
	enqueueTrack(e, "t2")
	enqueueTrack(e, "t3")

	e.EnsurePlaying()
	waitForStatus(t, e, StatusStarting)
	p1.events <- encoder.Event{Type: encoder.EventData, Chunk: []byte("x")}
	waitForStatus(t, e, StatusPlaying)

	firstTrackID := e.Snapshot().Current.ID

	e.SkipCurrent()

	select {
	case <-p1.killed:
	case <-time.After(time.Second):
		t.Fatalf("expected killed pipeline for skipped track")
	}

	// The killed pipeline's own EventEnd must not trigger a second playNext;
	// only the skip's scheduled playNext should advance the queue.
	waitForStatus(t, e, StatusStarting)
	p2.events <- encoder.Event{Type: encoder.EventData, Chunk: []byte("y")}
	waitForStatus(t, e, StatusPlaying)

	secondTrackID := e.Snapshot().Current.ID
	if secondTrackID == firstTrackID {
		t.Fatalf("expected a different track after skip")
	}
	if e.queue.Size() != 1 {
		t.Fatalf("expected exactly one advance (t3 still queued), got size %d", e.queue.Size())
	}
}

func TestCurrentThumbnailTracksPlayingSource(t *testing.T) {
	pipelines := make(chan *fakePipeline, 1)
	p := newFakePipeline()
	pipelines <- p

	e := newTestEngine(t, pipelines)
	e.queue.Enqueue(queue.Payload{Source: model.SourceYouTube, URL: "https://youtu.be/a", Thumbnail: "https://img/a.jpg"})

	e.EnsurePlaying()
	waitForStatus(t, e, StatusStarting)
	p.events <- encoder.Event{Type: encoder.EventData, Chunk: []byte("x")}
	waitForStatus(t, e, StatusPlaying)

	if got := e.CurrentThumbnail(model.SourceYouTube); got != "https://img/a.jpg" {
		t.Fatalf("expected youtube thumbnail cached, got %q", got)
	}
	if got := e.CurrentThumbnail(model.SourceSoundCloud); got != "" {
		t.Fatalf("expected no soundcloud thumbnail cached, got %q", got)
	}
}
