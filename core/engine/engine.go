// Package engine implements the Broadcast Engine: the serial controller
// that drives the queue, the per-source fetcher, the encoder subprocess and
// the fan-out bus through one playing-track-at-a-time state machine.
//
// Grounded on the teacher's server/ws_stream.go, which drives a comparable
// fetch-then-transcode-then-stream pipeline from a single goroutine per
// session; here the pipeline is process-wide and the per-session callbacks
// become engine-owned state transitions guarded by one mutex instead of
// per-field locks, because several invariants ("exactly one of playing,
// starting true") span multiple fields at once.
package engine

import (
	"context"
	"sync"
	"time"

	"oneradio/core/broadcast"
	"oneradio/core/encoder"
	"oneradio/core/fetch"
	"oneradio/core/queue"
	"oneradio/logger"
	"oneradio/model"
)

// dataSafetyTimeout bounds how long the engine waits for the encoder's first
// data event before treating the track as stuck.
const dataSafetyTimeout = 30 * time.Second

// skipCooldown is how long skipCurrent holds the skipping guard up, long
// enough for the killed encoder's own end/error event to arrive and be
// suppressed before playNext runs.
const skipCooldown = 150 * time.Millisecond

const (
	playNextAfterEnd     = 100 * time.Millisecond
	playNextAfterFailure = 1 * time.Second
)

// HistoryRecorder persists a PlayHistory row once a track leaves the
// current slot. Implemented by repository.PlayHistoryRepository; kept as an
// interface here so the engine has no dependency on GORM.
type HistoryRecorder interface {
	RecordPlay(ctx context.Context, rec model.PlayHistory) error
}

// StatusPublisher is notified with the freshly derived snapshot on every
// track transition. Implemented by the status bus the /ws/status handler
// reads from.
type StatusPublisher interface {
	Publish(state model.StreamState)
}

// pipelineHandle is the slice of *encoder.Pipeline the engine actually
// depends on, extracted as an interface so tests can drive the state
// machine with a fake pipeline instead of a real ffmpeg subprocess.
type pipelineHandle interface {
	Events() <-chan encoder.Event
	Kill()
	Suspend() error
	Resume() error
}

// startEncoderFunc launches an encoder pipeline for input. The production
// default is encoder.Start; tests substitute a fake.
type startEncoderFunc func(ffmpegPath, bitrate string, input encoder.AudioInput) (pipelineHandle, error)

func startRealEncoder(ffmpegPath, bitrate string, input encoder.AudioInput) (pipelineHandle, error) {
	return encoder.Start(ffmpegPath, bitrate, input)
}

// Engine is the process-wide broadcast controller. One instance is
// constructed at startup and shared by every HTTP handler.
type Engine struct {
	cfg     *encoderConfig
	queue   *queue.Queue
	fetcher fetch.Fetcher
	bus     *broadcast.Bus

	history   HistoryRecorder
	publisher StatusPublisher

	mu         sync.Mutex
	status     Status
	current    *model.Track
	lastPlayed *model.Track

	pausedAt            *time.Time
	totalPausedDuration time.Duration

	startEncoder startEncoderFunc
	pipeline     pipelineHandle
	input        encoder.AudioInput

	thumbnails map[model.Source]string

	skipping bool

	startedAt map[string]time.Time // trackID -> wall-clock start, for history
}

// encoderConfig is the subset of config.Config the engine needs to start an
// encoder pipeline, kept narrow so tests don't need a full config.Config.
type encoderConfig struct {
	FFmpegPath   string
	AudioBitrate string
}

// Options configures a new Engine.
type Options struct {
	FFmpegPath   string
	AudioBitrate string
	Queue        *queue.Queue
	Fetcher      fetch.Fetcher
	Bus          *broadcast.Bus
	History      HistoryRecorder
	Publisher    StatusPublisher
}

// New builds an Engine. History and Publisher may be nil.
func New(opts Options) *Engine {
	return &Engine{
		cfg:          &encoderConfig{FFmpegPath: opts.FFmpegPath, AudioBitrate: opts.AudioBitrate},
		queue:        opts.Queue,
		fetcher:      opts.Fetcher,
		bus:          opts.Bus,
		history:      opts.History,
		publisher:    opts.Publisher,
		status:       StatusIdle,
		thumbnails:   make(map[model.Source]string),
		startedAt:    make(map[string]time.Time),
		startEncoder: startRealEncoder,
	}
}

// EnsurePlaying starts playback from the head of the queue if the engine is
// currently idle. Idempotent: concurrent/redundant calls while starting or
// playing are no-ops.
func (e *Engine) EnsurePlaying() {
	e.mu.Lock()
	if e.status != StatusIdle {
		e.mu.Unlock()
		return
	}
	track := e.queue.Dequeue()
	if track == nil {
		if e.queue.Size() == 0 {
			e.lastPlayed = nil
		}
		e.mu.Unlock()
		return
	}
	e.status = StatusStarting
	e.mu.Unlock()

	go e.startTrack(track)
}

// playNext is the internal equivalent of EnsurePlaying invoked after a
// track ends, errors, or is skipped; status is idle by the time it runs.
func (e *Engine) playNext() {
	e.EnsurePlaying()
}

func (e *Engine) startTrack(track *model.Track) {
	ctx := context.Background()

	input, err := e.fetcher.Fetch(ctx, track)
	if err != nil {
		logger.Warn("fetch failed", logger.String("trackId", track.ID), logger.ErrorField(err))
		e.abortStart(track, playNextAfterFailure)
		return
	}

	pipeline, err := e.startEncoder(e.cfg.FFmpegPath, e.cfg.AudioBitrate, input)
	if err != nil {
		logger.Warn("encoder start failed", logger.String("trackId", track.ID), logger.ErrorField(err))
		closeAudioInput(input)
		e.abortStart(track, playNextAfterFailure)
		return
	}

	e.mu.Lock()
	e.pipeline = pipeline
	e.input = input
	e.mu.Unlock()

	e.runPipeline(track, pipeline)
}

// abortStart resets the engine to idle after a failed fetch/encoder start
// and schedules a retry of the next track after delay.
func (e *Engine) abortStart(track *model.Track, delay time.Duration) {
	e.mu.Lock()
	e.status = StatusIdle
	e.pipeline = nil
	e.mu.Unlock()

	time.AfterFunc(delay, e.playNext)
}

func (e *Engine) runPipeline(track *model.Track, pipeline pipelineHandle) {
	safety := time.NewTimer(dataSafetyTimeout)
	defer safety.Stop()
	started := false

	for {
		select {
		case ev, ok := <-pipeline.Events():
			if !ok {
				return
			}
			switch ev.Type {
			case encoder.EventStarted:
				// Wait for the first data event before declaring the track
				// playing; a subprocess can start without ever producing
				// audio (e.g. a bad remote URL).

			case encoder.EventData:
				if !started {
					started = true
					safety.Stop()
					e.onFirstChunk(track)
				}
				e.bus.Broadcast(ev.Chunk)

			case encoder.EventEnd:
				e.finishPipeline(track, pipeline, model.EndReasonCompleted, playNextAfterEnd)
				return

			case encoder.EventError:
				logger.Warn("encoder error", logger.String("trackId", track.ID), logger.ErrorField(ev.Err))
				e.finishPipeline(track, pipeline, model.EndReasonError, playNextAfterEnd)
				return
			}

		case <-safety.C:
			logger.Warn("encoder stalled, no data within safety timeout", logger.String("trackId", track.ID))
			pipeline.Kill()
			e.finishPipeline(track, pipeline, model.EndReasonError, playNextAfterFailure)
			return
		}
	}
}

// onFirstChunk transitions starting -> playing on the encoder's first data
// event: stamps startedAt, resets pause accumulators, records the thumbnail,
// and flips the bus into "playing" mode so the idle ticker stands down.
func (e *Engine) onFirstChunk(track *model.Track) {
	now := time.Now()

	e.mu.Lock()
	ms := now.UnixMilli()
	track.StartedAt = &ms
	e.current = track
	e.pausedAt = nil
	e.totalPausedDuration = 0
	e.thumbnails[track.Source] = track.Thumbnail
	for source := range e.thumbnails {
		if source != track.Source {
			delete(e.thumbnails, source)
		}
	}
	e.startedAt[track.ID] = now
	e.status = StatusPlaying
	e.mu.Unlock()

	e.bus.SetPlaying(true)
	e.publishSnapshot()
}

// finishPipeline tears down the current track's pipeline and input, clears
// current, records history, and schedules playNext — unless a skip already
// took responsibility for this track (the skipping guard suppresses the
// encoder's own end/error event from double-advancing the queue).
func (e *Engine) finishPipeline(track *model.Track, pipeline pipelineHandle, reason string, delay time.Duration) {
	e.mu.Lock()
	if e.skipping {
		e.mu.Unlock()
		return
	}
	e.teardownLocked(pipeline)
	e.status = StatusIdle
	e.mu.Unlock()

	pipeline.Kill()
	e.bus.SetPlaying(false)
	e.bus.GapSilence()
	e.recordHistory(track, reason)
	e.publishSnapshot()

	time.AfterFunc(delay, e.playNext)
}

// teardownLocked must be called with mu held. It clears current, moves it to
// lastPlayed, and releases the pipeline/input handles.
func (e *Engine) teardownLocked(pipeline pipelineHandle) {
	if e.current != nil {
		e.lastPlayed = e.current
	}
	e.current = nil
	if e.pipeline == pipeline {
		e.pipeline = nil
	}
	closeAudioInput(e.input)
	e.input = encoder.AudioInput{}
}

// SkipCurrent kills the in-flight track and advances to the next one,
// guarding against the killed encoder's own end/error event also trying to
// advance the queue.
func (e *Engine) SkipCurrent() {
	e.mu.Lock()
	if e.status != StatusPlaying && e.status != StatusPausedWhilePlaying {
		e.mu.Unlock()
		return
	}
	pipeline := e.pipeline
	track := e.current
	e.skipping = true
	e.status = StatusSkipping
	e.teardownLocked(pipeline)
	e.mu.Unlock()

	if pipeline != nil {
		pipeline.Kill()
	}
	e.bus.SetPlaying(false)
	e.bus.SetPaused(false)
	e.bus.GapSilence()
	if track != nil {
		e.recordHistory(track, model.EndReasonSkipped)
	}
	e.publishSnapshot()

	time.AfterFunc(skipCooldown, func() {
		e.mu.Lock()
		e.skipping = false
		e.status = StatusIdle
		e.mu.Unlock()
		e.playNext()
	})
}

// SetPaused toggles pause. Pausing freezes the encoder subprocess (via a
// process control signal) and tells the Fan-out Bus to substitute silence;
// resuming reverses both and commits the elapsed pause time. Calls outside
// the playing/paused-while-playing states are no-ops, matching the state
// machine's explicit transition table.
func (e *Engine) SetPaused(paused bool) {
	e.mu.Lock()
	switch {
	case paused && e.status == StatusPlaying:
		now := time.Now()
		e.pausedAt = &now
		e.status = StatusPausedWhilePlaying
		pipeline := e.pipeline
		e.mu.Unlock()

		e.bus.SetPaused(true)
		if pipeline != nil {
			if err := pipeline.Suspend(); err != nil {
				logger.Warn("encoder suspend failed", logger.ErrorField(err))
			}
		}
		e.publishSnapshot()

	case !paused && e.status == StatusPausedWhilePlaying:
		if e.pausedAt != nil {
			e.totalPausedDuration += time.Since(*e.pausedAt)
		}
		e.pausedAt = nil
		e.status = StatusPlaying
		pipeline := e.pipeline
		e.mu.Unlock()

		e.bus.SetPaused(false)
		if pipeline != nil {
			if err := pipeline.Resume(); err != nil {
				logger.Warn("encoder resume failed", logger.ErrorField(err))
			}
		}
		e.publishSnapshot()

	default:
		e.mu.Unlock()
	}
}

// AttachListener registers a new listener sink with the Fan-out Bus.
func (e *Engine) AttachListener() *broadcast.Sink {
	return e.bus.Attach()
}

// DetachListener removes a listener sink.
func (e *Engine) DetachListener(s *broadcast.Sink) {
	e.bus.Detach(s)
}

// CurrentThumbnail returns the cached thumbnail URL for source, or "" if
// none is current.
func (e *Engine) CurrentThumbnail(source model.Source) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thumbnails[source]
}

// EnqueueAndMaybeStart delegates to the queue and opportunistically starts
// playback if the engine is idle.
func (e *Engine) EnqueueAndMaybeStart(p queue.Payload) *model.Track {
	t := e.queue.Enqueue(p)
	e.EnsurePlaying()
	return t
}

// RemoveFromQueue removes a pending track by id. Has no effect on the
// currently playing track, which is never in the queue.
func (e *Engine) RemoveFromQueue(id string) bool {
	return e.queue.Remove(id)
}

// MoveInQueue relocates a pending track to newIndex, clamped into range.
func (e *Engine) MoveInQueue(id string, newIndex int) bool {
	return e.queue.Move(id, newIndex)
}

func (e *Engine) recordHistory(track *model.Track, reason string) {
	if e.history == nil || track == nil {
		return
	}
	e.mu.Lock()
	startedAt, ok := e.startedAt[track.ID]
	delete(e.startedAt, track.ID)
	e.mu.Unlock()
	if !ok {
		startedAt = time.Now()
	}

	rec := model.PlayHistory{
		TrackID:     track.ID,
		Source:      string(track.Source),
		Title:       track.Title,
		URL:         track.URL,
		RequesterID: track.RequestedBy.ID,
		StartedAt:   startedAt,
		EndedAt:     time.Now(),
		EndReason:   reason,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.history.RecordPlay(ctx, rec); err != nil {
			logger.Warn("play history write failed", logger.String("trackId", track.ID), logger.ErrorField(err))
		}
	}()
}

func (e *Engine) publishSnapshot() {
	if e.publisher == nil {
		return
	}
	e.publisher.Publish(e.Snapshot())
}

func closeAudioInput(input encoder.AudioInput) {
	if input.Kind == encoder.InputStream && input.Stream != nil {
		input.Stream.Close()
	}
}
