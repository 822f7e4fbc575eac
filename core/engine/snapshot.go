package engine

import "oneradio/model"

// Snapshot derives the externally observable StreamState. current and paused
// are read together under the engine lock; the queue and the listener count
// are read right after, each under its own lock (the queue's and the bus's),
// so they are not guaranteed to come from the same instant as current/paused.
func (e *Engine) Snapshot() model.StreamState {
	e.mu.Lock()
	current := e.reportedCurrentLocked()
	paused := e.status == StatusPausedWhilePlaying
	e.mu.Unlock()

	return model.StreamState{
		Current:   current,
		Queue:     e.queue.Snapshot(),
		Listeners: e.bus.ListenerCount(),
		Paused:    paused,
	}
}

// reportedCurrentLocked must be called with mu held. It returns a
// pause-adjusted copy of the currently playing track, or the last-played
// track while briefly between tracks, or nil once the queue has drained.
//
// The reported startedAt is shifted forward by the *committed*
// totalPausedDuration only — never by time spent in the in-progress pause —
// so the timeline freezes exactly at the pause point instead of continuing
// to drift while paused.
func (e *Engine) reportedCurrentLocked() *model.Track {
	track := e.current
	if track == nil {
		track = e.lastPlayed
	}
	if track == nil {
		return nil
	}

	out := track.Clone()
	if out.StartedAt != nil {
		shifted := *out.StartedAt + e.totalPausedDuration.Milliseconds()
		out.StartedAt = &shifted
	}
	return out
}

// Status returns the engine's current lifecycle status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}
