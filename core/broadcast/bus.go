// Package broadcast implements the Fan-out Bus: one producer (the encoder
// reader), N consumers (attached HTTP listeners). It owns the listener sink
// set and the silence generator, and never lets a slow or dead listener
// block the producer.
package broadcast

import (
	"sync"
	"time"
)

// idleTick is how often a silence frame is emitted while no track is
// playing and at least one listener is attached.
const idleTick = 50 * time.Millisecond

// Bus multiplexes one stream of MP3 bytes to a dynamic set of listener
// sinks. All state is guarded by a single mutex; there is no per-sink lock,
// because the listener count must stay consistent with paused/playing in any
// one read (see core/engine's snapshot).
type Bus struct {
	mu      sync.Mutex
	sinks   map[int64]*Sink
	nextID  int64
	paused  bool
	playing bool // a track is actively producing audio right now

	stop chan struct{}
	once sync.Once
}

// New creates a Bus and starts its idle-silence ticker.
func New() *Bus {
	b := &Bus{
		sinks: make(map[int64]*Sink),
		stop:  make(chan struct{}),
	}
	go b.idleLoop()
	return b
}

// Close stops the idle-silence ticker. Not required in normal operation
// (the process owns exactly one Bus for its lifetime) but kept for tests.
func (b *Bus) Close() {
	b.once.Do(func() { close(b.stop) })
}

// Attach registers a new listener sink and immediately queues one silence
// frame so the client's decoder has something to chew on before real audio
// arrives.
func (b *Bus) Attach() *Sink {
	b.mu.Lock()
	b.nextID++
	s := newSink(b.nextID)
	b.sinks[s.id] = s
	b.mu.Unlock()

	s.send(SilenceFrame)
	return s
}

// Detach removes a sink from the set. Safe to call more than once.
func (b *Bus) Detach(s *Sink) {
	b.mu.Lock()
	delete(b.sinks, s.id)
	b.mu.Unlock()
}

// ListenerCount returns the number of attached sinks.
func (b *Bus) ListenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sinks)
}

// SetPlaying marks whether a track is actively producing audio right now.
// While true the idle-silence ticker stays quiet; the encoder's own chunks
// (or pause substitution) are the only thing written to sinks.
func (b *Bus) SetPlaying(playing bool) {
	b.mu.Lock()
	b.playing = playing
	b.mu.Unlock()
}

// SetPaused substitutes silence for real audio on every subsequent
// Broadcast call. On the transition into pause it also performs a "pause
// flush": a bulk block of repeated silence frames written immediately, to
// purge whatever the client had already buffered so the pause is audible
// right away.
func (b *Bus) SetPaused(paused bool) {
	b.mu.Lock()
	wasPaused := b.paused
	b.paused = paused
	sinks := b.snapshotSinksLocked()
	b.mu.Unlock()

	if paused && !wasPaused {
		block := FlushBlock()
		for _, s := range sinks {
			if !s.send(block) {
				b.Detach(s)
			}
		}
	}
}

// Broadcast delivers chunk to every attached sink, or a single silence frame
// in chunk's place while paused. A sink whose buffer is full is treated as
// dead and dropped; the producer never blocks waiting for it.
func (b *Bus) Broadcast(chunk []byte) {
	b.mu.Lock()
	paused := b.paused
	sinks := b.snapshotSinksLocked()
	b.mu.Unlock()

	payload := chunk
	if paused {
		payload = SilenceFrame
	}

	for _, s := range sinks {
		if !s.send(payload) {
			b.Detach(s)
		}
	}
}

// GapSilence emits one silence frame immediately at a track boundary (on
// encoder end or on skip), before the next track's encoder has produced any
// output.
func (b *Bus) GapSilence() {
	b.mu.Lock()
	sinks := b.snapshotSinksLocked()
	b.mu.Unlock()

	for _, s := range sinks {
		if !s.send(SilenceFrame) {
			b.Detach(s)
		}
	}
}

func (b *Bus) snapshotSinksLocked() []*Sink {
	out := make([]*Sink, 0, len(b.sinks))
	for _, s := range b.sinks {
		out = append(out, s)
	}
	return out
}

func (b *Bus) idleLoop() {
	ticker := time.NewTicker(idleTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.mu.Lock()
			shouldTick := !b.playing && len(b.sinks) > 0
			sinks := b.snapshotSinksLocked()
			b.mu.Unlock()

			if !shouldTick {
				continue
			}
			for _, s := range sinks {
				if !s.send(SilenceFrame) {
					b.Detach(s)
				}
			}
		case <-b.stop:
			return
		}
	}
}
