package broadcast

import (
	"testing"
	"time"
)

func drain(t *testing.T, s *Sink, want int, timeout time.Duration) [][]byte {
	t.Helper()
	got := make([][]byte, 0, want)
	deadline := time.After(timeout)
	for len(got) < want {
		select {
		case chunk := <-s.Chan():
			got = append(got, chunk)
		case <-deadline:
			t.Fatalf("timed out waiting for %d chunks, got %d", want, len(got))
		}
	}
	return got
}

func TestAttachDeliversInitialSilenceFrame(t *testing.T) {
	b := New()
	defer b.Close()

	s := b.Attach()
	defer b.Detach(s)

	chunks := drain(t, s, 1, time.Second)
	if string(chunks[0]) != string(SilenceFrame) {
		t.Fatal("expected initial silence frame on attach")
	}
}

func TestBroadcastFansOutToAllListeners(t *testing.T) {
	b := New()
	defer b.Close()

	s1 := b.Attach()
	s2 := b.Attach()
	defer b.Detach(s1)
	defer b.Detach(s2)

	drain(t, s1, 1, time.Second) // initial silence
	drain(t, s2, 1, time.Second)

	b.SetPlaying(true)
	chunk := []byte("mp3-data")
	b.Broadcast(chunk)

	got1 := drain(t, s1, 1, time.Second)
	got2 := drain(t, s2, 1, time.Second)
	if string(got1[0]) != string(chunk) || string(got2[0]) != string(chunk) {
		t.Fatal("expected both listeners to receive the same chunk")
	}
}

func TestPauseSubstitutesSilence(t *testing.T) {
	b := New()
	defer b.Close()

	s := b.Attach()
	defer b.Detach(s)
	drain(t, s, 1, time.Second) // initial silence

	b.SetPlaying(true)
	b.SetPaused(true)
	flush := drain(t, s, 1, time.Second) // pause flush block, delivered as one write
	if string(flush[0]) != string(FlushBlock()) {
		t.Fatalf("expected a %d-frame flush block on pause, got %d bytes", FlushFrameCount, len(flush[0]))
	}

	b.Broadcast([]byte("real-audio"))
	got := drain(t, s, 1, time.Second)
	if string(got[0]) != string(SilenceFrame) {
		t.Fatal("expected broadcast to substitute silence while paused")
	}
}

func TestSlowListenerIsDroppedNotBlocked(t *testing.T) {
	b := New()
	defer b.Close()

	s := b.Attach()
	// Drain the initial frame, then never read again - simulate a stalled client.
	<-s.Chan()

	b.SetPlaying(true)
	for i := 0; i < sinkBufferSize+5; i++ {
		b.Broadcast([]byte("x"))
	}

	if b.ListenerCount() != 0 {
		t.Fatalf("expected slow listener to be dropped, count=%d", b.ListenerCount())
	}
}

func TestIdleSilenceTicksWhenNoTrackPlaying(t *testing.T) {
	b := New()
	defer b.Close()

	s := b.Attach()
	defer b.Detach(s)
	drain(t, s, 1, time.Second) // initial silence

	// Not playing: the idle ticker should deliver another frame within ~100ms.
	drain(t, s, 1, 200*time.Millisecond)
}
