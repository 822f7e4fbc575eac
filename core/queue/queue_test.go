package queue

import (
	"testing"

	"oneradio/model"
)

func payload(title string) Payload {
	return Payload{
		Source: model.SourceYouTube,
		URL:    "https://youtu.be/" + title,
		Title:  title,
	}
}

func TestEnqueueAssignsUniqueIDs(t *testing.T) {
	q := New()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tr := q.Enqueue(payload("t"))
		if seen[tr.ID] {
			t.Fatalf("duplicate id %s", tr.ID)
		}
		seen[tr.ID] = true
	}
}

func TestDequeueOrderAndEmptiness(t *testing.T) {
	q := New()
	a := q.Enqueue(payload("a"))
	b := q.Enqueue(payload("b"))

	if got := q.Dequeue(); got.ID != a.ID {
		t.Fatalf("expected a first, got %v", got)
	}
	if got := q.Dequeue(); got.ID != b.ID {
		t.Fatalf("expected b second, got %v", got)
	}
	if got := q.Dequeue(); got != nil {
		t.Fatalf("expected nil on empty queue, got %v", got)
	}
}

func TestRemoveAbsentReturnsFalse(t *testing.T) {
	q := New()
	q.Enqueue(payload("a"))
	if q.Remove("does-not-exist") {
		t.Fatal("expected false removing an absent id")
	}
}

func TestMoveClampsNegativeToZero(t *testing.T) {
	q := New()
	a := q.Enqueue(payload("a"))
	q.Enqueue(payload("b"))
	q.Enqueue(payload("c"))

	if !q.Move(a.ID, -5) {
		t.Fatal("expected move to succeed")
	}
	snap := q.Snapshot()
	if snap[0].ID != a.ID {
		t.Fatalf("expected a at index 0, got order %v", ids(snap))
	}
}

func TestMoveClampsOverflowToLastIndex(t *testing.T) {
	q := New()
	a := q.Enqueue(payload("a"))
	q.Enqueue(payload("b"))
	c := q.Enqueue(payload("c"))

	if !q.Move(a.ID, 999) {
		t.Fatal("expected move to succeed")
	}
	snap := q.Snapshot()
	if snap[len(snap)-1].ID != a.ID {
		t.Fatalf("expected a at last index, got order %v", ids(snap))
	}
	if snap[len(snap)-2].ID != c.ID {
		t.Fatalf("expected c still before a moved to tail, got %v", ids(snap))
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	q := New()
	q.Enqueue(payload("a"))

	snap := q.Snapshot()
	snap[0].Title = "mutated"

	snap2 := q.Snapshot()
	if snap2[0].Title == "mutated" {
		t.Fatal("snapshot mutation leaked into queue state")
	}
}

func ids(tracks []model.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}
