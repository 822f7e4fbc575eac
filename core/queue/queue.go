// Package queue implements the Track Queue: a pure in-memory ordered
// sequence of pending tracks, single-writer from the HTTP handler goroutines,
// guarded by one mutex so its operations are atomic relative to engine reads.
package queue

import (
	"sync"

	"github.com/google/uuid"

	"oneradio/model"
)

// Payload is everything the caller supplies when enqueuing a track; the
// queue itself is responsible only for assigning the id and ordering.
type Payload struct {
	Source      model.Source
	URL         string
	Title       string
	Duration    *float64
	Thumbnail   string
	RequestedBy model.Requester
}

// Queue is the ordered sequence of pending Tracks. All operations are
// serialized by mu; there is no fine-grained per-field locking because the
// queue has no invariant that spans fewer than "the whole slice".
type Queue struct {
	mu    sync.Mutex
	items []*model.Track
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{items: make([]*model.Track, 0)}
}

// Enqueue assigns a fresh id to payload and appends the resulting Track to
// the tail of the queue, returning a copy.
func (q *Queue) Enqueue(p Payload) *model.Track {
	t := &model.Track{
		ID:          uuid.NewString(),
		Source:      p.Source,
		URL:         p.URL,
		Title:       p.Title,
		Duration:    p.Duration,
		Thumbnail:   p.Thumbnail,
		RequestedBy: p.RequestedBy,
	}

	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()

	return t.Clone()
}

// Dequeue removes and returns the head of the queue, handing ownership from
// the queue to the caller (normally the engine, at play start). Returns nil
// if the queue is empty.
func (q *Queue) Dequeue() *model.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head
}

// Snapshot returns a stable, independent copy of the queue's current order.
func (q *Queue) Snapshot() []model.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]model.Track, len(q.items))
	for i, t := range q.items {
		out[i] = *t.Clone()
	}
	return out
}

// Remove deletes the track with the given id via a linear scan. Returns
// false if no track with that id is present.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, t := range q.items {
		if t.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Move relocates the track with the given id to newIndex, clamped into
// [0, size-1]. Returns false if no track with that id is present.
func (q *Queue) Move(id string, newIndex int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	pos := -1
	for i, t := range q.items {
		if t.ID == id {
			pos = i
			break
		}
	}
	if pos == -1 {
		return false
	}

	t := q.items[pos]
	q.items = append(q.items[:pos], q.items[pos+1:]...)

	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(q.items) {
		newIndex = len(q.items)
	}

	q.items = append(q.items, nil)
	copy(q.items[newIndex+1:], q.items[newIndex:])
	q.items[newIndex] = t

	return true
}

// Size returns the number of pending tracks.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Peek returns a copy of the head of the queue without removing it, or nil
// if the queue is empty.
func (q *Queue) Peek() *model.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	return q.items[0].Clone()
}
