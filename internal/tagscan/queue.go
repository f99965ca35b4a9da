package tagscan

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Priority orders queued scans. Higher ranks drain first.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the numeric weight of p. Unknown priorities rank as low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// ParsePriority converts a flag value to a Priority.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("invalid priority %q (want high, medium or low)", s)
	}
}

// QueueItem is one pending scan.
type QueueItem struct {
	SessionID string    `json:"session_id"`
	Priority  Priority  `json:"priority"`
	QueuedAt  time.Time `json:"queued_at"`

	seq uint64
}

// Queue holds pending scans ordered by priority, newest first within a
// priority. A session is queued at most once.
type Queue struct {
	mu    sync.Mutex
	items []QueueItem
	seq   uint64
	now   func() time.Time
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// Enqueue adds a session. It returns false when the session is already queued.
func (q *Queue) Enqueue(sessionID string, priority Priority) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, it := range q.items {
		if it.SessionID == sessionID {
			return false
		}
	}

	// Wall clock readings can tie or step backwards; seq cannot.
	q.seq++
	q.items = append(q.items, QueueItem{
		SessionID: sessionID,
		Priority:  priority,
		QueuedAt:  q.now(),
		seq:       q.seq,
	})
	sort.SliceStable(q.items, func(i, j int) bool {
		a, b := q.items[i], q.items[j]
		if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
			return ra > rb
		}
		return a.seq > b.seq
	})
	return true
}

// Dequeue removes and returns the head of the queue.
func (q *Queue) Dequeue() (QueueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return QueueItem{}, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

// DequeueN removes up to n items from the head of the queue.
func (q *Queue) DequeueN(n int) []QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	n = min(n, len(q.items))
	if n <= 0 {
		return nil
	}
	out := make([]QueueItem, n)
	copy(out, q.items[:n])
	q.items = q.items[n:]
	return out
}

// Size returns the number of queued items.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsEmpty reports whether nothing is queued.
func (q *Queue) IsEmpty() bool {
	return q.Size() == 0
}

// Clear drops every queued item.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

// Has reports whether sessionID is queued.
func (q *Queue) Has(sessionID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, it := range q.items {
		if it.SessionID == sessionID {
			return true
		}
	}
	return false
}

// Remove drops sessionID from the queue, keeping the order of the rest. It
// reports whether the session was queued.
func (q *Queue) Remove(sessionID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, it := range q.items {
		if it.SessionID == sessionID {
			q.items = append(q.items[:i:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// All returns a copy of the queue in drain order.
func (q *Queue) All() []QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]QueueItem(nil), q.items...)
}
