// Package testbus provides test utilities for the event bus.
// It wraps a real EventBus with event recording and assertion helpers.
package testbus

import (
	"sync"
	"testing"

	"github.com/colonyops/goodvibes/internal/core/eventbus"
)

// RecordedEvent holds a captured event name and payload.
type RecordedEvent struct {
	Event   eventbus.Event
	Payload any
}

// Bus wraps a real EventBus with event recording for tests.
type Bus struct {
	*eventbus.EventBus

	mu     sync.Mutex
	events []RecordedEvent
}

// New creates a test bus subscribed to every event type. Because the bus is
// synchronous, events are recorded before Publish returns.
func New(t *testing.T) *Bus {
	t.Helper()

	tb := &Bus{EventBus: eventbus.New()}

	tb.SubscribeProgress(func(p eventbus.ProgressPayload) { tb.record(eventbus.EventProgress, p) })
	tb.SubscribeComplete(func(p eventbus.CompletePayload) { tb.record(eventbus.EventComplete, p) })
	tb.SubscribeError(func(p eventbus.ErrorPayload) { tb.record(eventbus.EventError, p) })
	tb.SubscribeQueueChanged(func(p eventbus.QueueChangedPayload) { tb.record(eventbus.EventQueueChanged, p) })
	tb.SubscribeStatusChanged(func(p eventbus.StatusChangedPayload) { tb.record(eventbus.EventStatusChanged, p) })

	return tb
}

func (tb *Bus) record(event eventbus.Event, payload any) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.events = append(tb.events, RecordedEvent{Event: event, Payload: payload})
}

// Of returns the payloads recorded for one event type, in publish order.
func (tb *Bus) Of(event eventbus.Event) []any {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	var out []any
	for _, e := range tb.events {
		if e.Event == event {
			out = append(out, e.Payload)
		}
	}
	return out
}

// AssertPublished asserts that an event of the given type was recorded.
func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	if len(tb.Of(event)) == 0 {
		t.Errorf("expected event %q to be published, but it was not", event)
	}
}

// AssertNotPublished asserts that no event of the given type was recorded.
func (tb *Bus) AssertNotPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	if n := len(tb.Of(event)); n > 0 {
		t.Errorf("expected event %q to NOT be published, but it was published %d times", event, n)
	}
}
