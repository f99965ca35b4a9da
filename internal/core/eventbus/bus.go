package eventbus

import "sync"

// EventBus dispatches events to subscribers in the publisher's goroutine.
// Publish returns only after every subscriber has run, so an event is always
// observed in order with the state change it reports.
type EventBus struct {
	mu    sync.RWMutex
	subs  map[Event][]func(any)
	hooks hooks
}

// New creates an empty bus.
func New() *EventBus {
	return &EventBus{subs: make(map[Event][]func(any))}
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(event)
}

func (bus *EventBus) publish(event Event, payload any) {
	if bus == nil {
		return
	}

	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[event]))
	copy(subs, bus.subs[event])
	bus.mu.RUnlock()

	bus.runOnPublish(event, payload)
	for _, fn := range subs {
		bus.dispatch(event, payload, fn)
	}
}

func (bus *EventBus) dispatch(event Event, payload any, fn func(any)) {
	defer func() {
		if r := recover(); r != nil {
			bus.runOnPanic(event, payload, r)
		}
	}()
	fn(payload)
}

// SubscribeProgress registers fn for progress events.
func (bus *EventBus) SubscribeProgress(fn func(ProgressPayload)) {
	bus.subscribe(EventProgress, func(p any) { fn(p.(ProgressPayload)) })
}

// PublishProgress emits a progress event.
func (bus *EventBus) PublishProgress(p ProgressPayload) { bus.publish(EventProgress, p) }

// SubscribeComplete registers fn for complete events.
func (bus *EventBus) SubscribeComplete(fn func(CompletePayload)) {
	bus.subscribe(EventComplete, func(p any) { fn(p.(CompletePayload)) })
}

// PublishComplete emits a complete event.
func (bus *EventBus) PublishComplete(p CompletePayload) { bus.publish(EventComplete, p) }

// SubscribeError registers fn for error events.
func (bus *EventBus) SubscribeError(fn func(ErrorPayload)) {
	bus.subscribe(EventError, func(p any) { fn(p.(ErrorPayload)) })
}

// PublishError emits an error event.
func (bus *EventBus) PublishError(p ErrorPayload) { bus.publish(EventError, p) }

// SubscribeQueueChanged registers fn for queueChanged events.
func (bus *EventBus) SubscribeQueueChanged(fn func(QueueChangedPayload)) {
	bus.subscribe(EventQueueChanged, func(p any) { fn(p.(QueueChangedPayload)) })
}

// PublishQueueChanged emits a queueChanged event.
func (bus *EventBus) PublishQueueChanged(p QueueChangedPayload) { bus.publish(EventQueueChanged, p) }

// SubscribeStatusChanged registers fn for statusChanged events.
func (bus *EventBus) SubscribeStatusChanged(fn func(StatusChangedPayload)) {
	bus.subscribe(EventStatusChanged, func(p any) { fn(p.(StatusChangedPayload)) })
}

// PublishStatusChanged emits a statusChanged event.
func (bus *EventBus) PublishStatusChanged(p StatusChangedPayload) {
	bus.publish(EventStatusChanged, p)
}
