package eventbus

import "sync"

// hooks holds lifecycle callbacks that observe the bus itself rather than a
// single topic.
type hooks struct {
	mu          sync.RWMutex
	onPublish   []func(Event, any)
	onSubscribe []func(Event)
	onPanic     []func(Event, any, any)
}

// OnPublish registers a hook that fires before subscribers of any event run.
func (bus *EventBus) OnPublish(fn func(Event, any)) {
	bus.hooks.mu.Lock()
	bus.hooks.onPublish = append(bus.hooks.onPublish, fn)
	bus.hooks.mu.Unlock()
}

// OnSubscribe registers a hook that fires after a subscriber is registered.
func (bus *EventBus) OnSubscribe(fn func(Event)) {
	bus.hooks.mu.Lock()
	bus.hooks.onSubscribe = append(bus.hooks.onSubscribe, fn)
	bus.hooks.mu.Unlock()
}

// OnPanic registers a hook that fires when a subscriber panics. The panic is
// recovered and remaining subscribers still run.
func (bus *EventBus) OnPanic(fn func(Event, any, any)) {
	bus.hooks.mu.Lock()
	bus.hooks.onPanic = append(bus.hooks.onPanic, fn)
	bus.hooks.mu.Unlock()
}

func (bus *EventBus) runOnPublish(event Event, payload any) {
	bus.hooks.mu.RLock()
	fns := append([]func(Event, any)(nil), bus.hooks.onPublish...)
	bus.hooks.mu.RUnlock()
	for _, fn := range fns {
		fn(event, payload)
	}
}

func (bus *EventBus) runOnSubscribe(event Event) {
	bus.hooks.mu.RLock()
	fns := append([]func(Event)(nil), bus.hooks.onSubscribe...)
	bus.hooks.mu.RUnlock()
	for _, fn := range fns {
		fn(event)
	}
}

func (bus *EventBus) runOnPanic(event Event, payload, recovered any) {
	bus.hooks.mu.RLock()
	fns := append([]func(Event, any, any)(nil), bus.hooks.onPanic...)
	bus.hooks.mu.RUnlock()
	for _, fn := range fns {
		fn(event, payload, recovered)
	}
}
