// Package events is the in-process event bus connecting signal sources,
// the light manager and the API.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(HotplugEvent{...})
func (b *Bus) Publish(ev Event) {
	// Generic Publish needs the concrete type
	switch e := ev.(type) {
	case MicActivityEvent:
		event.Publish(b.dispatcher, e)
	case HotplugEvent:
		event.Publish(b.dispatcher, e)
	case PowerEvent:
		event.Publish(b.dispatcher, e)
	case SessionEvent:
		event.Publish(b.dispatcher, e)
	case StatusChangedEvent:
		event.Publish(b.dispatcher, e)
	case DevicesChangedEvent:
		event.Publish(b.dispatcher, e)
	case SettingsChangedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler type determines which events it receives.
// Returns an unsubscribe function; unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e SessionEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(MicActivityEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(HotplugEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PowerEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SessionEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StatusChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DevicesChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SettingsChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
