// Package events carries the engine's domain events between modules. The bus
// is process-local; publishing is how the dispatch loop, the suppression list,
// and the campaign surface stay decoupled from whoever wants to observe them.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event the engine publishes.
type Event interface {
	// EventName identifies the event type, e.g. "email.sent".
	EventName() string
	// OccurredAt reports when the event happened.
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp common to all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt reports when the event happened.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events it subscribed to.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish delivers the event asynchronously to every handler subscribed
	// to its name. Handler failures are logged, never returned.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event inline and returns the joined handler
	// errors. Used where the caller must know the handlers ran.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the given event name, matching
	// Event.EventName() of the events to receive.
	Subscribe(eventName string, handler Handler)
}
