// Package events carries the in-process event bus the marketplace modules
// talk over: order lifecycle, lead sales, and import completions are published
// here and picked up by the notification and CRM delivery subscribers.
// Platform layer, no business logic.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event crossing module boundaries.
type Event interface {
	// EventName identifies the event type; subscribers key on it.
	EventName() string
	// OccurredAt is when the domain action happened, not when handlers ran.
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp every event embeds.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns the embedded timestamp.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a new event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events it subscribed to. A module handling several event
// types switches on the concrete type inside Handle.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus is the publish/subscribe surface modules depend on.
type Bus interface {
	// Publish dispatches to every subscriber of the event's name.
	// Handlers run asynchronously; the publisher never waits.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches and waits for every handler to finish.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an event name, matching the
	// value the event returns from EventName().
	Subscribe(eventName string, handler Handler)
}
