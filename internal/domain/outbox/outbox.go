package outbox

import "context"

// Event is a domain fact published after the unit of work that produced it commits.
type Event interface {
	EventName() string
}

// Handler reacts to a published event.
type Handler func(ctx context.Context, e Event) error

// Publisher publishes events to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers by event name.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
