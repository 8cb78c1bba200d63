package outbox

import "context"

// Event is a fact that already committed. Names are dotted, e.g. "order.placed".
type Event interface {
	EventName() string
}

type Handler func(ctx context.Context, e Event) error

// Publisher hands committed events to subscribers. Publishing never undoes the
// transaction that produced the event.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// SubscribeAll registers h for every named event.
func SubscribeAll(s Subscriber, h Handler, events ...Event) {
	for _, e := range events {
		s.Subscribe(e.EventName(), h)
	}
}
