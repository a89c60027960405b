// Package pubsub provides a generic publish/subscribe event system.
//
// Brokers deliver events two ways: synchronously to handlers registered for
// an exact event type with On, and asynchronously to channel subscribers.
// Event types are free-form dotted names such as "modules.blog.boot".
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Handler is a synchronous listener for one event type.
type Handler[T any] func(ctx context.Context, event Event[T])

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}
