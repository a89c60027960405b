package pubsub

import (
	"context"
	"sync"
	"time"
)

const defaultBufferSize = 64

// Broker is a generic pub/sub event broker.
// Handlers registered with On run inline on Dispatch; channel subscribers
// receive every published event without blocking the publisher.
type Broker[T any] struct {
	subs       map[chan Event[T]]struct{}
	handlers   map[EventType][]Handler[T]
	mu         sync.RWMutex
	done       chan struct{}
	bufferSize int
}

// NewBroker creates a new broker with the default buffer size (64).
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer creates a new broker with a custom buffer size.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:       make(map[chan Event[T]]struct{}),
		handlers:   make(map[EventType][]Handler[T]),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// On registers a synchronous handler for eventType.
// Handlers run in registration order on the dispatching goroutine.
func (b *Broker[T]) On(eventType EventType, h Handler[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// HandlerCount returns the number of handlers registered for eventType.
func (b *Broker[T]) HandlerCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// Subscribe creates a new subscription channel.
// The channel is automatically closed when ctx is cancelled or the broker
// is closed; events already buffered remain readable.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Check if broker is closed
	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], b.bufferSize)
	b.subs[sub] = struct{}{}

	// Cleanup goroutine
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()

		select {
		case <-b.done:
			return // Already closed
		default:
		}

		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Dispatch runs the handlers registered for eventType, then publishes the
// event to channel subscribers.
func (b *Broker[T]) Dispatch(ctx context.Context, eventType EventType, payload T) {
	event := b.newEvent(eventType, payload)

	b.mu.RLock()
	handlers := append([]Handler[T](nil), b.handlers[eventType]...)
	b.mu.RUnlock()

	// Handlers may register further handlers, so run them unlocked.
	for _, h := range handlers {
		h(ctx, event)
	}

	b.publish(event)
}

func (b *Broker[T]) newEvent(eventType EventType, payload T) Event[T] {
	return Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// publish sends event to every subscriber without blocking: a subscriber
// whose buffer is full misses the event.
func (b *Broker[T]) publish(event Event[T]) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	for sub := range b.subs {
		select {
		case sub <- event:
			// Delivered
		default:
			// Channel full - drop to prevent blocking
		}
	}
}

// Close shuts down the broker and all subscriber channels.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return // Already closed
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
