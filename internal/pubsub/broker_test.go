package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroker_Subscribe(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)

	broker.Dispatch(ctx, "modules.blog.enabled", "hello")

	select {
	case event := <-ch:
		require.Equal(t, "hello", event.Payload)
		require.Equal(t, EventType("modules.blog.enabled"), event.Type)
		require.False(t, event.Timestamp.IsZero())
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "timeout waiting for event")
	}
}

func TestBroker_MultipleSubscribers(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx := context.Background()

	ch1 := broker.Subscribe(ctx)
	ch2 := broker.Subscribe(ctx)
	ch3 := broker.Subscribe(ctx)

	require.Equal(t, 3, broker.SubscriberCount())

	broker.Dispatch(ctx, "modules.blog.register", 42)

	// All subscribers should receive the event
	for i, ch := range []<-chan Event[int]{ch1, ch2, ch3} {
		select {
		case event := <-ch:
			require.Equal(t, 42, event.Payload, "subscriber %d", i)
			require.Equal(t, EventType("modules.blog.register"), event.Type, "subscriber %d", i)
		case <-time.After(100 * time.Millisecond):
			require.Fail(t, "timeout waiting for event", "subscriber %d", i)
		}
	}
}

func TestBroker_ContextCancellation(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())

	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.SubscriberCount())

	cancel()
	time.Sleep(20 * time.Millisecond) // Wait for cleanup goroutine

	require.Equal(t, 0, broker.SubscriberCount())

	// Channel should be closed
	_, ok := <-ch
	require.False(t, ok, "channel should be closed")
}

func TestBroker_NonBlocking(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()

	ctx := context.Background()

	ch := broker.Subscribe(ctx)

	// Fill buffer
	broker.Dispatch(ctx, "modules.blog.boot", 1)

	// These should not block (drop events)
	done := make(chan bool)
	go func() {
		broker.Dispatch(ctx, "modules.blog.boot", 2)
		broker.Dispatch(ctx, "modules.blog.boot", 3)
		done <- true
	}()

	select {
	case <-done:
		// Success - didn't block
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "Dispatch blocked")
	}

	// Only first event received (buffer was full for others)
	event := <-ch
	require.Equal(t, 1, event.Payload)
}

func TestBroker_Close(t *testing.T) {
	broker := NewBroker[string]()

	ctx := context.Background()

	ch1 := broker.Subscribe(ctx)
	ch2 := broker.Subscribe(ctx)

	require.Equal(t, 2, broker.SubscriberCount())

	broker.Close()

	// Both channels should be closed
	_, ok1 := <-ch1
	_, ok2 := <-ch2

	require.False(t, ok1, "ch1 should be closed")
	require.False(t, ok2, "ch2 should be closed")

	// Subscriber count should be 0
	require.Equal(t, 0, broker.SubscriberCount())

	// Subscribe after close should return closed channel
	ch3 := broker.Subscribe(ctx)
	_, ok3 := <-ch3
	require.False(t, ok3, "ch3 should be closed immediately")

	// Dispatch after close should not panic
	broker.Dispatch(ctx, "modules.blog.boot", "test") // No panic
}

func TestBroker_CloseIdempotent(t *testing.T) {
	broker := NewBroker[string]()

	ctx := context.Background()
	ch := broker.Subscribe(ctx)

	// Multiple Close() calls should be safe
	broker.Close()
	broker.Close()
	broker.Close()

	// Channel should still be closed
	_, ok := <-ch
	require.False(t, ok, "channel should be closed")
}

func TestBroker_DispatchRunsHandlersInOrder(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	var calls []string
	broker.On("modules.blog.boot", func(ctx context.Context, event Event[string]) {
		calls = append(calls, "first:"+event.Payload)
	})
	broker.On("modules.blog.boot", func(ctx context.Context, event Event[string]) {
		calls = append(calls, "second:"+event.Payload)
	})
	broker.On("modules.shop.boot", func(ctx context.Context, event Event[string]) {
		calls = append(calls, "other")
	})

	broker.Dispatch(context.Background(), "modules.blog.boot", "Blog")

	require.Equal(t, []string{"first:Blog", "second:Blog"}, calls)
	require.Equal(t, 2, broker.HandlerCount("modules.blog.boot"))
	require.Equal(t, 0, broker.HandlerCount("modules.blog.register"))
}

func TestBroker_DispatchAlsoPublishes(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := broker.Subscribe(ctx)

	broker.Dispatch(ctx, "modules.blog.enabled", "Blog")

	select {
	case event := <-ch:
		require.Equal(t, EventType("modules.blog.enabled"), event.Type)
		require.Equal(t, "Blog", event.Payload)
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "timeout waiting for event")
	}
}

func TestBroker_DispatchWithoutHandlers(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	require.NotPanics(t, func() {
		broker.Dispatch(context.Background(), "nothing.listens", 1)
	})
}

func TestContinuousListener_Next(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	listener := NewContinuousListener(ctx, broker)

	broker.Dispatch(ctx, "modules.blog.boot", "entry")

	event, ok := listener.Next()
	require.True(t, ok)
	require.Equal(t, "entry", event.Payload)

	cancel()
	_, ok = listener.Next()
	require.False(t, ok)
}

func TestContinuousListener_DrainsAfterClose(t *testing.T) {
	broker := NewBroker[string]()
	ctx := context.Background()
	listener := NewContinuousListener(ctx, broker)

	broker.Dispatch(ctx, "modules.blog.register", "Blog")
	broker.Dispatch(ctx, "modules.blog.boot", "Blog")
	broker.Close()

	var types []EventType
	for {
		event, ok := listener.Next()
		if !ok {
			break
		}
		types = append(types, event.Type)
	}
	require.Equal(t, []EventType{"modules.blog.register", "modules.blog.boot"}, types)
}
