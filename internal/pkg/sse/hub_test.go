package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyTheUser(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	alice, cancelAlice := hub.Subscribe(ctx, "alice")
	defer cancelAlice()
	bob, cancelBob := hub.Subscribe(ctx, "bob")
	defer cancelBob()

	n := hub.Publish("alice", Event{UserID: "alice", Event: "notification", Data: "hello"})
	assert.Equal(t, 1, n)

	select {
	case ev := <-alice:
		assert.Equal(t, "hello", ev.Data)
	case <-time.After(time.Second):
		t.Fatal("alice did not receive the event")
	}

	select {
	case ev := <-bob:
		t.Fatalf("bob received %v", ev)
	default:
	}
}

func TestHub_ContextCancelRemovesStream(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	ch, _ := hub.Subscribe(ctx, "alice")
	require.Equal(t, 1, hub.SubscriberCount("alice"))

	cancel()
	require.Eventually(t, func() bool { return hub.SubscriberCount("alice") == 0 }, time.Second, 10*time.Millisecond)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestHub_FullStreamDropsEvents(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe(context.Background(), "alice")
	defer cancel()

	delivered := 0
	for i := 0; i < hub.bufferSize+5; i++ {
		delivered += hub.Publish("alice", Event{Event: "notification"})
	}
	assert.Equal(t, hub.bufferSize, delivered)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(context.Background(), "alice")
	hub.Close()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := hub.Subscribe(context.Background(), "bob")
	_, ok = <-late
	assert.False(t, ok)
}
