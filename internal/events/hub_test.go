package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_PublishReachesSubscribers(t *testing.T) {
	h := NewHub(zap.NewNop())
	ch, cancel := h.Subscribe("sess-1")
	defer cancel()

	h.Publish("sess-1", Event{Type: TypeNodeStart, Node: "discovery"})

	select {
	case ev := <-ch:
		assert.Equal(t, TypeNodeStart, ev.Type)
		assert.Equal(t, "discovery", ev.Node)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestHub_SessionsAreIsolated(t *testing.T) {
	h := NewHub(zap.NewNop())
	ch, cancel := h.Subscribe("sess-1")
	defer cancel()

	h.Publish("sess-2", Event{Type: TypeComplete})

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_CancelRemovesSubscriber(t *testing.T) {
	h := NewHub(zap.NewNop())
	_, cancel := h.Subscribe("sess-1")
	require.Equal(t, 1, h.SubscriberCount("sess-1"))

	cancel()
	assert.Zero(t, h.SubscriberCount("sess-1"))

	// Publishing to a drained session must not panic.
	h.Publish("sess-1", Event{Type: TypeError})
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub(zap.NewNop())
	_, cancel := h.Subscribe("sess-1")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			h.Publish("sess-1", Event{Type: TypeIdentityFound})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
