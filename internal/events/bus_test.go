package events

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBufferBoundedAndOrdered(t *testing.T) {
	t.Parallel()

	bus := NewBus(5, 16)
	defer bus.Close()

	for i := 0; i < 12; i++ {
		bus.Publish(EventGatewayTest, fmt.Sprintf("payload-%d", i))
	}

	recent := bus.Recent()
	require.Len(t, recent, 5, "ring never exceeds capacity")
	for i, ev := range recent {
		assert.Equal(t, fmt.Sprintf("payload-%d", 7+i), ev.Payload, "oldest first, newest retained")
	}
}

func TestRecentReturnsDefensiveCopy(t *testing.T) {
	t.Parallel()

	bus := NewBus(5, 16)
	defer bus.Close()

	bus.Publish(EventGatewayTest, "one")
	snapshot := bus.Recent()
	snapshot[0].Payload = "mutated"

	assert.Equal(t, "one", bus.Recent()[0].Payload)
}

func TestSubscribersReceiveInPublishOrder(t *testing.T) {
	t.Parallel()

	bus := NewBus(50, 64)
	defer bus.Close()

	received := make(chan Event, 10)
	bus.Subscribe(EventUserLoggedIn, func(ev Event) { received <- ev })

	for i := 0; i < 3; i++ {
		bus.Publish(EventUserLoggedIn, i)
	}

	for i := 0; i < 3; i++ {
		select {
		case ev := <-received:
			assert.Equal(t, i, ev.Payload)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestMultipleSubscribersAllNotified(t *testing.T) {
	t.Parallel()

	bus := NewBus(50, 64)
	defer bus.Close()

	first := make(chan Event, 1)
	second := make(chan Event, 1)
	bus.Subscribe(EventRoleAssigned, func(ev Event) { first <- ev })
	bus.Subscribe(EventRoleAssigned, func(ev Event) { second <- ev })

	published := bus.Publish(EventRoleAssigned, RoleAssignedPayload{UserID: "u1", Role: "manager"})

	for _, ch := range []chan Event{first, second} {
		select {
		case ev := <-ch:
			assert.Equal(t, published.ID, ev.ID)
		case <-time.After(2 * time.Second):
			t.Fatal("subscriber not notified")
		}
	}
}

func TestSubscriberPanicDoesNotStopDelivery(t *testing.T) {
	t.Parallel()

	bus := NewBus(50, 64)
	defer bus.Close()

	received := make(chan Event, 1)
	bus.Subscribe(EventGatewayTest, func(Event) { panic("subscriber bug") })
	bus.Subscribe(EventGatewayTest, func(ev Event) { received <- ev })

	bus.Publish(EventGatewayTest, nil)

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("second subscriber starved by panicking first")
	}
}

func TestPublishNeverBlocksWithoutSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus(3, 1)
	defer bus.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(EventGatewayTest, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked")
	}
}
