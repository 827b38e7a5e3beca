package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(zap.NewNop())

	ch, cancel := bus.Subscribe("people")
	defer cancel()

	bus.Publish(Event{Collection: "people", Op: OpCreate, ID: "1", At: time.Now()})
	bus.Publish(Event{Collection: "products", Op: OpCreate, ID: "2", At: time.Now()})

	ev := <-ch
	assert.Equal(t, "people", ev.Collection)
	assert.Equal(t, OpCreate, ev.Op)
	assert.Equal(t, "1", ev.ID)

	select {
	case ev := <-ch:
		t.Fatalf("unexpected cross-collection event: %+v", ev)
	default:
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus(zap.NewNop())

	ch, cancel := bus.Subscribe("purchases")
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancel must not panic.
	bus.Publish(Event{Collection: "purchases", Op: OpUpdate, ID: "9"})
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus(zap.NewNop())

	ch, cancel := bus.Subscribe("service_orders")
	defer cancel()

	for i := 0; i < 64; i++ {
		bus.Publish(Event{Collection: "service_orders", Op: OpUpdate, ID: "x"})
	}

	assert.Equal(t, 16, len(ch))
}
