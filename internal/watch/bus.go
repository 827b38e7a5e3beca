package watch

import (
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event tells list views that a record in a collection changed; subscribers
// re-query rather than receiving the payload itself.
type Event struct {
	Collection string    `json:"collection"`
	Op         Op        `json:"op"`
	ID         string    `json:"id"`
	At         time.Time `json:"at"`
}

// Bus is the in-process change feed backing live list views. Delivery is
// best-effort: a slow subscriber drops events instead of blocking writers.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan Event
	log    *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{
		subs: make(map[string]map[int]chan Event),
		log:  log.Named("watch.bus"),
	}
}

func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[ev.Collection] {
		select {
		case ch <- ev:
		default:
			b.log.Debug("dropping watch event for slow subscriber",
				zap.String("collection", ev.Collection),
				zap.String("op", string(ev.Op)),
			)
		}
	}
}

// Subscribe returns a channel of change events for a collection and a cancel
// func that must be called on teardown.
func (b *Bus) Subscribe(collection string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[collection] == nil {
		b.subs[collection] = make(map[int]chan Event)
	}
	id := b.nextID
	b.nextID++

	ch := make(chan Event, 16)
	b.subs[collection][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[collection][id]; ok {
			delete(b.subs[collection], id)
			close(sub)
		}
	}
	return ch, cancel
}

var Module = fx.Module("watch",
	fx.Provide(NewBus),
)
