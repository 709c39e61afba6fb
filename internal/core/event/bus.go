package event

import (
	"sync"

	"github.com/google/uuid"
)

// OwnerID tags a batch of handlers so they can be removed together.
type OwnerID string

// NewOwnerID returns a fresh opaque owner id. The prefix only helps logs.
func NewOwnerID(prefix string) OwnerID {
	return OwnerID(prefix + "-" + uuid.NewString())
}

// Event is what every handler receives.
type Event struct {
	Category Category
	Data     any
}

// Handler reacts to one event.
type Handler func(Event)

// HandlerItem pairs a category with the handler to run for it.
type HandlerItem struct {
	Category Category
	Handler  Handler
}

// On adapts a typed payload handler. Events whose payload is not a T are
// skipped.
func On[T any](c Category, fn func(T)) HandlerItem {
	return HandlerItem{
		Category: c,
		Handler: func(ev Event) {
			if data, ok := ev.Data.(T); ok {
				fn(data)
			}
		},
	}
}

type entry struct {
	owner   OwnerID
	handler Handler
}

// Bus is a synchronous publish/subscribe hub keyed by category. Fire runs
// every handler to completion before returning; handlers may fire further
// events, which recurse.
type Bus struct {
	mu       sync.Mutex // protects registration; dispatch runs unlocked
	handlers map[Category][]entry
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Category][]entry),
	}
}

// Fire invokes the handlers registered for c in registration order. The
// handler list is snapshotted first, so handlers added or removed during
// dispatch take effect from the next Fire.
func (b *Bus) Fire(c Category, data any) {
	b.mu.Lock()
	list := b.handlers[c]
	snapshot := make([]Handler, len(list))
	for i, e := range list {
		snapshot[i] = e.handler
	}
	b.mu.Unlock()

	ev := Event{Category: c, Data: data}
	for _, h := range snapshot {
		h(ev)
	}
}

// Batch registers every item under owner.
func (b *Bus) Batch(owner OwnerID, items ...HandlerItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, it := range items {
		b.handlers[it.Category] = append(b.handlers[it.Category], entry{owner: owner, handler: it.Handler})
	}
}

// Unbatch removes every handler registered under owner, in any category.
// Unknown owners are ignored.
func (b *Bus) Unbatch(owner OwnerID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c, list := range b.handlers {
		kept := list[:0:0]
		for _, e := range list {
			if e.owner != owner {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(b.handlers, c)
			continue
		}
		b.handlers[c] = kept
	}
}

// Count returns the number of handlers registered for c.
func (b *Bus) Count(c Category) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[c])
}
