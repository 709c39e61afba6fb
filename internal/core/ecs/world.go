package ecs

// World is the top-level entity container. It owns the entity pool, the
// stores registered against it, and a deferred destruction queue flushed at
// the end of each update pass.
type World struct {
	pool         *EntityPool
	stores       []Removable
	queued       map[EntityID]struct{}
	destroyQueue []EntityID
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		stores:       make([]Removable, 0, 8),
		queued:       make(map[EntityID]struct{}, 32),
		destroyQueue: make([]EntityID, 0, 32),
	}
}

func (w *World) Pool() *EntityPool { return w.pool }

// Register adds a store that is cleared for an entity when it is destroyed.
func (w *World) Register(store Removable) {
	w.stores = append(w.stores, store)
}

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// Destroy removes an entity from every store and retires its id now.
func (w *World) Destroy(id EntityID) {
	for _, s := range w.stores {
		s.Remove(id)
	}
	w.pool.Destroy(id)
	delete(w.queued, id)
}

// MarkForDestruction queues an entity for end-of-pass cleanup. It reports
// false when the entity is already queued.
func (w *World) MarkForDestruction(id EntityID) bool {
	if _, ok := w.queued[id]; ok {
		return false
	}
	w.queued[id] = struct{}{}
	w.destroyQueue = append(w.destroyQueue, id)
	return true
}

// Queued reports whether the entity is waiting in the destroy queue.
func (w *World) Queued(id EntityID) bool {
	_, ok := w.queued[id]
	return ok
}

// Pending returns the number of queued destructions.
func (w *World) Pending() int {
	return len(w.destroyQueue)
}

// FlushDestroyQueue hands every queued id to teardown (in queue order) and
// then destroys it. Ids that died some other way in between are skipped.
func (w *World) FlushDestroyQueue(teardown func(EntityID)) {
	for i := 0; i < len(w.destroyQueue); i++ {
		id := w.destroyQueue[i]
		if !w.pool.Alive(id) {
			continue
		}
		if teardown != nil {
			teardown(id)
		}
		w.Destroy(id)
	}
	w.destroyQueue = w.destroyQueue[:0]
	clear(w.queued)
}
