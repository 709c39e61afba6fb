package ecs

// Removable is implemented by all stores so the World can bulk-remove an
// entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// Store is a generic typed map store that remembers insertion order, so
// per-tick passes visit entities deterministically.
type Store[T any] struct {
	data  map[EntityID]*T
	order []EntityID
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data:  make(map[EntityID]*T, 64),
		order: make([]EntityID, 0, 64),
	}
}

func (s *Store[T]) Set(id EntityID, c *T) {
	if _, ok := s.data[id]; !ok {
		s.order = append(s.order, id)
	}
	s.data[id] = c
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *Store[T]) Remove(id EntityID) {
	if _, ok := s.data[id]; !ok {
		return
	}
	delete(s.data, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// Each visits entries in insertion order. Entries added during the walk are
// visited too; removals must be deferred by the caller.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for i := 0; i < len(s.order); i++ {
		id := s.order[i]
		fn(id, s.data[id])
	}
}

// IDs returns a copy of the ids in insertion order.
func (s *Store[T]) IDs() []EntityID {
	out := make([]EntityID, len(s.order))
	copy(out, s.order)
	return out
}

// Values returns the entries in insertion order.
func (s *Store[T]) Values() []*T {
	out := make([]*T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.data[id])
	}
	return out
}

// Clear drops every entry.
func (s *Store[T]) Clear() {
	clear(s.data)
	s.order = s.order[:0]
}
