package physics

import "math"

type pairKey struct{ a, b BodyID }

func makePair(a, b BodyID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// SimpleWorld is a small headless World: explicit Euler integration with
// p2-style damping and bounding-circle contacts filtered by group/mask,
// with a Grid broadphase.
// It stands in for a real engine in the binary and in tests.
type SimpleWorld struct {
	bodies   []*Body
	index    map[BodyID]int
	touching map[pairKey]bool
	handlers []func(Contact)
	grid     *Grid
}

func NewSimpleWorld() *SimpleWorld {
	return &SimpleWorld{
		index:    make(map[BodyID]int, 64),
		touching: make(map[pairKey]bool, 64),
		grid:     NewGrid(),
	}
}

func (w *SimpleWorld) AddBody(b *Body) {
	if _, ok := w.index[b.id]; ok {
		return
	}
	w.index[b.id] = len(w.bodies)
	w.bodies = append(w.bodies, b)
}

// RemoveBody drops the body and forgets its contacts without an end event.
func (w *SimpleWorld) RemoveBody(b *Body) {
	i, ok := w.index[b.id]
	if !ok {
		return
	}
	last := len(w.bodies) - 1
	w.bodies[i] = w.bodies[last]
	w.index[w.bodies[i].id] = i
	w.bodies[last] = nil
	w.bodies = w.bodies[:last]
	delete(w.index, b.id)
	for k := range w.touching {
		if k.a == b.id || k.b == b.id {
			delete(w.touching, k)
		}
	}
}

func (w *SimpleWorld) HasBody(b *Body) bool {
	_, ok := w.index[b.id]
	return ok
}

func (w *SimpleWorld) Len() int { return len(w.bodies) }

func (w *SimpleWorld) OnContact(fn func(Contact)) {
	w.handlers = append(w.handlers, fn)
}

// Step advances the simulation by dt seconds. Contacts are collected first
// and dispatched afterwards, so handlers may add or remove bodies.
func (w *SimpleWorld) Step(dt float64) {
	for _, b := range w.bodies {
		integrate(b, dt)
	}

	w.grid.Reset()
	for i, b := range w.bodies {
		w.grid.Add(i, b)
	}

	var events []Contact
	now := make(map[pairKey]bool, len(w.touching))
	for _, p := range w.grid.Pairs() {
		a, b := w.bodies[p[0]], w.bodies[p[1]]
		if a.Type == Static && b.Type == Static {
			continue
		}
		if !overlaps(a, b) {
			continue
		}
		k := makePair(a.id, b.id)
		now[k] = true
		if !w.touching[k] {
			events = append(events, Contact{Begin: true, A: a, B: b})
		}
	}
	for k := range w.touching {
		if !now[k] {
			a, b := w.body(k.a), w.body(k.b)
			if a != nil && b != nil {
				events = append(events, Contact{Begin: false, A: a, B: b})
			}
		}
	}
	w.touching = now

	for _, ev := range events {
		// an earlier handler may have removed one of the bodies
		if !w.HasBody(ev.A) || !w.HasBody(ev.B) {
			continue
		}
		for _, h := range w.handlers {
			h(ev)
		}
	}
}

func (w *SimpleWorld) body(id BodyID) *Body {
	if i, ok := w.index[id]; ok {
		return w.bodies[i]
	}
	return nil
}

func integrate(b *Body, dt float64) {
	switch b.Type {
	case Static:
		b.Force = b.Force.Mul(0)
		return
	case Dynamic:
		if b.Mass > 0 {
			b.Velocity = b.Velocity.Add(b.Force.Mul(dt / b.Mass))
		}
	}
	if b.Damping > 0 {
		b.Velocity = b.Velocity.Mul(math.Pow(1-b.Damping, dt))
	}
	if b.AngularDamping > 0 {
		b.AngularVelocity *= math.Pow(1-b.AngularDamping, dt)
	}
	b.Position = b.Position.Add(b.Velocity.Mul(dt))
	b.Angle += b.AngularVelocity * dt
	b.Force = b.Force.Mul(0)
}

func overlaps(a, b *Body) bool {
	for _, sa := range a.Shapes {
		ra := sa.BoundingRadius()
		if ra < 0 {
			continue
		}
		for _, sb := range b.Shapes {
			rb := sb.BoundingRadius()
			if rb < 0 || !sa.Accepts(sb) {
				continue
			}
			d := a.shapeCenter(sa).Sub(b.shapeCenter(sb)).Len()
			if d <= ra+rb {
				return true
			}
		}
	}
	return false
}
