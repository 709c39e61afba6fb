package physics

// Contact is delivered when two bodies begin or stop touching.
type Contact struct {
	Begin bool
	A     *Body
	B     *Body
}

// World is the rigid-body simulation the game consumes. Only the actor
// manager adds or removes bodies.
type World interface {
	AddBody(b *Body)
	RemoveBody(b *Body)
	Step(dt float64)
	OnContact(fn func(Contact))
	HasBody(b *Body) bool
}
