package actor

import (
	"errors"
	"slices"

	"github.com/sectorjam/server/internal/component"
	"github.com/sectorjam/server/internal/core/ecs"
	"github.com/sectorjam/server/internal/core/timer"
	"github.com/sectorjam/server/internal/physics"
)

var (
	ErrDuplicateAlias = errors.New("duplicate actor alias")
	ErrActorLimit     = errors.New("actor limit reached")
	ErrNoSuchActor    = errors.New("no such actor")
	ErrNoPosition     = errors.New("physics actor has no position")
)

// Actor is a game entity: an id, an optional alias, and its components keyed
// by the names given in its definition.
type Actor struct {
	id    ecs.EntityID
	alias string
	name  string
	keys  []string
	cmps  map[string]component.Component

	// First component of each kind, resolved once at build time.
	Physics    *component.Physics
	Animated   *component.Animated
	Input      *component.InputDriver
	Gun        *component.Gun
	Health     *component.Health
	Projectile *component.Projectile
	Exploder   *component.Exploder

	layer  string
	timers []*timer.Handle
}

func (a *Actor) ID() ecs.EntityID { return a.id }
func (a *Actor) Alias() string    { return a.alias }

// Name is the definition the actor was built from.
func (a *Actor) Name() string { return a.name }

// Keys returns the component keys in sorted order.
func (a *Actor) Keys() []string { return slices.Clone(a.keys) }

func (a *Actor) Component(key string) (component.Component, bool) {
	c, ok := a.cmps[key]
	return c, ok
}

// First implements component.Host.
func (a *Actor) First(kind component.Kind) component.Component {
	for _, k := range a.keys {
		if c := a.cmps[k]; c.Kind() == kind {
			return c
		}
	}
	return nil
}

// IsPlayer reports whether the actor is driven by input.
func (a *Actor) IsPlayer() bool { return a.Input != nil }

func (a *Actor) IsProjectile() bool { return a.Projectile != nil }

// Body returns the physics body, or nil for actors without physics.
func (a *Actor) Body() *physics.Body {
	if a.Physics == nil {
		return nil
	}
	return a.Physics.Body()
}

// Layer is the render layer the actor's drawable was attached to.
func (a *Actor) Layer() string { return a.layer }

func (a *Actor) own(h *timer.Handle) {
	a.timers = append(a.timers, h)
}

// destroy runs the components' removal hooks and cancels owned timers.
func (a *Actor) destroy() {
	for _, h := range a.timers {
		h.Cancel()
	}
	a.timers = nil
	for _, k := range a.keys {
		if r, ok := a.cmps[k].(component.Remover); ok {
			r.OnRemove(a)
		}
	}
}

func (a *Actor) index() {
	for _, k := range a.keys {
		switch c := a.cmps[k].(type) {
		case *component.Physics:
			a.Physics = firstOf(a.Physics, c)
		case *component.Animated:
			a.Animated = firstOf(a.Animated, c)
		case *component.InputDriver:
			a.Input = firstOf(a.Input, c)
		case *component.Gun:
			a.Gun = firstOf(a.Gun, c)
		case *component.Health:
			a.Health = firstOf(a.Health, c)
		case *component.Projectile:
			a.Projectile = firstOf(a.Projectile, c)
		case *component.Exploder:
			a.Exploder = firstOf(a.Exploder, c)
		}
	}
}

func firstOf[T any](cur, next *T) *T {
	if cur != nil {
		return cur
	}
	return next
}
