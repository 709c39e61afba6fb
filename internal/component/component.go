package component

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sectorjam/server/internal/core/ecs"
	"github.com/sectorjam/server/internal/core/event"
	"github.com/sectorjam/server/internal/data"
	"github.com/sectorjam/server/internal/physics"
	"github.com/sectorjam/server/internal/render"
)

var ErrUnknownKind = errors.New("unknown component kind")

// Kind names a component capability as written in definitions.
type Kind string

const (
	KindPhysics        Kind = "physics"
	KindAnimated       Kind = "animated"
	KindInputDriver    Kind = "input_driver"
	KindAsteroidDriver Kind = "asteroid_driver"
	KindGun            Kind = "gun"
	KindHealth         Kind = "health"
	KindProjectile     Kind = "projectile"
	KindExploder       Kind = "exploder"
)

type Component interface {
	Kind() Kind
}

// Host is the actor a component lives on.
type Host interface {
	ID() ecs.EntityID
	// First returns the first component of kind in key order, or nil.
	First(kind Kind) Component
}

// Adder is implemented by components that wire themselves to siblings once
// every component of the actor has been built.
type Adder interface {
	OnAdd(h Host) error
}

// Remover is implemented by components with teardown work.
type Remover interface {
	OnRemove(h Host)
}

// Updater is implemented by drivers that run once per tick.
type Updater interface {
	Update(dt float64)
}

// Clock is the game's virtual time source.
type Clock interface {
	Now() time.Duration
}

// SpeedRange is a base speed plus a random variance.
type SpeedRange struct {
	Base     float64
	Variance float64
}

// Env carries the services component constructors need.
type Env struct {
	Bus           *event.Bus
	Clock         Clock
	Renderer      render.Renderer
	Rand          *rand.Rand
	AsteroidSpeed SpeedRange
}

// Constructor builds one component for the actor being created.
type Constructor func(env *Env, id ecs.EntityID, actor *data.ActorDef, def data.ComponentDef) (Component, error)

// Constructors returns the constructor for every built-in kind.
func Constructors() map[Kind]Constructor {
	return map[Kind]Constructor{
		KindPhysics:        NewPhysics,
		KindAnimated:       NewAnimated,
		KindInputDriver:    NewInputDriver,
		KindAsteroidDriver: NewAsteroidDriver,
		KindGun:            NewGun,
		KindHealth:         NewHealth,
		KindProjectile:     NewProjectile,
		KindExploder:       NewExploder,
	}
}

// BodyOf returns the physics body of h.
func BodyOf(h Host) (*physics.Body, error) {
	p, ok := h.First(KindPhysics).(*Physics)
	if !ok {
		return nil, fmt.Errorf("actor %s has no physics component", h.ID())
	}
	return p.Body(), nil
}

func decode(def data.ComponentDef, out any) error {
	if err := def.Decode(out); err != nil {
		return fmt.Errorf("decode %s config: %w", def.Kind, err)
	}
	return nil
}
