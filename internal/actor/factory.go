package actor

import (
	"fmt"
	"maps"
	"slices"

	"github.com/sectorjam/server/internal/component"
	"github.com/sectorjam/server/internal/core/ecs"
	"github.com/sectorjam/server/internal/data"
)

// Factory builds actors from definitions through a registry of component
// constructors keyed by kind.
type Factory struct {
	env   *component.Env
	ctors map[component.Kind]component.Constructor
}

// NewFactory returns a factory with every built-in component kind registered.
func NewFactory(env *component.Env) *Factory {
	return &Factory{env: env, ctors: component.Constructors()}
}

// Register adds or replaces the constructor for kind.
func (f *Factory) Register(kind component.Kind, ctor component.Constructor) {
	f.ctors[kind] = ctor
}

func (f *Factory) Env() *component.Env { return f.env }

// Build constructs every component of def for the actor id, then runs the
// components' OnAdd hooks in key order.
func (f *Factory) Build(id ecs.EntityID, def *data.ActorDef) (*Actor, error) {
	a := &Actor{
		id:    id,
		alias: def.Alias,
		name:  def.Name,
		keys:  slices.Sorted(maps.Keys(def.Components)),
		cmps:  make(map[string]component.Component, len(def.Components)),
	}
	for _, key := range a.keys {
		cd := def.Components[key]
		ctor, ok := f.ctors[component.Kind(cd.Kind)]
		if !ok {
			return nil, fmt.Errorf("component %s: %w: %q", key, component.ErrUnknownKind, cd.Kind)
		}
		c, err := ctor(f.env, id, def, cd)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", key, err)
		}
		a.cmps[key] = c
	}
	a.index()
	if a.Physics != nil && def.Position == nil {
		return nil, ErrNoPosition
	}
	for _, key := range a.keys {
		if ad, ok := a.cmps[key].(component.Adder); ok {
			if err := ad.OnAdd(a); err != nil {
				return nil, fmt.Errorf("component %s: %w", key, err)
			}
		}
	}
	return a, nil
}
