package component

import (
	"fmt"

	"github.com/sectorjam/server/internal/core/ecs"
	"github.com/sectorjam/server/internal/core/event"
	"github.com/sectorjam/server/internal/data"
)

// HealthPolicy decides when a Health is empty.
type HealthPolicy string

const (
	// AtZero fires once hit points reach zero or less.
	AtZero HealthPolicy = "at_zero"
	// BelowZero fires only once hit points drop under zero.
	BelowZero HealthPolicy = "below_zero"
)

type healthConfig struct {
	Hitpoints int          `yaml:"hitpoints"`
	Max       int          `yaml:"max"`
	Policy    HealthPolicy `yaml:"policy"`
}

// Health fires ActorHasNoHealth once per crossing of its policy threshold.
type Health struct {
	id     ecs.EntityID
	bus    *event.Bus
	hp     int
	max    int
	policy HealthPolicy
	empty  bool
}

func NewHealth(env *Env, id ecs.EntityID, _ *data.ActorDef, def data.ComponentDef) (Component, error) {
	cfg := healthConfig{Hitpoints: 1, Policy: AtZero}
	if err := decode(def, &cfg); err != nil {
		return nil, err
	}
	switch cfg.Policy {
	case AtZero, BelowZero:
	default:
		return nil, fmt.Errorf("unknown health policy %q", cfg.Policy)
	}
	if cfg.Max < cfg.Hitpoints {
		cfg.Max = cfg.Hitpoints
	}
	return &Health{id: id, bus: env.Bus, hp: cfg.Hitpoints, max: cfg.Max, policy: cfg.Policy}, nil
}

func (h *Health) Kind() Kind           { return KindHealth }
func (h *Health) Hitpoints() int       { return h.hp }
func (h *Health) Max() int             { return h.max }
func (h *Health) Policy() HealthPolicy { return h.policy }

func (h *Health) depleted() bool {
	if h.policy == BelowZero {
		return h.hp < 0
	}
	return h.hp <= 0
}

// Subtract removes hit points. There is no clamp at zero.
func (h *Health) Subtract(n int) {
	h.hp -= n
	if h.depleted() && !h.empty {
		h.empty = true
		h.bus.Fire(event.ActorHasNoHealth, event.NoHealth{ActorID: h.id})
	}
}

// Heal adds hit points up to the maximum and re-arms the event once the
// health is no longer depleted.
func (h *Health) Heal(n int) {
	h.hp = min(h.max, h.hp+n)
	if !h.depleted() {
		h.empty = false
	}
}
