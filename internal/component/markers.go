package component

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/sectorjam/server/internal/core/ecs"
	"github.com/sectorjam/server/internal/data"
)

// Projectile marks shots and debris. They are culled instead of wrapped.
type Projectile struct {
	Speed  float64 `yaml:"speed"`
	Damage int     `yaml:"damage"`
}

func NewProjectile(_ *Env, _ ecs.EntityID, _ *data.ActorDef, def data.ComponentDef) (Component, error) {
	p := &Projectile{Damage: 1}
	if err := decode(def, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Projectile) Kind() Kind { return KindProjectile }

// Exploder makes an actor burst into debris when its health runs out.
type Exploder struct {
	Debris string
	Offset mgl64.Vec2
	Count  int
	Speed  float64
}

type exploderConfig struct {
	Debris string     `yaml:"debris"`
	Offset [2]float64 `yaml:"offset"`
	Count  int        `yaml:"count"`
	Speed  float64    `yaml:"speed"`
}

func NewExploder(_ *Env, _ ecs.EntityID, _ *data.ActorDef, def data.ComponentDef) (Component, error) {
	cfg := exploderConfig{Debris: "Debris", Count: 8}
	if err := decode(def, &cfg); err != nil {
		return nil, err
	}
	return &Exploder{Debris: cfg.Debris, Offset: mgl64.Vec2(cfg.Offset), Count: cfg.Count, Speed: cfg.Speed}, nil
}

func (e *Exploder) Kind() Kind { return KindExploder }
