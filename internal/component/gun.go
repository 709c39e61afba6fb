package component

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/sectorjam/server/internal/core/ecs"
	"github.com/sectorjam/server/internal/core/event"
	"github.com/sectorjam/server/internal/data"
	"github.com/sectorjam/server/internal/physics"
)

type gunConfig struct {
	Offset      [2]float64 `yaml:"offset"`
	ReloadTime  float64    `yaml:"reload_time"` // seconds
	MaxAmmo     int        `yaml:"max_ammo"`
	InitialAmmo *int       `yaml:"initial_ammo"`
	Projectile  string     `yaml:"projectile"`
}

// Gun fires GunFired events, gated by a reload window and, when MaxAmmo is
// positive, by ammo.
type Gun struct {
	id    ecs.EntityID
	bus   *event.Bus
	clock Clock
	body  *physics.Body

	offset     mgl64.Vec2
	reload     time.Duration
	maxAmmo    int
	ammo       int
	projectile string

	fired    bool
	lastShot time.Duration
}

func NewGun(env *Env, id ecs.EntityID, _ *data.ActorDef, def data.ComponentDef) (Component, error) {
	cfg := gunConfig{Projectile: "Bullet"}
	if err := decode(def, &cfg); err != nil {
		return nil, err
	}
	g := &Gun{
		id:         id,
		bus:        env.Bus,
		clock:      env.Clock,
		offset:     mgl64.Vec2(cfg.Offset),
		reload:     time.Duration(cfg.ReloadTime * float64(time.Second)),
		maxAmmo:    cfg.MaxAmmo,
		projectile: cfg.Projectile,
	}
	if g.maxAmmo > 0 {
		g.ammo = g.maxAmmo
		if cfg.InitialAmmo != nil {
			g.ammo = min(*cfg.InitialAmmo, g.maxAmmo)
		}
	}
	return g, nil
}

func (g *Gun) Kind() Kind { return KindGun }

func (g *Gun) OnAdd(h Host) error {
	body, err := BodyOf(h)
	if err != nil {
		return err
	}
	g.body = body
	return nil
}

func (g *Gun) OnRemove(Host) { g.body = nil }

func (g *Gun) Limited() bool      { return g.maxAmmo > 0 }
func (g *Gun) MaxAmmo() int       { return g.maxAmmo }
func (g *Gun) Projectile() string { return g.projectile }

// Ammo returns the shots left, or -1 when ammo is unlimited.
func (g *Gun) Ammo() int {
	if !g.Limited() {
		return -1
	}
	return g.ammo
}

// Shoot fires if the reload window has elapsed and ammo is available. It
// reports whether a GunFired event was sent.
func (g *Gun) Shoot() bool {
	if g.body == nil {
		return false
	}
	if g.Limited() && g.ammo <= 0 {
		return false
	}
	now := g.clock.Now()
	if g.fired && now-g.lastShot < g.reload {
		return false
	}
	if g.Limited() {
		g.ammo--
	}
	g.fired = true
	g.lastShot = now
	g.bus.Fire(event.GunFired, event.GunFiredData{
		ActorID:    g.id,
		Position:   g.body.Position,
		Offset:     g.offset,
		Angle:      g.body.Angle,
		Projectile: g.projectile,
		Ammo:       g.Ammo(),
	})
	return true
}

// AddAmmo adds n shots, clamped to MaxAmmo, and returns the new count.
func (g *Gun) AddAmmo(n int) int {
	if !g.Limited() {
		return -1
	}
	g.ammo = min(g.maxAmmo, g.ammo+n)
	g.bus.Fire(event.AmmoChanged, event.AmmoChangedData{ActorID: g.id, Ammo: g.ammo})
	return g.ammo
}
