package actor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/sectorjam/server/internal/component"
	"github.com/sectorjam/server/internal/core/ecs"
	"github.com/sectorjam/server/internal/core/timer"
	"github.com/sectorjam/server/internal/data"
	"github.com/sectorjam/server/internal/physics"
	"github.com/sectorjam/server/internal/render"
)

// UpdateResult is the outcome of one Update pass.
type UpdateResult int

const (
	// Continue means asteroids remain.
	Continue UpdateResult = iota
	// Success means nothing but players and projectiles is left.
	Success
	// Failure means a player was removed during the pass.
	Failure
)

func (r UpdateResult) String() string {
	switch r {
	case Continue:
		return "continue"
	case Success:
		return "success"
	case Failure:
		return "failure"
	}
	return "unknown"
}

type Config struct {
	MaxActors   int
	Camera      render.Camera
	OuterBorder mgl64.Vec2
	InnerMargin mgl64.Vec2
	GraceWindow time.Duration
}

// ProjectileOptions places a projectile relative to the actor firing it.
// Speed overrides the projectile's own speed when positive.
type ProjectileOptions struct {
	Position mgl64.Vec2
	Offset   mgl64.Vec2
	Angle    float64
	Speed    float64
}

// Manager owns every live actor. It is the only code that adds or removes
// bodies and drawables.
type Manager struct {
	cfg     Config
	log     *zap.Logger
	factory *Factory
	world   physics.World
	layers  map[string]render.Layer
	sched   *timer.Scheduler

	ents    *ecs.World
	actors  *ecs.Store[Actor]
	byAlias map[string]*Actor
	owners  map[physics.BodyID]*Actor
	players []*Actor

	playerDied bool
}

func NewManager(cfg Config, f *Factory, world physics.World, r render.Renderer, sched *timer.Scheduler, log *zap.Logger) (*Manager, error) {
	layers, err := render.MustLayers(r, render.Layers...)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:     cfg,
		log:     log,
		factory: f,
		world:   world,
		layers:  layers,
		sched:   sched,
		ents:    ecs.NewWorld(),
		actors:  ecs.NewStore[Actor](),
		byAlias: make(map[string]*Actor),
		owners:  make(map[physics.BodyID]*Actor),
	}
	m.ents.Register(m.actors)
	return m, nil
}

// Create builds an actor from def and puts it into play.
func (m *Manager) Create(def *data.ActorDef) (*Actor, error) {
	if m.cfg.MaxActors > 0 && m.actors.Len() >= m.cfg.MaxActors {
		return nil, fmt.Errorf("create %s: %w (%d)", def.Name, ErrActorLimit, m.cfg.MaxActors)
	}
	if def.Alias != "" {
		if _, ok := m.byAlias[def.Alias]; ok {
			return nil, fmt.Errorf("create %s: %w: %q", def.Name, ErrDuplicateAlias, def.Alias)
		}
	}

	id := m.ents.CreateEntity()
	a, err := m.factory.Build(id, def)
	if err != nil {
		m.ents.Destroy(id)
		return nil, fmt.Errorf("create %s: %w", def.Name, err)
	}
	layer := m.layerFor(a)
	if a.Animated != nil {
		if _, ok := m.layers[layer]; !ok {
			a.destroy()
			m.ents.Destroy(id)
			return nil, fmt.Errorf("create %s: %w: %q", def.Name, render.ErrUnknownLayer, layer)
		}
	}

	m.actors.Set(id, a)
	if a.alias != "" {
		m.byAlias[a.alias] = a
	}
	if body := a.Body(); body != nil {
		m.world.AddBody(body)
		m.owners[body.ID()] = a
	}
	if a.Animated != nil {
		a.layer = layer
		m.sync(a)
		m.layers[layer].Add(a.Animated.Drawable())
	}
	if a.IsPlayer() {
		m.players = append(m.players, a)
		if a.Animated != nil && a.Animated.Shield() != nil {
			m.layers[render.LayerLower].Add(a.Animated.Shield())
		}
	}
	return a, nil
}

func (m *Manager) layerFor(a *Actor) string {
	if a.Animated != nil && a.Animated.Stage() != "" {
		return a.Animated.Stage()
	}
	if a.IsProjectile() {
		return render.LayerProjectiles
	}
	return render.LayerMain
}

// CreateProjectile creates def at the muzzle described by opts, moving along
// the firing angle. For GraceWindow the projectile's first shape ignores
// players so a shot does not hit its own shooter.
func (m *Manager) CreateProjectile(def *data.ActorDef, opts ProjectileOptions) (*Actor, error) {
	sin, cos := math.Sincos(opts.Angle)
	pos := mgl64.Vec2{
		opts.Position[0] + opts.Offset[0]*cos,
		opts.Position[1] + opts.Offset[1]*sin,
	}
	a, err := m.Create(def.WithPosition(pos))
	if err != nil {
		return nil, err
	}
	body := a.Body()
	if body == nil {
		return a, nil
	}
	speed := opts.Speed
	if speed <= 0 && a.Projectile != nil {
		speed = a.Projectile.Speed
	}
	body.Velocity = mgl64.Vec2{speed * cos, speed * sin}
	body.Angle = opts.Angle
	m.sync(a)

	if m.cfg.GraceWindow > 0 && len(body.Shapes) > 0 {
		shape := body.Shapes[0]
		mask := shape.Mask
		shape.Mask &^= physics.GroupPlayers
		a.own(m.sched.After(m.cfg.GraceWindow, func(context.Context) error {
			shape.Mask = mask
			return nil
		}))
	}
	return a, nil
}

// CreateExplosion spawns count projectiles spread evenly over a full turn,
// starting from a random angle drawn from the factory's random source.
func (m *Manager) CreateExplosion(def *data.ActorDef, position, offset mgl64.Vec2, count int, speed float64) ([]*Actor, error) {
	if count <= 0 {
		return nil, nil
	}
	phase := m.factory.env.Rand.Float64() * 2 * math.Pi
	step := 2 * math.Pi / float64(count)
	out := make([]*Actor, 0, count)
	for i := range count {
		a, err := m.CreateProjectile(def, ProjectileOptions{
			Position: position,
			Offset:   offset,
			Angle:    phase + float64(i)*step,
			Speed:    speed,
		})
		if err != nil {
			return out, err
		}
		out = append(out, a)
	}
	return out, nil
}

// QueueDelete marks an actor for removal at the end of the current or next
// Update. It reports false when the id is unknown or already queued.
func (m *Manager) QueueDelete(id ecs.EntityID) bool {
	if !m.actors.Has(id) {
		return false
	}
	return m.ents.MarkForDestruction(id)
}

// Queued reports whether the actor is waiting to be deleted.
func (m *Manager) Queued(id ecs.EntityID) bool { return m.ents.Queued(id) }

// Update runs one pass over every actor: wrap or cull, sync drawables, run
// drivers, then apply queued deletions.
func (m *Manager) Update(dt float64) UpdateResult {
	m.playerDied = false

	m.actors.Each(func(id ecs.EntityID, a *Actor) {
		if body := a.Body(); body != nil {
			if !a.IsProjectile() {
				body.Position = m.wrap(body.Position)
			} else if !m.cfg.Camera.InRange(body.Position[0], body.Position[1]) {
				m.QueueDelete(id)
			}
		}
		m.sync(a)
		for _, k := range a.keys {
			if u, ok := a.cmps[k].(component.Updater); ok {
				u.Update(dt)
			}
		}
	})

	m.ents.FlushDestroyQueue(m.doDelete)

	if m.playerDied {
		return Failure
	}
	for _, a := range m.actors.Values() {
		if !a.IsPlayer() && !a.IsProjectile() {
			return Continue
		}
	}
	return Success
}

// wrap moves a position that left the outer border to the opposite side,
// inset by the inner margin.
func (m *Manager) wrap(p mgl64.Vec2) mgl64.Vec2 {
	cam := m.cfg.Camera
	xmin, xmax := cam.Xmin-m.cfg.OuterBorder[0], cam.Xmax+m.cfg.OuterBorder[0]
	ymin, ymax := cam.Ymin-m.cfg.OuterBorder[1], cam.Ymax+m.cfg.OuterBorder[1]
	if p[0] < xmin {
		p[0] = xmax - m.cfg.InnerMargin[0]
	} else if p[0] > xmax {
		p[0] = xmin + m.cfg.InnerMargin[0]
	}
	if p[1] < ymin {
		p[1] = ymax - m.cfg.InnerMargin[1]
	} else if p[1] > ymax {
		p[1] = ymin + m.cfg.InnerMargin[1]
	}
	return p
}

func (m *Manager) sync(a *Actor) {
	body := a.Body()
	if body == nil || a.Animated == nil {
		return
	}
	a.Animated.Sync(body.Position[0], body.Position[1], body.Angle)
}

// doDelete tears an actor out of every index. Unknown ids are ignored.
func (m *Manager) doDelete(id ecs.EntityID) {
	a, ok := m.actors.Get(id)
	if !ok {
		return
	}
	for i, p := range m.players {
		if p == a {
			m.players = append(m.players[:i], m.players[i+1:]...)
			m.playerDied = true
			if a.Animated != nil && a.Animated.Shield() != nil {
				m.layers[render.LayerLower].Remove(a.Animated.Shield())
			}
			break
		}
	}
	if body := a.Body(); body != nil {
		m.world.RemoveBody(body)
		delete(m.owners, body.ID())
	}
	if a.Animated != nil && a.layer != "" {
		m.layers[a.layer].Remove(a.Animated.Drawable())
	}
	if a.alias != "" && m.byAlias[a.alias] == a {
		delete(m.byAlias, a.alias)
	}
	m.actors.Remove(id)
	a.destroy()
}

// Delete removes an actor immediately. Unknown ids are a no-op.
func (m *Manager) Delete(id ecs.EntityID) {
	if !m.ents.Alive(id) {
		return
	}
	m.doDelete(id)
	m.ents.Destroy(id)
}

// Deinit deletes every actor and clears the outcome flags.
func (m *Manager) Deinit() {
	for _, id := range m.actors.IDs() {
		m.Delete(id)
	}
	m.ents.FlushDestroyQueue(nil)
	m.players = m.players[:0]
	m.playerDied = false
}

// OwnerOf resolves a body back to its actor.
func (m *Manager) OwnerOf(body *physics.Body) (*Actor, bool) {
	if body == nil {
		return nil, false
	}
	a, ok := m.owners[body.ID()]
	return a, ok
}

// At looks an actor up by alias.
func (m *Manager) At(alias string) (*Actor, error) {
	a, ok := m.byAlias[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchActor, alias)
	}
	return a, nil
}

func (m *Manager) Get(id ecs.EntityID) (*Actor, bool) {
	return m.actors.Get(id)
}

// Players returns the tracked players in creation order.
func (m *Manager) Players() []*Actor {
	out := make([]*Actor, len(m.players))
	copy(out, m.players)
	return out
}

// Failed reports whether a player died during the last Update.
func (m *Manager) Failed() bool { return m.playerDied }

func (m *Manager) Len() int { return m.actors.Len() }

// Each visits live actors in creation order.
func (m *Manager) Each(fn func(a *Actor)) {
	m.actors.Each(func(_ ecs.EntityID, a *Actor) { fn(a) })
}

func (m *Manager) Factory() *Factory { return m.factory }
