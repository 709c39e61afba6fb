package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sectorjam/server/internal/actor"
	"github.com/sectorjam/server/internal/audio"
	"github.com/sectorjam/server/internal/component"
	"github.com/sectorjam/server/internal/config"
	"github.com/sectorjam/server/internal/core/ecs"
	"github.com/sectorjam/server/internal/core/event"
	"github.com/sectorjam/server/internal/core/system"
	"github.com/sectorjam/server/internal/core/timer"
	"github.com/sectorjam/server/internal/data"
	"github.com/sectorjam/server/internal/persist"
	"github.com/sectorjam/server/internal/physics"
	"github.com/sectorjam/server/internal/render"
	"github.com/sectorjam/server/internal/scripting"
	"github.com/sectorjam/server/internal/state"
)

// Environment runs one gameplay session: it owns the physics world and the
// actor manager, interprets gameplay events and raises the session
// triggers. It is the state implementation of the Environment node and the
// PhaseUpdate system of the app.
type Environment struct {
	cfg      *config.Config
	log      *zap.Logger
	bus      *event.Bus
	sched    *timer.Scheduler
	loader   *data.Loader
	world    physics.World
	actors   *actor.Manager
	audio    audio.Manager
	renderer render.Renderer
	rules    Rules
	scores   ScoreSink
	states   *state.Manager
	owner    event.OwnerID
	camera   render.Camera

	defs    map[string]*data.ActorDef
	running bool

	sector      *Sector
	sectorStart uint64
	sectorScore int
	ticks       uint64

	hud     render.Layer
	notices render.Layer
	score   *render.Score
	ammo    map[ecs.EntityID]*render.AmmoCounter
	pending map[*timer.Handle]render.Drawable

	session  uuid.UUID
	cleared  int
	results  []persist.SectorResult
	finished bool
}

type EnvironmentDeps struct {
	Log      *zap.Logger
	Bus      *event.Bus
	Sched    *timer.Scheduler
	Loader   *data.Loader
	World    physics.World
	Renderer render.Renderer
	Audio    audio.Manager
	Rules    Rules
	Scores   ScoreSink // optional
	States   *state.Manager
}

func NewEnvironment(cfg *config.Config, deps EnvironmentDeps) (*Environment, error) {
	e := &Environment{
		cfg:      cfg,
		log:      deps.Log,
		bus:      deps.Bus,
		sched:    deps.Sched,
		loader:   deps.Loader,
		world:    deps.World,
		audio:    deps.Audio,
		renderer: deps.Renderer,
		rules:    deps.Rules,
		scores:   deps.Scores,
		states:   deps.States,
		owner:    event.NewOwnerID("environment"),
		camera:   render.NewCamera(cfg.Viewport.Width, cfg.Viewport.Height),
		defs:     make(map[string]*data.ActorDef),
		ammo:     make(map[ecs.EntityID]*render.AmmoCounter),
		pending:  make(map[*timer.Handle]render.Drawable),
	}
	if e.rules == nil {
		e.rules = BuiltinRules{}
	}

	env := &component.Env{
		Bus:      e.bus,
		Clock:    e.sched,
		Renderer: e.renderer,
		Rand:     e.newRand(0),
		AsteroidSpeed: component.SpeedRange{
			Base:     cfg.Asteroids.SpeedBase,
			Variance: cfg.Asteroids.SpeedVariance,
		},
	}
	actors, err := actor.NewManager(actor.Config{
		MaxActors:   cfg.Game.MaxActors,
		Camera:      e.camera,
		OuterBorder: mgl64.Vec2(cfg.Viewport.OuterBorder),
		InnerMargin: mgl64.Vec2(cfg.Viewport.InnerMargin),
		GraceWindow: cfg.Game.GraceWindow,
	}, actor.NewFactory(env), e.world, e.renderer, e.sched, e.log)
	if err != nil {
		return nil, err
	}
	e.actors = actors

	if e.hud, err = e.renderer.Layer(render.LayerHUD); err != nil {
		return nil, err
	}
	if e.notices, err = e.renderer.Layer(render.LayerNotices); err != nil {
		return nil, err
	}
	e.score = render.NewScore(e.renderer)
	e.score.Drawable().SetPosition(e.camera.Xmin+10, e.camera.Ymax-10)

	e.world.OnContact(func(c physics.Contact) {
		e.bus.Fire(event.Collision, c)
	})
	return e, nil
}

// newRand returns the random source for a sector. With a configured seed
// every sector replays the same way; otherwise it is random.
func (e *Environment) newRand(stream uint64) *rand.Rand {
	if e.cfg.Game.Seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(e.cfg.Game.Seed, stream))
}

func (e *Environment) Actors() *actor.Manager { return e.actors }
func (e *Environment) Score() int             { return e.score.Value() }
func (e *Environment) Running() bool          { return e.running }
func (e *Environment) Session() uuid.UUID     { return e.session }

// Player returns the player actor with the given alias while a sector is
// being played. Ships left over from a finished session are not in play.
func (e *Environment) Player(alias string) (*actor.Actor, bool) {
	if !e.running || e.sector == nil {
		return nil, false
	}
	a, err := e.actors.At(alias)
	if err != nil || !a.IsPlayer() {
		return nil, false
	}
	return a, true
}

// CurrentSector returns the sector being played, or nil between sectors.
func (e *Environment) CurrentSector() *Sector { return e.sector }

// Preload loads the players and the projectile definitions.
func (e *Environment) Preload(ctx context.Context) error {
	names := append(append([]string{}, e.cfg.Game.Preload...), e.cfg.Game.Players...)
	defs, err := e.loader.Actors(ctx, names)
	if err != nil {
		return err
	}
	e.defs = defs
	return nil
}

// Init creates the players and resets the HUD for a new session.
func (e *Environment) Init(context.Context) error {
	e.session = uuid.New()
	e.cleared = 0
	e.results = e.results[:0]
	e.finished = false
	e.score.Reset()
	e.hud.Add(e.score.Drawable())

	ids := make([]ecs.EntityID, 0, len(e.cfg.Game.Players))
	for i, name := range e.cfg.Game.Players {
		def := e.defs[name]
		if def.Alias == "" {
			withAlias := *def
			withAlias.Alias = name
			def = &withAlias
		}
		a, err := e.actors.Create(def)
		if err != nil {
			e.Deinit()
			return fmt.Errorf("create player %s: %w", name, err)
		}
		ids = append(ids, a.ID())
		if a.Gun != nil {
			c := render.NewAmmoCounter(e.renderer, i, a.Gun.Ammo())
			c.Drawable().SetPosition(e.camera.Xmax-120, e.camera.Ymax-10-20*float64(i))
			e.hud.Add(c.Drawable())
			e.ammo[a.ID()] = c
		}
	}
	e.audio.Init(ids)
	e.log.Info("session started", zap.Stringer("session", e.session), zap.Int("players", len(ids)))
	return nil
}

// Deinit removes every actor and HUD element of the session.
func (e *Environment) Deinit() {
	e.sector = nil
	e.actors.Deinit()
	for h, d := range e.pending {
		h.Cancel()
		e.notices.Remove(d)
	}
	clear(e.pending)
	for id, c := range e.ammo {
		e.hud.Remove(c.Drawable())
		delete(e.ammo, id)
	}
	e.hud.Remove(e.score.Drawable())
}

func (e *Environment) Start(context.Context) error {
	e.running = true
	return nil
}

func (e *Environment) Stop() { e.running = false }

func (e *Environment) Attach(context.Context) error {
	e.bus.Batch(e.owner,
		event.On(event.Collision, e.onCollision),
		event.On(event.ActorHasNoHealth, e.onNoHealth),
		event.On(event.GunFired, e.onGunFired),
		event.On(event.AmmoChanged, e.onAmmoChanged),
	)
	e.audio.Attach(e.bus)
	return nil
}

func (e *Environment) Detach() {
	e.audio.Detach(e.bus)
	e.bus.Unbatch(e.owner)
}

// EnterSector preloads the sector, creates its actors and starts it.
func (e *Environment) EnterSector(ctx context.Context, st *state.State) error {
	sec, ok := st.Impl().(*Sector)
	if !ok {
		return fmt.Errorf("state %s is not a sector", st.Name())
	}
	e.sector = nil
	if err := st.Preload(ctx); err != nil {
		return err
	}
	e.actors.Factory().Env().Rand = e.newRand(xxhash.Sum64String(sec.Name()))
	for _, def := range sec.Actors() {
		if _, err := e.actors.Create(def); err != nil {
			return fmt.Errorf("sector %s: %w", sec.Name(), err)
		}
	}
	e.sector = sec
	e.sectorStart = e.ticks
	e.sectorScore = e.score.Value()
	return st.Start(ctx)
}

// LeaveCurrentSector records the result of the active sector, if any.
func (e *Environment) LeaveCurrentSector(outcome string) {
	if e.sector == nil {
		return
	}
	if outcome == OutcomeComplete {
		e.cleared++
	}
	e.results = append(e.results, persist.SectorResult{
		Sector:  e.sector.Name(),
		Outcome: outcome,
		Score:   e.score.Value() - e.sectorScore,
		Ticks:   int(e.ticks - e.sectorStart),
	})
	e.log.Info("sector left",
		zap.String("sector", e.sector.Name()),
		zap.String("outcome", outcome),
		zap.Int("score", e.score.Value()))
	e.sector = nil
}

// Finish closes the session and stores its score. Storage errors are
// logged only.
func (e *Environment) Finish(ctx context.Context, outcome string) {
	if e.finished {
		return
	}
	e.finished = true
	final := e.rules.CalcFinalScore(e.score.Value(), e.cleared)
	e.log.Info("session finished",
		zap.Stringer("session", e.session),
		zap.String("outcome", outcome),
		zap.Int("score", final),
		zap.Int("sectors", e.cleared))
	if e.scores == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := e.scores.Record(ctx, persist.ScoreRow{
		SessionID: e.session,
		Players:   e.cfg.Game.Players,
		Score:     final,
		Sectors:   e.cleared,
		Outcome:   outcome,
	}, e.results)
	if err != nil {
		e.log.Error("record score", zap.Error(err))
	}
}

// Phase implements system.System.
func (e *Environment) Phase() system.Phase { return system.PhaseUpdate }

// Update steps physics, updates the actors and raises the session triggers.
func (e *Environment) Update(ctx context.Context, dt time.Duration) error {
	if !e.running {
		return nil
	}
	e.ticks++
	secs := dt.Seconds()
	e.world.Step(secs)
	switch e.actors.Update(secs) {
	case actor.Failure:
		if e.sector != nil {
			return e.states.Trigger(ctx, PlayerDied)
		}
	case actor.Success:
		if e.sector != nil {
			return e.states.Trigger(ctx, SectorComplete)
		}
	}
	return nil
}

func (e *Environment) onCollision(c physics.Contact) {
	if !c.Begin {
		return
	}
	a, okA := e.actors.OwnerOf(c.A)
	b, okB := e.actors.OwnerOf(c.B)
	if !okA || !okB {
		e.log.Debug("contact with unowned body")
		return
	}
	e.damage(a, b)
	e.damage(b, a)

	if a.IsProjectile() || b.IsProjectile() {
		e.audio.OnProjectileHit()
		delta := e.rules.CalcHitScore(scripting.HitContext{
			A: scripting.Side{Projectile: a.IsProjectile(), Player: a.IsPlayer()},
			B: scripting.Side{Projectile: b.IsProjectile(), Player: b.IsPlayer()},
		})
		e.addScore(delta)
		return
	}
	e.audio.OnCollision()
}

// damage takes hit points from target. Every contact deducts the fixed
// collision damage, except a projectile whose own damage is set above zero:
// that hits for its own damage instead. The shipped Bullet uses 1, the same
// as collision_damage.
func (e *Environment) damage(target, from *actor.Actor) {
	if target.Health == nil {
		return
	}
	n := e.cfg.Game.CollisionDamage
	if from.Projectile != nil && from.Projectile.Damage > 0 {
		n = from.Projectile.Damage
	}
	target.Health.Subtract(n)
}

func (e *Environment) addScore(delta int) {
	if delta == 0 {
		return
	}
	total := e.score.Add(delta)
	e.bus.Fire(event.ScoreChanged, event.ScoreChangedData{Score: total, Delta: delta})
}

func (e *Environment) onNoHealth(ev event.NoHealth) {
	a, ok := e.actors.Get(ev.ActorID)
	if !ok || !e.actors.QueueDelete(ev.ActorID) {
		return
	}
	body := a.Body()
	switch {
	case a.Exploder != nil && body != nil:
		def, err := e.def(a.Exploder.Debris)
		if err != nil {
			e.log.Error("explosion debris", zap.Error(err))
			return
		}
		if _, err := e.actors.CreateExplosion(def, body.Position, a.Exploder.Offset, a.Exploder.Count, a.Exploder.Speed); err != nil {
			e.log.Warn("explosion cut short", zap.Error(err))
		}
	case !a.IsPlayer() && !a.IsProjectile():
		players := e.actors.Players()
		bonus := e.rules.CalcAmmoBonus(len(players), e.cfg.Game.AmmoBonuses)
		if bonus <= 0 {
			return
		}
		for _, p := range players {
			if p.Gun != nil {
				p.Gun.AddAmmo(bonus)
			}
		}
		if body != nil {
			e.spawnNotice(fmt.Sprintf("+%d AMMO", bonus), body.Position)
		}
	}
}

func (e *Environment) spawnNotice(text string, at mgl64.Vec2) {
	label := e.renderer.Label(text)
	label.SetPosition(at[0], at[1])
	e.notices.Add(label)
	var h *timer.Handle
	h = e.sched.After(e.cfg.Game.NoticeDuration, func(context.Context) error {
		e.notices.Remove(label)
		delete(e.pending, h)
		return nil
	})
	e.pending[h] = label
}

// Notices returns the number of pickup notices on screen.
func (e *Environment) Notices() int { return len(e.pending) }

func (e *Environment) onGunFired(ev event.GunFiredData) {
	e.audio.OnGunFired(ev)
	def, err := e.def(ev.Projectile)
	if err != nil {
		e.log.Error("gun projectile", zap.Error(err))
		return
	}
	if _, err := e.actors.CreateProjectile(def, actor.ProjectileOptions{
		Position: ev.Position,
		Offset:   ev.Offset,
		Angle:    ev.Angle,
	}); err != nil {
		e.log.Warn("projectile not created", zap.Error(err))
	}
	if c, ok := e.ammo[ev.ActorID]; ok {
		c.Set(ev.Ammo)
	}
}

func (e *Environment) onAmmoChanged(ev event.AmmoChangedData) {
	if c, ok := e.ammo[ev.ActorID]; ok {
		c.Set(ev.Ammo)
	}
}

// AmmoShown returns what the HUD shows for a player's ammo.
func (e *Environment) AmmoShown(id ecs.EntityID) (int, bool) {
	c, ok := e.ammo[id]
	if !ok {
		return 0, false
	}
	return c.Ammo(), true
}

// def returns a preloaded definition, loading it on first use otherwise.
func (e *Environment) def(name string) (*data.ActorDef, error) {
	if d, ok := e.defs[name]; ok {
		return d, nil
	}
	d, err := e.loader.Actor(name)
	if err != nil {
		return nil, err
	}
	e.log.Warn("definition was not preloaded", zap.String("name", name))
	e.defs[name] = d
	return d, nil
}
