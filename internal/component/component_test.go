package component

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectorjam/server/internal/core/ecs"
	"github.com/sectorjam/server/internal/core/event"
	"github.com/sectorjam/server/internal/core/timer"
	"github.com/sectorjam/server/internal/data"
	"github.com/sectorjam/server/internal/physics"
	"github.com/sectorjam/server/internal/render"
)

type testHost struct {
	id    ecs.EntityID
	comps []Component
}

func (h *testHost) ID() ecs.EntityID { return h.id }

func (h *testHost) First(kind Kind) Component {
	for _, c := range h.comps {
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}

func newEnv() (*Env, *timer.Scheduler) {
	clock := timer.NewScheduler()
	return &Env{
		Bus:           event.NewBus(),
		Clock:         clock,
		Renderer:      render.NewHeadless(),
		Rand:          rand.New(rand.NewPCG(1, 2)),
		AsteroidSpeed: SpeedRange{Base: 10, Variance: 5},
	}, clock
}

// build constructs the components for cfgs (kind -> config) and runs OnAdd.
func build(t *testing.T, env *Env, pos *mgl64.Vec2, cfgs map[Kind]map[string]any) *testHost {
	t.Helper()
	host := &testHost{id: ecs.NewEntityID(1, 1)}
	def := &data.ActorDef{Position: pos}
	ctors := Constructors()
	for _, kind := range []Kind{KindPhysics, KindAnimated, KindGun, KindInputDriver, KindAsteroidDriver, KindHealth, KindProjectile, KindExploder} {
		cfg, ok := cfgs[kind]
		if !ok {
			continue
		}
		c, err := ctors[kind](env, host.id, def, data.ComponentDef{Kind: string(kind), Config: cfg})
		require.NoError(t, err)
		host.comps = append(host.comps, c)
	}
	for _, c := range host.comps {
		if a, ok := c.(Adder); ok {
			require.NoError(t, a.OnAdd(host))
		}
	}
	return host
}

var circle = map[string]any{
	"shapes": []any{map[string]any{"type": "circle", "radius": 8}},
}

func TestPhysicsBuildsBodyAtActorPosition(t *testing.T) {
	env, _ := newEnv()
	pos := mgl64.Vec2{3, 4}
	host := build(t, env, &pos, map[Kind]map[string]any{
		KindPhysics: {
			"body": map[string]any{"type": "kinematic", "mass": 2},
			"shapes": []any{map[string]any{
				"type": "box", "width": 6, "height": 8,
				"group": []any{"asteroids"}, "mask": []any{"players", "projectiles"},
			}},
		},
	})
	body, err := BodyOf(host)
	require.NoError(t, err)
	assert.Equal(t, physics.Kinematic, body.Type)
	assert.Equal(t, pos, body.Position)
	require.Len(t, body.Shapes, 1)
	assert.Equal(t, physics.GroupAsteroids, body.Shapes[0].Group)
	assert.Equal(t, physics.GroupPlayers|physics.GroupProjectiles, body.Shapes[0].Mask)
}

func TestPhysicsRejectsInvalidTypes(t *testing.T) {
	env, _ := newEnv()
	def := &data.ActorDef{}
	_, err := NewPhysics(env, ecs.NoEntity, def, data.ComponentDef{Kind: "physics", Config: map[string]any{
		"body": map[string]any{"type": "wobbly"},
	}})
	assert.ErrorIs(t, err, physics.ErrInvalidBodyType)

	_, err = NewPhysics(env, ecs.NoEntity, def, data.ComponentDef{Kind: "physics", Config: map[string]any{
		"shapes": []any{map[string]any{"type": "blob"}},
	}})
	assert.ErrorIs(t, err, physics.ErrInvalidShapeType)
}

func TestGunReloadWindow(t *testing.T) {
	env, clock := newEnv()
	host := build(t, env, nil, map[Kind]map[string]any{
		KindPhysics: circle,
		KindGun:     {"reload_time": 0.5, "projectile": "Bullet"},
	})
	gun := host.First(KindGun).(*Gun)

	var shots []event.GunFiredData
	env.Bus.Batch("t", event.On(event.GunFired, func(d event.GunFiredData) { shots = append(shots, d) }))

	assert.True(t, gun.Shoot())
	require.NoError(t, clock.Advance(context.Background(), 200*time.Millisecond))
	assert.False(t, gun.Shoot(), "still reloading")
	assert.Len(t, shots, 1)

	require.NoError(t, clock.Advance(context.Background(), 300*time.Millisecond))
	assert.True(t, gun.Shoot())
	require.Len(t, shots, 2)
	assert.Equal(t, "Bullet", shots[1].Projectile)
	assert.Equal(t, -1, shots[1].Ammo)
}

func TestGunAmmo(t *testing.T) {
	env, clock := newEnv()
	host := build(t, env, nil, map[Kind]map[string]any{
		KindPhysics: circle,
		KindGun:     {"reload_time": 0, "max_ammo": 3, "initial_ammo": 1},
	})
	gun := host.First(KindGun).(*Gun)
	assert.Equal(t, 1, gun.Ammo())

	assert.True(t, gun.Shoot())
	require.NoError(t, clock.Advance(context.Background(), time.Second))
	assert.False(t, gun.Shoot(), "out of ammo")

	var changed []int
	env.Bus.Batch("t", event.On(event.AmmoChanged, func(d event.AmmoChangedData) { changed = append(changed, d.Ammo) }))
	assert.Equal(t, 3, gun.AddAmmo(10), "clamped to max")
	assert.Equal(t, []int{3}, changed)
}

func TestHealthPolicies(t *testing.T) {
	for _, tc := range []struct {
		policy string
		fired  []int // events seen after each successive hit
	}{
		{"at_zero", []int{0, 1, 1, 1}},
		{"below_zero", []int{0, 0, 1, 1}},
	} {
		t.Run(tc.policy, func(t *testing.T) {
			env, _ := newEnv()
			fired := 0
			env.Bus.Batch("t", event.On(event.ActorHasNoHealth, func(event.NoHealth) { fired++ }))
			host := build(t, env, nil, map[Kind]map[string]any{
				KindHealth: {"hitpoints": 2, "policy": tc.policy},
			})
			h := host.First(KindHealth).(*Health)
			for i, want := range tc.fired {
				h.Subtract(1)
				assert.Equal(t, want, fired, "after hit %d", i+1)
			}
		})
	}
}

func TestHealthHealRearms(t *testing.T) {
	env, _ := newEnv()
	fired := 0
	env.Bus.Batch("t", event.On(event.ActorHasNoHealth, func(event.NoHealth) { fired++ }))
	host := build(t, env, nil, map[Kind]map[string]any{KindHealth: {"hitpoints": 1, "max": 3}})
	h := host.First(KindHealth).(*Health)

	h.Subtract(1)
	h.Heal(5)
	assert.Equal(t, 3, h.Hitpoints())
	h.Subtract(3)
	assert.Equal(t, 2, fired)
}

func TestInputDriverThrustAndEngineEvents(t *testing.T) {
	env, _ := newEnv()
	host := build(t, env, nil, map[Kind]map[string]any{
		KindPhysics:     circle,
		KindInputDriver: {"max_ang_speed": 2, "max_fwd_thrust": 100, "max_rev_thrust": 40},
	})
	d := host.First(KindInputDriver).(*InputDriver)
	body, _ := BodyOf(host)

	var started, stopped int
	env.Bus.Batch("t",
		event.On(event.EngineStarted, func(event.Engine) { started++ }),
		event.On(event.EngineStopped, func(event.Engine) { stopped++ }),
	)

	require.NoError(t, d.Command("up"))
	require.NoError(t, d.Command("down"))
	assert.Equal(t, 1, started, "engine starts once for both directions")
	assert.Equal(t, -40.0, d.Thrust())

	d.StopDown()
	assert.Equal(t, 100.0, d.Thrust(), "falls back to the held direction")
	d.StopUp()
	assert.Equal(t, 1, stopped)
	d.StopUp()
	assert.Equal(t, 1, stopped, "stop without start is ignored")

	d.Up()
	d.Right()
	d.Update(1.0 / 30)
	assert.InDelta(t, 100.0, body.Force[0], 1e-9)
	assert.Equal(t, 2.0, body.AngularVelocity)

	assert.ErrorIs(t, d.Command("jump"), ErrUnknownCommand)
	assert.False(t, d.Shoot(), "no gun")
}

func TestAsteroidDriverSetsDrift(t *testing.T) {
	env, _ := newEnv()
	host := build(t, env, nil, map[Kind]map[string]any{
		KindPhysics:        circle,
		KindAsteroidDriver: {"velocity": []any{5, -5}, "angular_velocity": 0.5},
	})
	body, _ := BodyOf(host)
	assert.Equal(t, mgl64.Vec2{5, -5}, body.Velocity)
	assert.Equal(t, 0.5, body.AngularVelocity)

	host = build(t, env, nil, map[Kind]map[string]any{
		KindPhysics:        circle,
		KindAsteroidDriver: {},
	})
	body, _ = BodyOf(host)
	for _, v := range body.Velocity {
		speed := max(v, -v)
		assert.GreaterOrEqual(t, speed, 10.0)
		assert.LessOrEqual(t, speed, 15.0)
	}
}

func TestMarkersDefaults(t *testing.T) {
	env, _ := newEnv()
	host := build(t, env, nil, map[Kind]map[string]any{
		KindProjectile: {"speed": 300},
		KindExploder:   {"debris": "Rubble", "count": 4},
	})
	p := host.First(KindProjectile).(*Projectile)
	assert.Equal(t, 300.0, p.Speed)
	assert.Equal(t, 1, p.Damage)
	e := host.First(KindExploder).(*Exploder)
	assert.Equal(t, "Rubble", e.Debris)
	assert.Equal(t, 4, e.Count)
}

func TestHealthUnknownPolicy(t *testing.T) {
	env, _ := newEnv()
	_, err := NewHealth(env, ecs.NoEntity, &data.ActorDef{}, data.ComponentDef{Config: map[string]any{"policy": "never"}})
	assert.Error(t, err)
}
