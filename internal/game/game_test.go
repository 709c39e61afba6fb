package game

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sectorjam/server/internal/actor"
	"github.com/sectorjam/server/internal/audio"
	"github.com/sectorjam/server/internal/config"
	"github.com/sectorjam/server/internal/core/event"
	"github.com/sectorjam/server/internal/persist"
	"github.com/sectorjam/server/internal/render"
)

var defFiles = map[string]string{
	"actors/Player0": `
alias: Player0
position: [-300, 0]
components:
  physics:
    body: {type: dynamic, mass: 1}
    shapes:
      - {type: circle, radius: 10, group: [players], mask: [asteroids]}
  animated:
    texture: ship
    shield: shield
  input_driver:
    max_ang_speed: 3
    max_fwd_thrust: 100
    max_rev_thrust: 50
  gun:
    offset: [15, 0]
    reload_time: 0.2
    max_ammo: 10
    initial_ammo: 2
  health:
    hitpoints: 1
`,
	"actors/Bullet": `
components:
  physics:
    shapes:
      - {type: circle, radius: 2, group: [projectiles], mask: [asteroids]}
  animated:
    texture: bullet
  projectile:
    speed: 400
  health:
    hitpoints: 1
`,
	"actors/Debris": `
components:
  physics:
    shapes:
      - {type: circle, radius: 2, group: [debris], mask: [asteroids]}
  animated:
    texture: debris
  projectile:
    speed: 50
`,
	"actors/Asteroid": `
components:
  physics:
    body: {mass: 10}
    shapes:
      - {type: circle, radius: 20, group: [asteroids], mask: [all]}
  animated:
    texture: asteroid
  asteroid_driver:
    velocity: [0, 0]
  health:
    hitpoints: 1
`,
	"actors/BigAsteroid": `
depends: Asteroid
components:
  health:
    hitpoints: 2
  exploder:
    debris: Debris
    count: 4
    speed: 30
`,
	"sectors/Sector0": `
actors:
  - {depends: Asteroid, position: [200, 0]}
`,
	"sectors/Sector1": `
actors:
  - {depends: Asteroid, position: [-200, 200]}
`,
	"sectors/Sector2": `
actors:
  - {depends: BigAsteroid, position: [0, 200]}
`,
}

type recordedScore struct {
	row     persist.ScoreRow
	sectors []persist.SectorResult
}

type fakeScores struct {
	rows []recordedScore
}

func (f *fakeScores) Record(_ context.Context, row persist.ScoreRow, sectors []persist.SectorResult) error {
	f.rows = append(f.rows, recordedScore{row: row, sectors: append([]persist.SectorResult(nil), sectors...)})
	return nil
}

type harness struct {
	app    *App
	rend   *render.Headless
	audio  *audio.LogManager
	scores *fakeScores
}

func writeDefs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for rel, body := range defFiles {
		path := filepath.Join(dir, rel+".yaml")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

func newHarness(t *testing.T, tweak func(*config.Config)) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Dir = writeDefs(t)
	cfg.Sectors = config.SectorsConfig{From: 0, To: 1}
	cfg.Splashes = config.SplashesConfig{
		Welcome:      100 * time.Millisecond,
		GameOver:     100 * time.Millisecond,
		GameComplete: 100 * time.Millisecond,
	}
	cfg.Game.Seed = 42
	if tweak != nil {
		tweak(cfg)
	}

	h := &harness{
		rend:   render.NewHeadless(),
		audio:  audio.NewLogManager(zap.NewNop()),
		scores: &fakeScores{},
	}
	app, err := NewApp(cfg, Deps{
		Log:      zap.NewNop(),
		Renderer: h.rend,
		Audio:    h.audio,
		Scores:   h.scores,
	})
	require.NoError(t, err)
	h.app = app
	t.Cleanup(app.Shutdown)
	return h
}

func (h *harness) tick(t *testing.T, dt time.Duration) {
	t.Helper()
	require.NoError(t, h.app.Tick(context.Background(), dt))
}

// play goes from the welcome splash into the first sector.
func (h *harness) play(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.app.Start(ctx))
	require.Equal(t, WelcomeSplashState, h.app.CurrentState())
	h.tick(t, 100*time.Millisecond)
	require.Equal(t, MainMenuState, h.app.CurrentState())
	require.NoError(t, h.app.States().Trigger(ctx, PlayGame))
}

func (h *harness) player(t *testing.T) *actor.Actor {
	t.Helper()
	p, err := h.app.Environment().Actors().At("Player0")
	require.NoError(t, err)
	return p
}

func (h *harness) rocks() []*actor.Actor {
	var out []*actor.Actor
	h.app.Environment().Actors().Each(func(a *actor.Actor) {
		if !a.IsPlayer() && !a.IsProjectile() {
			out = append(out, a)
		}
	})
	return out
}

func (h *harness) killRocks(t *testing.T) {
	t.Helper()
	rocks := h.rocks()
	require.NotEmpty(t, rocks)
	for _, r := range rocks {
		r.Health.Subtract(r.Health.Hitpoints())
	}
}

func TestSessionAdvancesThroughSectors(t *testing.T) {
	h := newHarness(t, nil)
	h.play(t)

	env := h.app.Environment()
	assert.Equal(t, "Sector0", h.app.CurrentState())
	assert.True(t, env.Running())
	assert.Equal(t, 2, env.Actors().Len())
	require.NotNil(t, env.CurrentSector())
	assert.Equal(t, "Sector0", env.CurrentSector().Name())

	h.killRocks(t)
	h.tick(t, 10*time.Millisecond)
	assert.Equal(t, "Sector1", h.app.CurrentState())
	assert.Equal(t, 2, env.Actors().Len(), "player carries over, new rock spawned")

	h.killRocks(t)
	h.tick(t, 10*time.Millisecond)
	assert.Equal(t, GameCompleteState, h.app.CurrentState())
	assert.False(t, env.Running())

	require.Len(t, h.scores.rows, 1)
	rec := h.scores.rows[0]
	assert.Equal(t, OutcomeComplete, rec.row.Outcome)
	assert.Equal(t, 2, rec.row.Sectors)
	assert.Equal(t, env.Session(), rec.row.SessionID)
	assert.Equal(t, []string{"Player0"}, rec.row.Players)
	require.Len(t, rec.sectors, 2)
	assert.Equal(t, "Sector0", rec.sectors[0].Sector)
	assert.Equal(t, "Sector1", rec.sectors[1].Sector)

	h.tick(t, 100*time.Millisecond)
	assert.Equal(t, MainMenuState, h.app.CurrentState())
}

func TestPlayerDeathEndsSession(t *testing.T) {
	h := newHarness(t, nil)
	h.play(t)
	env := h.app.Environment()
	first := env.Session()

	p := h.player(t)
	p.Health.Subtract(1)
	h.tick(t, 10*time.Millisecond)
	assert.Equal(t, GameOverState, h.app.CurrentState())
	assert.False(t, env.Running())
	require.Len(t, h.scores.rows, 1)
	assert.Equal(t, OutcomeGameOver, h.scores.rows[0].row.Outcome)
	assert.Equal(t, 0, h.scores.rows[0].row.Sectors)

	h.tick(t, 100*time.Millisecond)
	require.Equal(t, MainMenuState, h.app.CurrentState())

	// a replay starts a fresh session in the first sector
	require.NoError(t, h.app.States().Trigger(context.Background(), PlayGame))
	assert.Equal(t, "Sector0", h.app.CurrentState())
	assert.NotEqual(t, first, env.Session())
	assert.Equal(t, 0, env.Score())
	assert.Equal(t, 2, env.Actors().Len())
	assert.True(t, env.Running())
}

func TestShotScoresAndGrantsAmmo(t *testing.T) {
	h := newHarness(t, nil)
	h.play(t)
	env := h.app.Environment()

	var scores []event.ScoreChangedData
	h.app.Bus().Batch("test", event.On(event.ScoreChanged, func(d event.ScoreChangedData) {
		scores = append(scores, d)
	}))

	p := h.player(t)
	ammo, ok := env.AmmoShown(p.ID())
	require.True(t, ok)
	assert.Equal(t, 2, ammo)

	require.True(t, p.Input.Shoot())
	ammo, _ = env.AmmoShown(p.ID())
	assert.Equal(t, 1, ammo)
	assert.Equal(t, 3, env.Actors().Len(), "bullet spawned")
	assert.EqualValues(t, 1, h.audio.Stats().Shots)

	for i := 0; i < 30 && h.app.CurrentState() == "Sector0"; i++ {
		h.tick(t, 50*time.Millisecond)
	}
	require.Equal(t, "Sector1", h.app.CurrentState())

	assert.Equal(t, 10, env.Score())
	require.Len(t, scores, 1)
	assert.Equal(t, event.ScoreChangedData{Score: 10, Delta: 10}, scores[0])
	assert.EqualValues(t, 1, h.audio.Stats().Hits)

	ammo, _ = env.AmmoShown(p.ID())
	assert.Equal(t, 7, ammo, "one player gets the first bonus")
	assert.Equal(t, 7, p.Gun.Ammo())
	assert.Equal(t, 1, env.Notices())

	h.tick(t, time.Second)
	assert.Equal(t, 0, env.Notices(), "notice expires")
}

func TestExploderSpawnsDebris(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Sectors = config.SectorsConfig{From: 2, To: 2}
	})
	h.play(t)
	env := h.app.Environment()
	require.Equal(t, "Sector2", h.app.CurrentState())

	p := h.player(t)
	h.killRocks(t)
	assert.Equal(t, 6, env.Actors().Len(), "player, dying rock and four pieces")
	assert.Equal(t, 2, p.Gun.Ammo(), "explosions grant no ammo")
	assert.Equal(t, 0, env.Notices())

	// debris are projectiles, so the sector is clear once the rock is gone
	h.tick(t, 10*time.Millisecond)
	assert.Equal(t, GameCompleteState, h.app.CurrentState())
}

func TestRamDamagesBothSides(t *testing.T) {
	h := newHarness(t, nil)
	h.play(t)
	env := h.app.Environment()

	p := h.player(t)
	rock := h.rocks()[0]
	rock.Body().Position = p.Body().Position.Add(rock.Body().Position.Sub(p.Body().Position).Normalize().Mul(25))

	h.tick(t, 10*time.Millisecond)
	assert.EqualValues(t, 1, h.audio.Stats().Collisions)
	assert.Equal(t, 0, env.Score(), "rams do not score")
	assert.Equal(t, GameOverState, h.app.CurrentState(), "player death wins over a cleared sector")
}

func TestAutoPlayStartsFromMenu(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Game.AutoPlay = true
	})
	require.NoError(t, h.app.Start(context.Background()))

	// the menu schedules play with no delay, so it runs in the same tick
	h.tick(t, 100*time.Millisecond)
	assert.Equal(t, "Sector0", h.app.CurrentState())

	p := h.player(t)
	assert.Greater(t, p.Input.Thrust(), 0.0)
	assert.EqualValues(t, 1, h.audio.Stats().Shots)
	assert.EqualValues(t, 1, h.audio.Stats().Engines)

	// the reload window holds the next shot back
	h.tick(t, 100*time.Millisecond)
	assert.EqualValues(t, 1, h.audio.Stats().Shots)
	h.tick(t, 100*time.Millisecond)
	assert.EqualValues(t, 2, h.audio.Stats().Shots)
}

func TestSplashLabelLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.app.Start(context.Background()))
	assert.True(t, h.app.welcome.Visible())

	hud, err := h.rend.HeadlessLayer(render.LayerHUD)
	require.NoError(t, err)
	assert.Equal(t, 1, hud.Len())

	h.tick(t, 100*time.Millisecond)
	assert.False(t, h.app.welcome.Visible())
	assert.Equal(t, 1, hud.Len(), "menu title replaces the caption")
}

func TestPlayOnlyFromMenu(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.app.Start(ctx))
	assert.ErrorIs(t, h.app.Play(ctx), ErrNotInMenu)

	h.tick(t, 100*time.Millisecond)
	require.NoError(t, h.app.Play(ctx))
	assert.Equal(t, "Sector0", h.app.CurrentState())

	p, ok := h.app.Player("Player0")
	require.True(t, ok)
	assert.True(t, p.IsPlayer())
	_, ok = h.app.Player("Player9")
	assert.False(t, ok)
	assert.EqualValues(t, 1, h.app.Ticks())
}

func TestFinishedSessionHasNoPlayers(t *testing.T) {
	h := newHarness(t, nil)
	h.play(t)
	_, ok := h.app.Player("Player0")
	require.True(t, ok)

	h.killRocks(t)
	h.tick(t, 10*time.Millisecond)
	h.killRocks(t)
	h.tick(t, 10*time.Millisecond)
	require.Equal(t, GameCompleteState, h.app.CurrentState())

	// the ship stays in the actor manager until the next game starts
	_, err := h.app.Environment().Actors().At("Player0")
	require.NoError(t, err)
	_, ok = h.app.Player("Player0")
	assert.False(t, ok, "game complete")

	h.tick(t, 100*time.Millisecond)
	require.Equal(t, MainMenuState, h.app.CurrentState())
	_, ok = h.app.Player("Player0")
	assert.False(t, ok, "main menu")

	require.NoError(t, h.app.Play(context.Background()))
	_, ok = h.app.Player("Player0")
	assert.True(t, ok, "new game")
}

func TestInitFailureRemovesCreatedPlayers(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Game.MaxActors = 1
		cfg.Game.Players = []string{"Player0", "Bullet"}
	})
	ctx := context.Background()
	env := h.app.Environment()
	require.NoError(t, env.Preload(ctx))
	hud, err := h.rend.HeadlessLayer(render.LayerHUD)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		err := env.Init(ctx)
		require.ErrorIs(t, err, actor.ErrActorLimit)
		assert.NotErrorIs(t, err, actor.ErrDuplicateAlias, "attempt %d", i)
		assert.Equal(t, 0, env.Actors().Len())
		assert.Equal(t, 0, hud.Len())
	}
}

func TestProjectileDamageOverridesCollisionDamage(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Game.CollisionDamage = 0 })
	h.play(t)
	env := h.app.Environment()
	p := h.player(t)
	rocks := h.rocks()
	require.Len(t, rocks, 1)
	rock := rocks[0]

	env.damage(rock, p)
	assert.Equal(t, 1, rock.Health.Hitpoints(), "ramming deals the collision damage")

	require.True(t, p.Input.Shoot())
	var bullet *actor.Actor
	env.Actors().Each(func(a *actor.Actor) {
		if a.IsProjectile() {
			bullet = a
		}
	})
	require.NotNil(t, bullet)

	bullet.Projectile.Damage = 0
	env.damage(rock, bullet)
	assert.Equal(t, 1, rock.Health.Hitpoints(), "unset projectile damage falls back")

	bullet.Projectile.Damage = 1
	env.damage(rock, bullet)
	assert.Equal(t, 0, rock.Health.Hitpoints())
}
