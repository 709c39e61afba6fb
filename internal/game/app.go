package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sectorjam/server/internal/actor"
	"github.com/sectorjam/server/internal/audio"
	"github.com/sectorjam/server/internal/config"
	"github.com/sectorjam/server/internal/core/event"
	"github.com/sectorjam/server/internal/core/system"
	"github.com/sectorjam/server/internal/core/timer"
	"github.com/sectorjam/server/internal/data"
	"github.com/sectorjam/server/internal/physics"
	"github.com/sectorjam/server/internal/render"
	"github.com/sectorjam/server/internal/state"
)

var ErrNotInMenu = errors.New("no game can be started here")

// Deps are the collaborators supplied by the caller. Nil fields get the
// headless defaults.
type Deps struct {
	Log      *zap.Logger
	Renderer render.Renderer
	Audio    audio.Manager
	Rules    Rules
	Scores   ScoreSink
	Loader   *data.Loader
}

// App wires the state tree, the session and the tick loop together.
type App struct {
	cfg      *config.Config
	log      *zap.Logger
	bus      *event.Bus
	sched    *timer.Scheduler
	world    physics.World
	loader   *data.Loader
	renderer render.Renderer
	states   *state.Manager
	runner   *system.Runner

	env      *Environment
	envState *state.State
	menu     *MainMenu
	welcome  *Splash
	complete *Splash
	over     *Splash
}

func NewApp(cfg *config.Config, deps Deps) (*App, error) {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Renderer == nil {
		deps.Renderer = render.NewHeadless()
	}
	if deps.Audio == nil {
		deps.Audio = audio.NewLogManager(deps.Log)
	}
	if deps.Rules == nil {
		deps.Rules = BuiltinRules{}
	}
	if deps.Loader == nil {
		deps.Loader = data.NewLoader(cfg.Data.Dir, deps.Log)
	}

	a := &App{
		cfg:      cfg,
		log:      deps.Log,
		bus:      event.NewBus(),
		sched:    timer.NewScheduler(),
		world:    physics.NewSimpleWorld(),
		loader:   deps.Loader,
		renderer: deps.Renderer,
		runner:   system.NewRunner(),
	}
	a.states = state.NewManager(state.Options{
		PreTrigger:  a.logTrigger("pre"),
		PostTrigger: a.logTrigger("post"),
	})

	env, err := NewEnvironment(cfg, EnvironmentDeps{
		Log:      a.log.Named("env"),
		Bus:      a.bus,
		Sched:    a.sched,
		Loader:   a.loader,
		World:    a.world,
		Renderer: a.renderer,
		Audio:    deps.Audio,
		Rules:    deps.Rules,
		Scores:   deps.Scores,
		States:   a.states,
	})
	if err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	a.env = env
	a.menu = NewMainMenu(cfg.Game.AutoPlay, a.renderer, a.sched, a.states)
	a.welcome = NewSplash("SECTOR JAM", cfg.Splashes.Welcome, a.renderer, a.sched, a.states)
	a.complete = NewSplash("ALL SECTORS CLEAR", cfg.Splashes.GameComplete, a.renderer, a.sched, a.states)
	a.over = NewSplash("GAME OVER", cfg.Splashes.GameOver, a.renderer, a.sched, a.states)

	if err := a.buildTree(); err != nil {
		return nil, fmt.Errorf("state tree: %w", err)
	}

	a.runner.Register(a.sched)
	if cfg.Game.AutoPlay {
		a.runner.Register(NewAutopilot(a.env))
	}
	a.runner.Register(a.env)
	return a, nil
}

// Start shows the welcome splash.
func (a *App) Start(ctx context.Context) error {
	if err := a.states.Set(WelcomeSplashState); err != nil {
		return err
	}
	return state.Resume(ctx, a.states.Current())
}

// Tick advances the game by dt.
func (a *App) Tick(ctx context.Context, dt time.Duration) error {
	return a.runner.Tick(ctx, dt)
}

// Run ticks at the configured rate until ctx is done or MaxTicks is
// reached.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	dt := a.cfg.Game.TickRate
	ticker := time.NewTicker(dt)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.Tick(ctx, dt); err != nil {
				return err
			}
			if limit := a.cfg.Game.MaxTicks; limit > 0 && a.runner.Ticks() >= uint64(limit) {
				a.log.Info("tick limit reached", zap.Int("ticks", limit))
				return nil
			}
		}
	}
}

// Register adds a system to the tick loop, such as the remote control
// input and output systems.
func (a *App) Register(sys system.System) {
	a.runner.Register(sys)
}

// Play starts a game. Only valid while the main menu is up.
func (a *App) Play(ctx context.Context) error {
	if cur := a.CurrentState(); cur != MainMenuState {
		return fmt.Errorf("%w: in %s", ErrNotInMenu, cur)
	}
	return a.states.Trigger(ctx, PlayGame)
}

// Player returns the live player actor with the given alias.
func (a *App) Player(alias string) (*actor.Actor, bool) {
	return a.env.Player(alias)
}

// Ticks returns the number of ticks run so far.
func (a *App) Ticks() uint64 { return a.runner.Ticks() }

// Shutdown destroys every state.
func (a *App) Shutdown() {
	a.states.DestroyAll()
}

func (a *App) Bus() *event.Bus             { return a.bus }
func (a *App) Environment() *Environment   { return a.env }
func (a *App) Scheduler() *timer.Scheduler { return a.sched }
func (a *App) States() *state.Manager      { return a.states }
func (a *App) Renderer() render.Renderer   { return a.renderer }
func (a *App) World() physics.World        { return a.world }
func (a *App) CurrentState() string        { return nameOf(a.states.Current()) }
