package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/sectorjam/server/internal/state"
)

// buildTree registers the state hierarchy:
//
//	Root
//	├── WelcomeSplash
//	├── MainMenu
//	│   └── Environment
//	│       └── Sector<From> ... Sector<To>
//	├── GameComplete
//	└── GameOver
//
// Children are added before their parents.
func (a *App) buildTree() error {
	m := a.states
	envState := state.New(EnvironmentState, a.env)
	a.envState = envState

	var sectors []string
	for _, name := range a.cfg.SectorNames() {
		sec := NewSector(name, a.loader, a.bus)
		_, err := m.Add(state.New(name, sec), state.AddOptions{
			Aliases: []string{name},
			Transitions: []state.Transition{
				{
					Trigger: SectorComplete,
					Rel:     state.RelSiblingElseUp,
					Exit: func(_ context.Context, s *state.State, _ state.Trigger, _ *state.Manager) error {
						a.env.LeaveCurrentSector(OutcomeComplete)
						s.Deinit()
						return nil
					},
					Enter: func(ctx context.Context, s *state.State, _ state.Trigger, m *state.Manager) error {
						if s == envState {
							return m.Trigger(ctx, GameFinished)
						}
						return a.env.EnterSector(ctx, s)
					},
				},
				{
					Trigger: PlayerDied,
					Target:  GameOverState,
					Exit: func(ctx context.Context, s *state.State, _ state.Trigger, _ *state.Manager) error {
						a.env.LeaveCurrentSector(OutcomeGameOver)
						s.Deinit()
						a.env.Finish(ctx, OutcomeGameOver)
						state.Reset(envState)
						return nil
					},
					Enter: resume,
				},
			},
		})
		if err != nil {
			return err
		}
		sectors = append(sectors, name)
	}

	_, err := m.Add(envState, state.AddOptions{
		Aliases:  []string{EnvironmentState},
		Children: sectors,
		Transitions: []state.Transition{
			{
				Trigger: StartChild,
				Rel:     state.RelChild,
				Enter: func(ctx context.Context, s *state.State, _ state.Trigger, _ *state.Manager) error {
					return a.env.EnterSector(ctx, s)
				},
			},
			{
				Trigger: GameFinished,
				Target:  GameCompleteState,
				Exit: func(ctx context.Context, s *state.State, _ state.Trigger, _ *state.Manager) error {
					a.env.Finish(ctx, OutcomeComplete)
					state.Reset(s)
					return nil
				},
				Enter: resume,
			},
		},
	})
	if err != nil {
		return err
	}

	_, err = m.Add(state.New(MainMenuState, a.menu), state.AddOptions{
		Aliases:  []string{MainMenuState},
		Children: []string{EnvironmentState},
		Transitions: []state.Transition{{
			Trigger: PlayGame,
			Rel:     state.RelChild,
			Exit: func(_ context.Context, s *state.State, _ state.Trigger, _ *state.Manager) error {
				s.Detach()
				return nil
			},
			Enter: func(ctx context.Context, s *state.State, _ state.Trigger, m *state.Manager) error {
				// a new game always starts from a fresh session
				s.Deinit()
				if err := state.Resume(ctx, s); err != nil {
					return err
				}
				return m.Trigger(ctx, StartChild)
			},
		}},
	})
	if err != nil {
		return err
	}

	splashes := []struct {
		alias  string
		splash *Splash
	}{
		{WelcomeSplashState, a.welcome},
		{GameCompleteState, a.complete},
		{GameOverState, a.over},
	}
	for _, sp := range splashes {
		_, err := m.Add(state.New(sp.alias, sp.splash), state.AddOptions{
			Aliases: []string{sp.alias},
			Transitions: []state.Transition{{
				Trigger: SplashDone,
				Target:  MainMenuState,
				Exit:    reset,
				Enter:   resume,
			}},
		})
		if err != nil {
			return err
		}
	}

	_, err = m.Add(state.New(RootState, nil), state.AddOptions{
		Aliases:  []string{RootState},
		Children: []string{WelcomeSplashState, MainMenuState, GameCompleteState, GameOverState},
	})
	return err
}

func reset(_ context.Context, s *state.State, _ state.Trigger, _ *state.Manager) error {
	state.Reset(s)
	return nil
}

func resume(ctx context.Context, s *state.State, _ state.Trigger, _ *state.Manager) error {
	return state.Resume(ctx, s)
}

func (a *App) logTrigger(stage string) state.Observer {
	return func(ev state.TriggerEvent) {
		a.log.Debug("state trigger",
			zap.String("stage", stage),
			zap.String("trigger", string(ev.Trigger)),
			zap.String("from", nameOf(ev.Old)),
			zap.String("to", nameOf(ev.New)))
	}
}

func nameOf(s *state.State) string {
	if s == nil {
		return "none"
	}
	return s.Name()
}
