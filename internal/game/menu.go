package game

import (
	"context"

	"github.com/sectorjam/server/internal/core/timer"
	"github.com/sectorjam/server/internal/render"
	"github.com/sectorjam/server/internal/state"
)

// MainMenu waits for PlayGame. With auto play it starts a game on the next
// tick by itself.
type MainMenu struct {
	autoPlay bool
	renderer render.Renderer
	sched    *timer.Scheduler
	states   *state.Manager

	layer render.Layer
	title render.Label
	auto  *timer.Handle
}

func NewMainMenu(autoPlay bool, r render.Renderer, sched *timer.Scheduler, states *state.Manager) *MainMenu {
	return &MainMenu{autoPlay: autoPlay, renderer: r, sched: sched, states: states}
}

func (m *MainMenu) Init(context.Context) error {
	layer, err := m.renderer.Layer(render.LayerHUD)
	if err != nil {
		return err
	}
	m.layer = layer
	m.title = m.renderer.Label("PRESS FIRE TO PLAY")
	return nil
}

func (m *MainMenu) Attach(context.Context) error {
	m.layer.Add(m.title)
	if m.autoPlay {
		m.auto = m.sched.After(0, func(ctx context.Context) error {
			m.auto = nil
			return m.states.Trigger(ctx, PlayGame)
		})
	}
	return nil
}

func (m *MainMenu) Detach() {
	m.auto.Cancel()
	m.auto = nil
	m.layer.Remove(m.title)
}
