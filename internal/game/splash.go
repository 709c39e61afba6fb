package game

import (
	"context"
	"time"

	"github.com/sectorjam/server/internal/core/timer"
	"github.com/sectorjam/server/internal/render"
	"github.com/sectorjam/server/internal/state"
)

// Splash shows a caption for a fixed time and then fires SplashDone.
type Splash struct {
	text     string
	duration time.Duration
	renderer render.Renderer
	sched    *timer.Scheduler
	states   *state.Manager

	layer render.Layer
	label render.Label
	timer *timer.Handle
	shown bool
}

func NewSplash(text string, duration time.Duration, r render.Renderer, sched *timer.Scheduler, states *state.Manager) *Splash {
	return &Splash{
		text:     text,
		duration: duration,
		renderer: r,
		sched:    sched,
		states:   states,
	}
}

func (s *Splash) Init(context.Context) error {
	layer, err := s.renderer.Layer(render.LayerHUD)
	if err != nil {
		return err
	}
	s.layer = layer
	s.label = s.renderer.Label(s.text)
	return nil
}

func (s *Splash) Attach(context.Context) error {
	s.layer.Add(s.label)
	s.shown = true
	s.timer = s.sched.After(s.duration, func(ctx context.Context) error {
		s.timer = nil
		return s.states.Trigger(ctx, SplashDone)
	})
	return nil
}

func (s *Splash) Detach() {
	s.timer.Cancel()
	s.timer = nil
	s.layer.Remove(s.label)
	s.shown = false
}

// Visible reports whether the caption is on screen.
func (s *Splash) Visible() bool { return s.shown }
