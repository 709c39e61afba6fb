package game

import (
	"context"
	"time"

	"github.com/sectorjam/server/internal/core/system"
)

// Autopilot flies every player in a slow circle and keeps shooting. It lets
// the server play unattended.
type Autopilot struct {
	env *Environment
}

func NewAutopilot(env *Environment) *Autopilot {
	return &Autopilot{env: env}
}

func (p *Autopilot) Phase() system.Phase { return system.PhaseInput }

func (p *Autopilot) Update(context.Context, time.Duration) error {
	if !p.env.Running() {
		return nil
	}
	for _, a := range p.env.Actors().Players() {
		a.Input.Right()
		a.Input.Up()
		a.Input.Shoot()
	}
	return nil
}
