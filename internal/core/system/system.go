package system

import (
	"context"
	"time"
)

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseTimers     Phase = iota // 0: fire due timers between physics steps
	PhaseInput                   // 1: apply queued driver commands
	PhaseUpdate                  // 2: physics step, actor pass, outcome triggers
	PhasePostUpdate              // 3: HUD and bookkeeping
)

// System is the interface every tick participant implements. A returned
// error aborts the tick and is fatal for the session.
type System interface {
	Phase() Phase
	Update(ctx context.Context, dt time.Duration) error
}
