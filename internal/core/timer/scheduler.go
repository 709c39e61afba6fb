package timer

import (
	"container/heap"
	"context"
	"time"

	"github.com/sectorjam/server/internal/core/system"
)

// Callback runs on the game loop when its timer comes due.
type Callback func(ctx context.Context) error

// Handle controls one scheduled callback. A nil Handle is valid and inert.
type Handle struct {
	at        time.Duration
	seq       uint64
	fn        Callback
	index     int
	cancelled bool
	fired     bool
}

// Cancel prevents the callback from running. Safe to call more than once.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.cancelled = true
}

// Active reports whether the callback is still waiting to run.
func (h *Handle) Active() bool {
	return h != nil && !h.cancelled && !h.fired
}

// Scheduler is a virtual clock advanced by the tick loop. Callbacks only run
// inside Advance, so they never interleave with a physics step.
type Scheduler struct {
	now     time.Duration
	seq     uint64
	pending handleHeap
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the virtual time elapsed since the scheduler was created.
func (s *Scheduler) Now() time.Duration { return s.now }

// After schedules fn to run once d has elapsed on the virtual clock.
func (s *Scheduler) After(d time.Duration, fn Callback) *Handle {
	if d < 0 {
		d = 0
	}
	s.seq++
	h := &Handle{at: s.now + d, seq: s.seq, fn: fn}
	heap.Push(&s.pending, h)
	return h
}

// Advance moves the clock forward by dt and runs every due callback in due
// order. The first callback error stops the advance and is returned.
func (s *Scheduler) Advance(ctx context.Context, dt time.Duration) error {
	s.now += dt
	for s.pending.Len() > 0 {
		next := s.pending[0]
		if next.at > s.now {
			break
		}
		heap.Pop(&s.pending)
		if next.cancelled {
			continue
		}
		next.fired = true
		if err := next.fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of timers still queued, including cancelled ones
// that have not been drained yet.
func (s *Scheduler) Len() int { return s.pending.Len() }

// Phase implements system.System.
func (s *Scheduler) Phase() system.Phase { return system.PhaseTimers }

// Update implements system.System.
func (s *Scheduler) Update(ctx context.Context, dt time.Duration) error {
	return s.Advance(ctx, dt)
}

type handleHeap []*Handle

func (h handleHeap) Len() int { return len(h) }

func (h handleHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h handleHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *handleHeap) Push(x any) {
	it := x.(*Handle)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *handleHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}
