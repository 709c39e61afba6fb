package state

import (
	"context"
	"errors"
	"fmt"
)

var ErrDestroyed = errors.New("state destroyed")

// Optional behaviours a state implementation may provide. Every lifecycle
// step the implementation does not provide is a no-op.
type (
	Preloader interface {
		Preload(ctx context.Context) error
	}
	Initializer interface {
		Init(ctx context.Context) error
	}
	Deinitializer interface {
		Deinit()
	}
	Starter interface {
		Start(ctx context.Context) error
	}
	Stopper interface {
		Stop()
	}
	Attacher interface {
		Attach(ctx context.Context) error
	}
	Detacher interface {
		Detach()
	}
)

// Stage is the furthest lifecycle step a state has reached. Started and
// attached are tracked separately since they toggle independently.
type Stage int

const (
	Created Stage = iota
	Preloaded
	Initialized
	Destroyed
)

func (s Stage) String() string {
	switch s {
	case Created:
		return "created"
	case Preloaded:
		return "preloaded"
	case Initialized:
		return "initialized"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}

// State drives an implementation through
// Created -> Preloaded -> Initialized -> (Started, Attached) -> Destroyed.
// Every operation is idempotent and runs its prerequisites first.
type State struct {
	name string
	impl any

	stage    Stage
	started  bool
	attached bool
}

func New(name string, impl any) *State {
	return &State{name: name, impl: impl}
}

func (s *State) Name() string { return s.name }

// Impl returns the implementation value passed to New.
func (s *State) Impl() any { return s.impl }

func (s *State) Stage() Stage    { return s.stage }
func (s *State) Started() bool   { return s.started }
func (s *State) Attached() bool  { return s.attached }
func (s *State) Destroyed() bool { return s.stage == Destroyed }

func (s *State) check() error {
	if s.stage == Destroyed {
		return fmt.Errorf("%s: %w", s.name, ErrDestroyed)
	}
	return nil
}

func (s *State) Preload(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.stage >= Preloaded {
		return nil
	}
	if p, ok := s.impl.(Preloader); ok {
		if err := p.Preload(ctx); err != nil {
			return fmt.Errorf("preload %s: %w", s.name, err)
		}
	}
	s.stage = Preloaded
	return nil
}

func (s *State) Init(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.stage >= Initialized {
		return nil
	}
	if err := s.Preload(ctx); err != nil {
		return err
	}
	if i, ok := s.impl.(Initializer); ok {
		if err := i.Init(ctx); err != nil {
			return fmt.Errorf("init %s: %w", s.name, err)
		}
	}
	s.stage = Initialized
	return nil
}

func (s *State) Start(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.started {
		return nil
	}
	if err := s.Init(ctx); err != nil {
		return err
	}
	if st, ok := s.impl.(Starter); ok {
		if err := st.Start(ctx); err != nil {
			return fmt.Errorf("start %s: %w", s.name, err)
		}
	}
	s.started = true
	return nil
}

func (s *State) Stop() {
	if !s.started {
		return
	}
	if st, ok := s.impl.(Stopper); ok {
		st.Stop()
	}
	s.started = false
}

func (s *State) Attach(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.attached {
		return nil
	}
	if err := s.Init(ctx); err != nil {
		return err
	}
	if a, ok := s.impl.(Attacher); ok {
		if err := a.Attach(ctx); err != nil {
			return fmt.Errorf("attach %s: %w", s.name, err)
		}
	}
	s.attached = true
	return nil
}

func (s *State) Detach() {
	if !s.attached {
		return
	}
	if d, ok := s.impl.(Detacher); ok {
		d.Detach()
	}
	s.attached = false
}

// Deinit stops and detaches, then returns the state to Preloaded. Preloaded
// data is kept so the next Init does not fetch again.
func (s *State) Deinit() {
	if s.stage != Initialized {
		return
	}
	s.Stop()
	s.Detach()
	if d, ok := s.impl.(Deinitializer); ok {
		d.Deinit()
	}
	s.stage = Preloaded
}

// Destroy deinitializes the state for good. Later operations fail with
// ErrDestroyed.
func (s *State) Destroy() {
	if s.stage == Destroyed {
		return
	}
	s.Deinit()
	s.stage = Destroyed
}

// Reset stops and detaches s without deinitializing it.
func Reset(s *State) {
	s.Stop()
	s.Detach()
}

// Resume starts and attaches s.
func Resume(ctx context.Context, s *State) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	return s.Attach(ctx)
}
