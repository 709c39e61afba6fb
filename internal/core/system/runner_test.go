package system

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSystem struct {
	name  string
	phase Phase
	log   *[]string
	err   error
}

func (s *recordingSystem) Phase() Phase { return s.phase }

func (s *recordingSystem) Update(context.Context, time.Duration) error {
	*s.log = append(*s.log, s.name)
	return s.err
}

func TestRunnerOrdersByPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recordingSystem{name: "update", phase: PhaseUpdate, log: &log})
	r.Register(&recordingSystem{name: "timers", phase: PhaseTimers, log: &log})
	r.Register(&recordingSystem{name: "post", phase: PhasePostUpdate, log: &log})
	r.Register(&recordingSystem{name: "update2", phase: PhaseUpdate, log: &log})

	require.NoError(t, r.Tick(context.Background(), time.Second/30))
	assert.Equal(t, []string{"timers", "update", "update2", "post"}, log)
	assert.Equal(t, uint64(1), r.Ticks())
}

func TestRunnerStopsOnError(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	r := NewRunner()
	r.Register(&recordingSystem{name: "a", phase: PhaseTimers, log: &log, err: boom})
	r.Register(&recordingSystem{name: "b", phase: PhaseUpdate, log: &log})

	err := r.Tick(context.Background(), time.Millisecond)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, log)
}
