package system

import (
	"context"
	"time"

	coresys "github.com/sectorjam/server/internal/core/system"
	"github.com/sectorjam/server/internal/net"
)

// OutputSystem flushes the packets buffered during the tick. Phase
// PostUpdate.
type OutputSystem struct {
	store *net.SessionStore
}

func NewOutputSystem(store *net.SessionStore) *OutputSystem {
	return &OutputSystem{store: store}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *OutputSystem) Update(context.Context, time.Duration) error {
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
	return nil
}
