package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/sectorjam/server/internal/core/system"
	"github.com/sectorjam/server/internal/handler"
	"github.com/sectorjam/server/internal/net"
	"github.com/sectorjam/server/internal/net/packet"
)

// InputSystem drains packet queues from all control sessions and dispatches
// them through the packet registry. Phase Input.
type InputSystem struct {
	netServer  *net.Server
	registry   *packet.Registry
	store      *net.SessionStore
	maxPerTick int
	game       handler.Game
	log        *zap.Logger
}

func NewInputSystem(
	netServer *net.Server,
	registry *packet.Registry,
	store *net.SessionStore,
	maxPerTick int,
	game handler.Game,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		netServer:  netServer,
		registry:   registry,
		store:      store,
		maxPerTick: maxPerTick,
		game:       game,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(ctx context.Context, _ time.Duration) error {
	// Accept new sessions
	for {
		select {
		case sess := <-s.netServer.NewSessions():
			s.store.Add(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	// Process dead sessions
	for {
		select {
		case id := <-s.netServer.DeadSessions():
			s.store.Remove(id)
		default:
			goto doneDead
		}
	}
doneDead:

	for id, sess := range s.store.Raw() {
		if sess.IsClosed() {
			s.handleDisconnect(sess)
			s.netServer.NotifyDead(id)
			s.store.Remove(id)
			continue
		}

		for i := 0; i < s.maxPerTick; i++ {
			select {
			case data := <-sess.InQueue:
				if err := s.registry.Dispatch(ctx, sess, sess.State(), data); err != nil {
					s.log.Debug("dispatch error",
						zap.Uint64("session", sess.ID),
						zap.Error(err),
					)
				}
			default:
				goto nextSession
			}
		}
	nextSession:
	}
	return nil
}

// handleDisconnect releases every control the session was holding so the
// ship does not keep thrusting or turning.
func (s *InputSystem) handleDisconnect(sess *net.Session) {
	s.log.Info("control client disconnected", zap.Uint64("session", sess.ID), zap.String("player", sess.Player))
	if sess.Player == "" {
		return
	}
	p, ok := s.game.Player(sess.Player)
	if !ok || p.Input == nil {
		return
	}
	p.Input.StopUp()
	p.Input.StopDown()
	p.Input.StopLeft()
	p.Input.StopRight()
}
