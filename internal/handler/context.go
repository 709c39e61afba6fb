package handler

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/sectorjam/server/internal/actor"
	"github.com/sectorjam/server/internal/config"
	"github.com/sectorjam/server/internal/net"
	"github.com/sectorjam/server/internal/net/packet"
)

// Game is what the control handlers need from the running game.
type Game interface {
	Player(alias string) (*actor.Actor, bool)
	Play(ctx context.Context) error
	CurrentState() string
	Ticks() uint64
}

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	Game     Game
	Sessions *net.SessionStore
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	anyState := []packet.SessionState{packet.StateHandshake, packet.StateBound}
	bound := []packet.SessionState{packet.StateBound}

	reg.Register(packet.C_OPCODE_HELLO,
		[]packet.SessionState{packet.StateHandshake},
		func(ctx context.Context, sess any, r *packet.Reader) error {
			return HandleHello(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_COMMAND, bound,
		func(ctx context.Context, sess any, r *packet.Reader) error {
			return HandleCommand(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_PLAY, bound,
		func(ctx context.Context, sess any, r *packet.Reader) error {
			return HandlePlay(ctx, sess.(*net.Session), deps)
		},
	)
	reg.Register(packet.C_OPCODE_PING, anyState,
		func(ctx context.Context, sess any, r *packet.Reader) error {
			return HandlePing(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_QUIT, anyState,
		func(ctx context.Context, sess any, r *packet.Reader) error {
			HandleQuit(sess.(*net.Session))
			return nil
		},
	)
}

// fold normalizes names typed by remote clients.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func sendError(sess *net.Session, msg string) {
	w := packet.NewWriter(packet.S_OPCODE_ERROR)
	w.WriteS(msg)
	sess.Send(w.Bytes())
}

func sendState(sess *net.Session, state string) {
	w := packet.NewWriter(packet.S_OPCODE_STATE)
	w.WriteS(state)
	sess.Send(w.Bytes())
}

func sendAmmo(sess *net.Session, ammo int) {
	w := packet.NewWriter(packet.S_OPCODE_AMMO)
	w.WriteD(int32(ammo))
	sess.Send(w.Bytes())
}
