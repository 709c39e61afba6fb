package handler

import (
	"context"
	"errors"

	"github.com/sectorjam/server/internal/component"
	"github.com/sectorjam/server/internal/net"
	"github.com/sectorjam/server/internal/net/packet"
)

// HandleCommand processes C_COMMAND: [S command]. Commands for a player
// that is not in play are answered with S_ERROR.
func HandleCommand(sess *net.Session, r *packet.Reader, deps *Deps) error {
	name := fold(r.ReadS())
	p, ok := deps.Game.Player(sess.Player)
	if !ok || p.Input == nil {
		sendError(sess, sess.Player+" is not in play")
		return nil
	}
	if err := p.Input.Command(name); err != nil {
		if errors.Is(err, component.ErrUnknownCommand) {
			sendError(sess, err.Error())
			return nil
		}
		return err
	}
	return nil
}

// HandlePlay processes C_PLAY and starts a game when the main menu is up.
func HandlePlay(ctx context.Context, sess *net.Session, deps *Deps) error {
	if err := deps.Game.Play(ctx); err != nil {
		sendError(sess, err.Error())
		return nil
	}
	state := deps.Game.CurrentState()
	deps.Sessions.ForEach(func(s *net.Session) {
		sendState(s, state)
	})
	return nil
}

// HandlePing processes C_PING: [D token]. Replies S_PONG with the token and
// the current tick.
func HandlePing(sess *net.Session, r *packet.Reader, deps *Deps) error {
	token := r.ReadD()
	w := packet.NewWriter(packet.S_OPCODE_PONG)
	w.WriteD(token)
	w.WriteD(int32(deps.Game.Ticks()))
	sess.Send(w.Bytes())
	return nil
}

// HandleQuit processes C_QUIT. The input system cleans up on its next pass.
func HandleQuit(sess *net.Session) {
	sess.FlushOutput()
	sess.Close()
}
