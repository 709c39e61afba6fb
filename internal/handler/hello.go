package handler

import (
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sectorjam/server/internal/net"
	"github.com/sectorjam/server/internal/net/packet"
)

// HandleHello processes C_HELLO: [S alias][S password]. On success the
// session controls that player and receives S_WELCOME.
func HandleHello(sess *net.Session, r *packet.Reader, deps *Deps) error {
	requested := r.ReadS()
	password := r.ReadS()

	if hash := deps.Config.Control.PasswordBcrypt; hash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
			deps.Log.Warn("control login rejected", zap.Uint64("session", sess.ID), zap.String("ip", sess.IP))
			sendError(sess, "bad password")
			return nil
		}
	}

	alias := ""
	for _, name := range deps.Config.Game.Players {
		if fold(name) == fold(requested) {
			alias = name
			break
		}
	}
	if alias == "" {
		sendError(sess, "unknown player "+requested)
		return nil
	}

	taken := false
	deps.Sessions.ForEach(func(other *net.Session) {
		if other != sess && other.Player == alias && !other.IsClosed() {
			taken = true
		}
	})
	if taken {
		sendError(sess, alias+" is already controlled")
		return nil
	}

	sess.Bind(alias)

	ammo := -1
	if p, ok := deps.Game.Player(alias); ok && p.Gun != nil {
		ammo = p.Gun.Ammo()
	}
	w := packet.NewWriter(packet.S_OPCODE_WELCOME)
	w.WriteS(alias)
	w.WriteD(int32(ammo))
	sess.Send(w.Bytes())
	sendState(sess, deps.Game.CurrentState())

	deps.Log.Info("control client bound", zap.Uint64("session", sess.ID), zap.String("player", alias))
	return nil
}
