package handler

import (
	"go.uber.org/zap"

	"github.com/sectorjam/server/internal/core/ecs"
	"github.com/sectorjam/server/internal/core/event"
	"github.com/sectorjam/server/internal/net"
	"github.com/sectorjam/server/internal/net/packet"
)

// Broadcaster forwards gameplay events to control sessions: score and
// sector changes to everyone, ammo to the session controlling that player.
type Broadcaster struct {
	deps  *Deps
	owner event.OwnerID
}

func NewBroadcaster(deps *Deps) *Broadcaster {
	return &Broadcaster{deps: deps, owner: event.NewOwnerID("control")}
}

func (b *Broadcaster) Attach(bus *event.Bus) {
	bus.Batch(b.owner,
		event.On(event.ScoreChanged, b.onScore),
		event.On(event.SectorEntered, b.onSector),
		event.On(event.AmmoChanged, func(ev event.AmmoChangedData) { b.sendAmmo(ev.ActorID, ev.Ammo) }),
		event.On(event.GunFired, func(ev event.GunFiredData) { b.sendAmmo(ev.ActorID, ev.Ammo) }),
	)
}

func (b *Broadcaster) Detach(bus *event.Bus) {
	bus.Unbatch(b.owner)
}

func (b *Broadcaster) onScore(ev event.ScoreChangedData) {
	w := packet.NewWriter(packet.S_OPCODE_SCORE)
	w.WriteD(int32(ev.Score))
	w.WriteD(int32(ev.Delta))
	b.toBound(w.Bytes())
}

func (b *Broadcaster) onSector(ev event.SectorEnteredData) {
	w := packet.NewWriter(packet.S_OPCODE_SECTOR)
	w.WriteS(ev.Sector)
	w.WriteH(uint16(ev.Actors))
	b.toBound(w.Bytes())
	b.deps.Log.Debug("sector broadcast", zap.String("sector", ev.Sector), zap.Int("sessions", b.deps.Sessions.Len()))
}

func (b *Broadcaster) sendAmmo(id ecs.EntityID, ammo int) {
	b.deps.Sessions.ForEach(func(s *net.Session) {
		if s.State() != packet.StateBound {
			return
		}
		if p, ok := b.deps.Game.Player(s.Player); ok && p.ID() == id {
			sendAmmo(s, ammo)
		}
	})
}

func (b *Broadcaster) toBound(data []byte) {
	b.deps.Sessions.ForEach(func(s *net.Session) {
		if s.State() == packet.StateBound {
			s.Send(data)
		}
	})
}
