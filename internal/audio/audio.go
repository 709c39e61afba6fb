package audio

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sectorjam/server/internal/core/ecs"
	"github.com/sectorjam/server/internal/core/event"
)

// Manager receives gameplay sound cues. It never returns anything the game
// depends on.
type Manager interface {
	Init(players []ecs.EntityID)
	Attach(bus *event.Bus)
	Detach(bus *event.Bus)
	OnCollision()
	OnProjectileHit()
	OnGunFired(ev event.GunFiredData)
}

// LogManager is the headless Manager. It logs cues at debug level and keeps
// counters so tests can see what was played.
type LogManager struct {
	log     *zap.Logger
	owner   event.OwnerID
	players []ecs.EntityID

	collisions atomic.Int64
	hits       atomic.Int64
	shots      atomic.Int64
	engines    atomic.Int64 // engines currently running
}

func NewLogManager(log *zap.Logger) *LogManager {
	return &LogManager{
		log:   log,
		owner: event.NewOwnerID("audio"),
	}
}

func (m *LogManager) Init(players []ecs.EntityID) {
	m.players = append(m.players[:0], players...)
	m.engines.Store(0)
	m.log.Debug("audio init", zap.Int("players", len(players)))
}

func (m *LogManager) Attach(bus *event.Bus) {
	bus.Batch(m.owner,
		event.On(event.EngineStarted, func(e event.Engine) {
			m.engines.Add(1)
			m.log.Debug("engine on", zap.Stringer("actor", e.ActorID))
		}),
		event.On(event.EngineStopped, func(e event.Engine) {
			if m.engines.Load() > 0 {
				m.engines.Add(-1)
			}
			m.log.Debug("engine off", zap.Stringer("actor", e.ActorID))
		}),
	)
}

func (m *LogManager) Detach(bus *event.Bus) {
	bus.Unbatch(m.owner)
	m.engines.Store(0)
}

func (m *LogManager) OnCollision() {
	m.collisions.Add(1)
	m.log.Debug("sfx collision")
}

func (m *LogManager) OnProjectileHit() {
	m.hits.Add(1)
	m.log.Debug("sfx hit")
}

func (m *LogManager) OnGunFired(ev event.GunFiredData) {
	m.shots.Add(1)
	m.log.Debug("sfx shot", zap.Stringer("actor", ev.ActorID), zap.String("projectile", ev.Projectile))
}

// Stats is a snapshot of the cue counters.
type Stats struct {
	Collisions int64
	Hits       int64
	Shots      int64
	Engines    int64
}

func (m *LogManager) Stats() Stats {
	return Stats{
		Collisions: m.collisions.Load(),
		Hits:       m.hits.Load(),
		Shots:      m.shots.Load(),
		Engines:    m.engines.Load(),
	}
}
