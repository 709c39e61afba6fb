package event

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/sectorjam/server/internal/core/ecs"
)

// Category identifies a kind of event.
type Category int

const (
	Collision Category = iota + 1 // physics.Contact
	ActorHasNoHealth               // NoHealth
	GunFired                       // GunFiredData
	EngineStarted                  // Engine
	EngineStopped                  // Engine
	SectorEntered                  // SectorEnteredData
	AmmoChanged                    // AmmoChangedData
	ScoreChanged                   // ScoreChangedData
)

var categoryNames = map[Category]string{
	Collision:        "collision",
	ActorHasNoHealth: "actor_has_no_health",
	GunFired:         "gun_fired",
	EngineStarted:    "engine_started",
	EngineStopped:    "engine_stopped",
	SectorEntered:    "sector_entered",
	AmmoChanged:      "ammo_changed",
	ScoreChanged:     "score_changed",
}

func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return "unknown"
}

type NoHealth struct {
	ActorID ecs.EntityID
}

type GunFiredData struct {
	ActorID    ecs.EntityID
	Position   mgl64.Vec2
	Offset     mgl64.Vec2
	Angle      float64
	Projectile string // definition name of the projectile actor
	Ammo       int    // ammo left after the shot, -1 when unlimited
}

type Engine struct {
	ActorID ecs.EntityID
}

type SectorEnteredData struct {
	Sector string
	Actors int
}

type AmmoChangedData struct {
	ActorID ecs.EntityID
	Ammo    int
}

type ScoreChangedData struct {
	Score int
	Delta int
}
