package physics

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrInvalidBodyType  = errors.New("invalid body type")
	ErrInvalidShapeType = errors.New("invalid shape type")
)

// BodyID is a stable identifier used for side tables keyed by body.
type BodyID uint64

var nextBodyID atomic.Uint64

type BodyType int

const (
	Dynamic BodyType = iota + 1
	Kinematic
	Static
)

// ParseBodyType accepts the names used in actor definitions.
func ParseBodyType(s string) (BodyType, error) {
	switch strings.ToLower(s) {
	case "dynamic":
		return Dynamic, nil
	case "kinematic":
		return Kinematic, nil
	case "static":
		return Static, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidBodyType, s)
}

type ShapeType int

const (
	Particle ShapeType = iota + 1
	Circle
	Box
	Capsule
	Convex
	Plane
)

func ParseShapeType(s string) (ShapeType, error) {
	switch strings.ToLower(s) {
	case "particle":
		return Particle, nil
	case "circle":
		return Circle, nil
	case "box":
		return Box, nil
	case "capsule":
		return Capsule, nil
	case "convex":
		return Convex, nil
	case "plane":
		return Plane, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidShapeType, s)
}

// CollisionGroup is a bit set used for both shape groups and masks.
type CollisionGroup uint32

const (
	GroupPlayers     CollisionGroup = 1 << 0
	GroupAsteroids   CollisionGroup = 1 << 1
	GroupProjectiles CollisionGroup = 1 << 2
	GroupDebris      CollisionGroup = 1 << 3
	GroupAll         CollisionGroup = math.MaxUint32
)

var groupNames = map[string]CollisionGroup{
	"players":     GroupPlayers,
	"asteroids":   GroupAsteroids,
	"projectiles": GroupProjectiles,
	"debris":      GroupDebris,
	"all":         GroupAll,
}

// ParseGroups ORs together named groups. An empty list means GroupAll.
func ParseGroups(names []string) (CollisionGroup, error) {
	if len(names) == 0 {
		return GroupAll, nil
	}
	var g CollisionGroup
	for _, n := range names {
		bit, ok := groupNames[strings.ToLower(n)]
		if !ok {
			return 0, fmt.Errorf("unknown collision group %q", n)
		}
		g |= bit
	}
	return g, nil
}

// Shape is one collision primitive attached to a body.
type Shape struct {
	Type     ShapeType
	Radius   float64
	Width    float64
	Height   float64
	Length   float64 // capsule
	Vertices []mgl64.Vec2
	Offset   mgl64.Vec2
	Angle    float64
	Group    CollisionGroup
	Mask     CollisionGroup
}

// BoundingRadius returns the radius of a circle around the shape's offset
// that contains the whole shape. Planes are unbounded and report -1.
func (s *Shape) BoundingRadius() float64 {
	switch s.Type {
	case Circle:
		return s.Radius
	case Box:
		return math.Hypot(s.Width, s.Height) / 2
	case Capsule:
		return s.Length/2 + s.Radius
	case Convex:
		r := 0.0
		for _, v := range s.Vertices {
			r = math.Max(r, v.Len())
		}
		return r
	case Plane:
		return -1
	}
	return 0
}

// Accepts reports whether two shapes are allowed to collide.
func (s *Shape) Accepts(o *Shape) bool {
	return s.Group&o.Mask != 0 && o.Group&s.Mask != 0
}

// BodyOptions is the plain-data description of a body.
type BodyOptions struct {
	Type            BodyType
	Mass            float64
	Position        mgl64.Vec2
	Velocity        mgl64.Vec2
	Angle           float64
	AngularVelocity float64
	Damping         float64
	AngularDamping  float64
}

// Body is a rigid body. It is mutated by its owner between steps and by the
// world during Step.
type Body struct {
	id              BodyID
	Type            BodyType
	Mass            float64
	Position        mgl64.Vec2
	Velocity        mgl64.Vec2
	Force           mgl64.Vec2
	Angle           float64
	AngularVelocity float64
	Damping         float64
	AngularDamping  float64
	Shapes          []*Shape
}

func NewBody(opts BodyOptions) *Body {
	t := opts.Type
	if t == 0 {
		t = Dynamic
	}
	return &Body{
		id:              BodyID(nextBodyID.Add(1)),
		Type:            t,
		Mass:            opts.Mass,
		Position:        opts.Position,
		Velocity:        opts.Velocity,
		Angle:           opts.Angle,
		AngularVelocity: opts.AngularVelocity,
		Damping:         opts.Damping,
		AngularDamping:  opts.AngularDamping,
	}
}

func (b *Body) ID() BodyID { return b.id }

func (b *Body) AddShape(s *Shape) {
	b.Shapes = append(b.Shapes, s)
}

// ApplyForce accumulates a force for the next step.
func (b *Body) ApplyForce(f mgl64.Vec2) {
	b.Force = b.Force.Add(f)
}

// shapeCenter returns the world position of a shape's offset.
func (b *Body) shapeCenter(s *Shape) mgl64.Vec2 {
	if s.Offset[0] == 0 && s.Offset[1] == 0 {
		return b.Position
	}
	sin, cos := math.Sincos(b.Angle)
	return mgl64.Vec2{
		b.Position[0] + s.Offset[0]*cos - s.Offset[1]*sin,
		b.Position[1] + s.Offset[0]*sin + s.Offset[1]*cos,
	}
}
