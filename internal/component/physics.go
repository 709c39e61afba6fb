package component

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/sectorjam/server/internal/core/ecs"
	"github.com/sectorjam/server/internal/data"
	"github.com/sectorjam/server/internal/physics"
)

type bodyConfig struct {
	Type            string     `yaml:"type"`
	Mass            float64    `yaml:"mass"`
	Damping         float64    `yaml:"damping"`
	AngularDamping  float64    `yaml:"angular_damping"`
	Velocity        [2]float64 `yaml:"velocity"`
	Angle           float64    `yaml:"angle"`
	AngularVelocity float64    `yaml:"angular_velocity"`
}

type shapeConfig struct {
	Type     string       `yaml:"type"`
	Radius   float64      `yaml:"radius"`
	Width    float64      `yaml:"width"`
	Height   float64      `yaml:"height"`
	Length   float64      `yaml:"length"`
	Vertices [][2]float64 `yaml:"vertices"`
	Offset   [2]float64   `yaml:"offset"`
	Angle    float64      `yaml:"angle"`
	Group    []string     `yaml:"group"`
	Mask     []string     `yaml:"mask"`
}

type physicsConfig struct {
	Body   bodyConfig    `yaml:"body"`
	Shapes []shapeConfig `yaml:"shapes"`
}

// Physics owns the actor's rigid body.
type Physics struct {
	body *physics.Body
}

func NewPhysics(_ *Env, _ ecs.EntityID, actor *data.ActorDef, def data.ComponentDef) (Component, error) {
	cfg := physicsConfig{Body: bodyConfig{Type: "dynamic", Mass: 1}}
	if err := decode(def, &cfg); err != nil {
		return nil, err
	}
	bt, err := physics.ParseBodyType(cfg.Body.Type)
	if err != nil {
		return nil, err
	}
	body := physics.NewBody(physics.BodyOptions{
		Type:            bt,
		Mass:            cfg.Body.Mass,
		Velocity:        mgl64.Vec2(cfg.Body.Velocity),
		Angle:           cfg.Body.Angle,
		AngularVelocity: cfg.Body.AngularVelocity,
		Damping:         cfg.Body.Damping,
		AngularDamping:  cfg.Body.AngularDamping,
	})
	if actor.Position != nil {
		body.Position = *actor.Position
	}
	for i, sc := range cfg.Shapes {
		shape, err := buildShape(sc)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		body.AddShape(shape)
	}
	return &Physics{body: body}, nil
}

func buildShape(sc shapeConfig) (*physics.Shape, error) {
	st, err := physics.ParseShapeType(sc.Type)
	if err != nil {
		return nil, err
	}
	group, err := physics.ParseGroups(sc.Group)
	if err != nil {
		return nil, err
	}
	mask, err := physics.ParseGroups(sc.Mask)
	if err != nil {
		return nil, err
	}
	s := &physics.Shape{
		Type:   st,
		Radius: sc.Radius,
		Width:  sc.Width,
		Height: sc.Height,
		Length: sc.Length,
		Offset: mgl64.Vec2(sc.Offset),
		Angle:  sc.Angle,
		Group:  group,
		Mask:   mask,
	}
	for _, v := range sc.Vertices {
		s.Vertices = append(s.Vertices, mgl64.Vec2(v))
	}
	return s, nil
}

func (p *Physics) Kind() Kind          { return KindPhysics }
func (p *Physics) Body() *physics.Body { return p.body }
