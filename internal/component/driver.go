package component

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/sectorjam/server/internal/core/ecs"
	"github.com/sectorjam/server/internal/core/event"
	"github.com/sectorjam/server/internal/data"
	"github.com/sectorjam/server/internal/physics"
)

var ErrUnknownCommand = errors.New("unknown driver command")

type move uint8

const (
	moveUp move = 1 << iota
	moveDown
	moveLeft
	moveRight

	moveVertical = moveUp | moveDown
)

type inputDriverConfig struct {
	MaxAngSpeed  float64 `yaml:"max_ang_speed"`
	MaxFwdThrust float64 `yaml:"max_fwd_thrust"`
	MaxRevThrust float64 `yaml:"max_rev_thrust"`
}

// InputDriver moves a player ship from discrete commands. Thrust is applied
// along the body angle every tick while a vertical command is held.
type InputDriver struct {
	id  ecs.EntityID
	bus *event.Bus

	body *physics.Body
	gun  *Gun

	bits            move
	thrust          float64
	angularVelocity float64
	maxAngSpeed     float64
	maxFwdThrust    float64
	maxRevThrust    float64 // negative
}

func NewInputDriver(env *Env, id ecs.EntityID, _ *data.ActorDef, def data.ComponentDef) (Component, error) {
	var cfg inputDriverConfig
	if err := decode(def, &cfg); err != nil {
		return nil, err
	}
	return &InputDriver{
		id:           id,
		bus:          env.Bus,
		maxAngSpeed:  cfg.MaxAngSpeed,
		maxFwdThrust: cfg.MaxFwdThrust,
		maxRevThrust: -math.Abs(cfg.MaxRevThrust),
	}, nil
}

func (d *InputDriver) Kind() Kind { return KindInputDriver }

func (d *InputDriver) OnAdd(h Host) error {
	body, err := BodyOf(h)
	if err != nil {
		return err
	}
	d.body = body
	d.gun, _ = h.First(KindGun).(*Gun)
	return nil
}

func (d *InputDriver) OnRemove(Host) {
	d.body = nil
	d.gun = nil
}

func (d *InputDriver) Update(float64) {
	if d.body == nil {
		return
	}
	sin, cos := math.Sincos(d.body.Angle)
	d.body.ApplyForce(mgl64.Vec2{d.thrust * cos, d.thrust * sin})
	d.body.AngularVelocity = d.angularVelocity
}

func (d *InputDriver) Up() {
	if d.bits&moveVertical == 0 {
		d.bus.Fire(event.EngineStarted, event.Engine{ActorID: d.id})
	}
	d.bits |= moveUp
	d.thrust = d.maxFwdThrust
}

func (d *InputDriver) StopUp() {
	if d.bits&moveUp == 0 {
		return
	}
	d.bits &^= moveUp
	d.thrust = 0
	if d.bits&moveDown != 0 {
		d.thrust = d.maxRevThrust
	}
	if d.bits&moveVertical == 0 {
		d.bus.Fire(event.EngineStopped, event.Engine{ActorID: d.id})
	}
}

func (d *InputDriver) Down() {
	if d.bits&moveVertical == 0 {
		d.bus.Fire(event.EngineStarted, event.Engine{ActorID: d.id})
	}
	d.bits |= moveDown
	d.thrust = d.maxRevThrust
}

func (d *InputDriver) StopDown() {
	if d.bits&moveDown == 0 {
		return
	}
	d.bits &^= moveDown
	d.thrust = 0
	if d.bits&moveUp != 0 {
		d.thrust = d.maxFwdThrust
	}
	if d.bits&moveVertical == 0 {
		d.bus.Fire(event.EngineStopped, event.Engine{ActorID: d.id})
	}
}

func (d *InputDriver) Left() {
	d.bits |= moveLeft
	d.angularVelocity = -d.maxAngSpeed
}

func (d *InputDriver) StopLeft() {
	d.bits &^= moveLeft
	d.angularVelocity = 0
	if d.bits&moveRight != 0 {
		d.angularVelocity = d.maxAngSpeed
	}
}

func (d *InputDriver) Right() {
	d.bits |= moveRight
	d.angularVelocity = d.maxAngSpeed
}

func (d *InputDriver) StopRight() {
	d.bits &^= moveRight
	d.angularVelocity = 0
	if d.bits&moveLeft != 0 {
		d.angularVelocity = -d.maxAngSpeed
	}
}

// Shoot fires the actor's gun, if it has one.
func (d *InputDriver) Shoot() bool {
	if d.gun == nil {
		return false
	}
	return d.gun.Shoot()
}

func (d *InputDriver) Thrust() float64 { return d.thrust }

// Command applies a named command such as "up" or "stop_left".
func (d *InputDriver) Command(name string) error {
	switch name {
	case "up":
		d.Up()
	case "stop_up":
		d.StopUp()
	case "down":
		d.Down()
	case "stop_down":
		d.StopDown()
	case "left":
		d.Left()
	case "stop_left":
		d.StopLeft()
	case "right":
		d.Right()
	case "stop_right":
		d.StopRight()
	case "shoot":
		d.Shoot()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return nil
}

type asteroidDriverConfig struct {
	Angle           float64     `yaml:"angle"`
	AngularVelocity float64     `yaml:"angular_velocity"`
	Velocity        *[2]float64 `yaml:"velocity"`
}

// AsteroidDriver sets a fixed pose and drift when added. Without a velocity
// in the definition each axis gets a random signed speed.
type AsteroidDriver struct {
	angle           float64
	angularVelocity float64
	velocity        mgl64.Vec2
}

func NewAsteroidDriver(env *Env, _ ecs.EntityID, _ *data.ActorDef, def data.ComponentDef) (Component, error) {
	var cfg asteroidDriverConfig
	if err := decode(def, &cfg); err != nil {
		return nil, err
	}
	d := &AsteroidDriver{angle: cfg.Angle, angularVelocity: cfg.AngularVelocity}
	if cfg.Velocity != nil {
		d.velocity = mgl64.Vec2(*cfg.Velocity)
	} else {
		d.velocity = mgl64.Vec2{randomSpeed(env), randomSpeed(env)}
	}
	return d, nil
}

func randomSpeed(env *Env) float64 {
	sign := 1.0
	if env.Rand.IntN(2) == 0 {
		sign = -1
	}
	return sign * (env.AsteroidSpeed.Base + env.Rand.Float64()*env.AsteroidSpeed.Variance)
}

func (d *AsteroidDriver) Kind() Kind           { return KindAsteroidDriver }
func (d *AsteroidDriver) Velocity() mgl64.Vec2 { return d.velocity }

func (d *AsteroidDriver) OnAdd(h Host) error {
	body, err := BodyOf(h)
	if err != nil {
		return err
	}
	body.Angle = d.angle
	body.AngularVelocity = d.angularVelocity
	body.Velocity = d.velocity
	return nil
}
