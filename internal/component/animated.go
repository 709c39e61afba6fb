package component

import (
	"github.com/sectorjam/server/internal/core/ecs"
	"github.com/sectorjam/server/internal/data"
	"github.com/sectorjam/server/internal/render"
)

type animatedConfig struct {
	Texture   string   `yaml:"texture"`
	Frames    []string `yaml:"frames"`
	FrameRate float64  `yaml:"frame_rate"`
	Scale     float64  `yaml:"scale"`
	Stage     string   `yaml:"stage"`
	Shield    string   `yaml:"shield"`
}

// Animated is the actor's renderable. Stage, when set, names the layer it is
// attached to; Shield is an optional second drawable drawn under players.
type Animated struct {
	drawable render.Drawable
	shield   render.Drawable
	stage    string
}

func NewAnimated(env *Env, _ ecs.EntityID, _ *data.ActorDef, def data.ComponentDef) (Component, error) {
	var cfg animatedConfig
	if err := decode(def, &cfg); err != nil {
		return nil, err
	}
	d, err := env.Renderer.Sprite(render.SpriteSpec{
		Texture:   cfg.Texture,
		Frames:    cfg.Frames,
		FrameRate: cfg.FrameRate,
		AnchorX:   0.5,
		AnchorY:   0.5,
		Scale:     cfg.Scale,
	})
	if err != nil {
		return nil, err
	}
	a := &Animated{drawable: d, stage: cfg.Stage}
	if cfg.Shield != "" {
		if a.shield, err = env.Renderer.Sprite(render.SpriteSpec{Texture: cfg.Shield, AnchorX: 0.5, AnchorY: 0.5}); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Animated) Kind() Kind                { return KindAnimated }
func (a *Animated) Drawable() render.Drawable { return a.drawable }
func (a *Animated) Shield() render.Drawable   { return a.shield }
func (a *Animated) Stage() string             { return a.stage }

// Sync moves the drawable (and shield) to the body pose.
func (a *Animated) Sync(x, y, rot float64) {
	a.drawable.SetPosition(x, y)
	a.drawable.SetRotation(rot)
	if a.shield != nil {
		a.shield.SetPosition(x, y)
	}
}
