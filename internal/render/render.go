package render

import (
	"errors"
	"fmt"
)

var ErrUnknownLayer = errors.New("unknown render layer")

// Layer names used by the game.
const (
	LayerBackground  = "background"
	LayerLower       = "lower"
	LayerMain        = "main"
	LayerProjectiles = "projectiles"
	LayerNotices     = "notices"
	LayerHUD         = "hud"
)

// Layers lists every layer in draw order.
var Layers = []string{
	LayerBackground,
	LayerLower,
	LayerMain,
	LayerProjectiles,
	LayerNotices,
	LayerHUD,
}

// Drawable is a handle owned by the renderer. The game only moves it.
type Drawable interface {
	SetPosition(x, y float64)
	SetRotation(rad float64)
}

type Label interface {
	Drawable
	SetText(text string)
}

// Layer is a named container slot.
type Layer interface {
	Add(d Drawable)
	Remove(d Drawable)
}

// SpriteSpec describes a sprite to create. Texture names are opaque.
type SpriteSpec struct {
	Texture   string
	Frames    []string
	FrameRate float64
	AnchorX   float64
	AnchorY   float64
	Scale     float64
}

type Renderer interface {
	Layer(name string) (Layer, error)
	Sprite(spec SpriteSpec) (Drawable, error)
	Label(text string) Label
}

// MustLayers resolves every named layer, failing on the first unknown one.
func MustLayers(r Renderer, names ...string) (map[string]Layer, error) {
	out := make(map[string]Layer, len(names))
	for _, n := range names {
		l, err := r.Layer(n)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", n, err)
		}
		out[n] = l
	}
	return out, nil
}
