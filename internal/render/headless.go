package render

import (
	"fmt"
	"slices"
	"sync"
)

// Node is the recorded state of one drawable in a Headless renderer.
type Node struct {
	Kind     string // "sprite" or "label"
	Texture  string
	Text     string
	X, Y     float64
	Rotation float64
}

func (n *Node) SetPosition(x, y float64) { n.X, n.Y = x, y }
func (n *Node) SetRotation(rad float64)  { n.Rotation = rad }
func (n *Node) SetText(text string)      { n.Text = text }

// HeadlessLayer keeps its drawables in insertion order.
type HeadlessLayer struct {
	name  string
	items []Drawable
}

func (l *HeadlessLayer) Add(d Drawable) {
	if !slices.Contains(l.items, d) {
		l.items = append(l.items, d)
	}
}

func (l *HeadlessLayer) Remove(d Drawable) {
	if i := slices.Index(l.items, d); i >= 0 {
		l.items = slices.Delete(l.items, i, i+1)
	}
}

func (l *HeadlessLayer) Contains(d Drawable) bool { return slices.Contains(l.items, d) }

func (l *HeadlessLayer) Len() int { return len(l.items) }

func (l *HeadlessLayer) Name() string { return l.name }

// Headless is a Renderer that only records what it is asked to do. The
// binary and the tests run against it.
type Headless struct {
	mu      sync.Mutex
	layers  map[string]*HeadlessLayer
	sprites int
	labels  int
}

func NewHeadless() *Headless {
	h := &Headless{layers: make(map[string]*HeadlessLayer, len(Layers))}
	for _, n := range Layers {
		h.layers[n] = &HeadlessLayer{name: n}
	}
	return h
}

func (h *Headless) Layer(name string) (Layer, error) {
	l, err := h.HeadlessLayer(name)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// HeadlessLayer is Layer with the concrete type, for inspection.
func (h *Headless) HeadlessLayer(name string) (*HeadlessLayer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.layers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, name)
	}
	return l, nil
}

func (h *Headless) Sprite(spec SpriteSpec) (Drawable, error) {
	if spec.Texture == "" && len(spec.Frames) == 0 {
		return nil, fmt.Errorf("sprite needs a texture or frames")
	}
	h.mu.Lock()
	h.sprites++
	h.mu.Unlock()
	tex := spec.Texture
	if tex == "" {
		tex = spec.Frames[0]
	}
	return &Node{Kind: "sprite", Texture: tex}, nil
}

func (h *Headless) Label(text string) Label {
	h.mu.Lock()
	h.labels++
	h.mu.Unlock()
	return &Node{Kind: "label", Text: text}
}

// Counts returns how many sprites and labels were created.
func (h *Headless) Counts() (sprites, labels int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sprites, h.labels
}
