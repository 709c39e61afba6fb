package data

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// ComponentDef is one entry of an actor's components map. Config holds the
// remaining keys and is decoded by the component constructor.
type ComponentDef struct {
	Kind   string
	Config map[string]any
}

// Decode decodes the component config into out using its yaml tags.
func (c ComponentDef) Decode(out any) error {
	return DecodeMap(c.Config, out)
}

// ActorDef is a fully resolved actor definition.
//
//	alias: Player0
//	position: [0, 0]
//	components:
//	  physics:
//	    body: {type: dynamic, mass: 1}
//	    shapes: [{type: circle, radius: 16, group: [players]}]
//	  main_gun:
//	    kind: gun
//	    reload_time: 0.25
type ActorDef struct {
	Name       string // definition name it was loaded from, "" for inline
	Alias      string
	Position   *mgl64.Vec2
	Components map[string]ComponentDef
}

// WithPosition returns a shallow copy placed at p.
func (d *ActorDef) WithPosition(p mgl64.Vec2) *ActorDef {
	c := *d
	c.Position = &p
	return &c
}

// Has reports whether some component of the given kind is declared.
func (d *ActorDef) Has(kind string) bool {
	for _, c := range d.Components {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// SectorDef is one wave of actors.
type SectorDef struct {
	Name   string
	Actors []*ActorDef
}

type actorFile struct {
	Alias      string                    `yaml:"alias"`
	Position   []float64                 `yaml:"position"`
	Components map[string]map[string]any `yaml:"components"`
}

// buildActorDef converts a merged raw tree into an ActorDef.
func buildActorDef(name string, raw map[string]any) (*ActorDef, error) {
	var f actorFile
	if err := DecodeMap(raw, &f); err != nil {
		return nil, fmt.Errorf("actor %s: %w", name, err)
	}
	def := &ActorDef{
		Name:       name,
		Alias:      f.Alias,
		Components: make(map[string]ComponentDef, len(f.Components)),
	}
	switch len(f.Position) {
	case 0:
	case 2:
		p := mgl64.Vec2{f.Position[0], f.Position[1]}
		def.Position = &p
	default:
		return nil, fmt.Errorf("actor %s: position needs 2 values, got %d", name, len(f.Position))
	}
	for key, cfg := range f.Components {
		kind := key
		rest := make(map[string]any, len(cfg))
		for k, v := range cfg {
			if k == "kind" {
				s, ok := v.(string)
				if !ok || s == "" {
					return nil, fmt.Errorf("actor %s: component %s: kind must be a string", name, key)
				}
				kind = s
				continue
			}
			rest[k] = v
		}
		def.Components[key] = ComponentDef{Kind: kind, Config: rest}
	}
	return def, nil
}

// DecodeMap decodes a generic yaml tree into a typed value by re-encoding
// it, so typed structs keep their yaml tags and defaults.
func DecodeMap(in map[string]any, out any) error {
	if len(in) == 0 {
		return nil
	}
	raw, err := yaml.Marshal(in)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, out)
}

// merge deep-merges over onto base and returns a new tree. Maps merge
// recursively; any other value in over replaces the base value.
func merge(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = clone(v)
	}
	for k, v := range over {
		bm, bok := out[k].(map[string]any)
		om, ook := v.(map[string]any)
		if bok && ook {
			out[k] = merge(bm, om)
			continue
		}
		out[k] = clone(v)
	}
	return out
}

func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return merge(nil, t)
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = clone(e)
		}
		return c
	}
	return v
}
