package data

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var ErrDependencyCycle = errors.New("definition dependency cycle")

// Loader reads actor and sector definitions from a directory laid out as
// actors/<Name>.yaml and sectors/<Name>.yaml. Parsed files are cached for the
// lifetime of the loader; it is safe for concurrent use.
type Loader struct {
	dir string
	log *zap.Logger

	mu    sync.Mutex
	files map[string]map[string]any
}

func NewLoader(dir string, log *zap.Logger) *Loader {
	return &Loader{
		dir:   dir,
		log:   log,
		files: make(map[string]map[string]any, 32),
	}
}

// file returns the parsed tree for a relative path, reading it once.
func (l *Loader) file(rel string) (map[string]any, error) {
	l.mu.Lock()
	if tree, ok := l.files[rel]; ok {
		l.mu.Unlock()
		return tree, nil
	}
	l.mu.Unlock()

	path := filepath.Join(l.dir, rel+".yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition %s: %w", path, err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("parse definition %s: %w", path, err)
	}
	if tree == nil {
		tree = map[string]any{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.files[rel]; ok {
		return cached, nil
	}
	l.files[rel] = tree
	l.log.Debug("definition loaded", zap.String("path", path))
	return tree, nil
}

// Cached returns how many files have been parsed.
func (l *Loader) Cached() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.files)
}

// Actor loads the named actor definition with its depends chain expanded.
func (l *Loader) Actor(name string) (*ActorDef, error) {
	return l.FromPartial(map[string]any{"depends": name})
}

// FromPartial expands a partial definition. A "depends" key names the actor
// definition the partial is merged onto; dependencies chain.
func (l *Loader) FromPartial(partial map[string]any) (*ActorDef, error) {
	tree, err := l.resolve(partial, nil)
	if err != nil {
		return nil, err
	}
	name, _ := partial["depends"].(string)
	return buildActorDef(name, tree)
}

func (l *Loader) resolve(partial map[string]any, chain []string) (map[string]any, error) {
	dep, ok := partial["depends"]
	if !ok {
		return merge(nil, partial), nil
	}
	name, ok := dep.(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("depends must be a definition name, got %v", dep)
	}
	for _, seen := range chain {
		if seen == name {
			return nil, fmt.Errorf("%w: %s -> %s", ErrDependencyCycle, strings.Join(chain, " -> "), name)
		}
	}
	base, err := l.file("actors/" + name)
	if err != nil {
		return nil, err
	}
	resolved, err := l.resolve(base, append(chain, name))
	if err != nil {
		return nil, err
	}
	over := make(map[string]any, len(partial))
	for k, v := range partial {
		if k != "depends" {
			over[k] = v
		}
	}
	return merge(resolved, over), nil
}

// Actors loads several definitions concurrently, keyed by name.
func (l *Loader) Actors(ctx context.Context, names []string) (map[string]*ActorDef, error) {
	defs := make([]*ActorDef, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			def, err := l.Actor(name)
			if err != nil {
				return fmt.Errorf("load actor %s: %w", name, err)
			}
			defs[i] = def
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]*ActorDef, len(names))
	for i, name := range names {
		out[name] = defs[i]
	}
	return out, nil
}

type sectorFile struct {
	Actors []map[string]any `yaml:"actors"`
}

// Sector loads a sector and resolves each of its partial actor definitions
// concurrently. Actor order follows the file.
func (l *Loader) Sector(ctx context.Context, name string) (*SectorDef, error) {
	tree, err := l.file("sectors/" + name)
	if err != nil {
		return nil, fmt.Errorf("load sector %s: %w", name, err)
	}
	var f sectorFile
	if err := DecodeMap(tree, &f); err != nil {
		return nil, fmt.Errorf("load sector %s: %w", name, err)
	}

	sec := &SectorDef{Name: name, Actors: make([]*ActorDef, len(f.Actors))}
	g, ctx := errgroup.WithContext(ctx)
	for i, partial := range f.Actors {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			def, err := l.FromPartial(partial)
			if err != nil {
				return fmt.Errorf("load sector %s actor %d: %w", name, i, err)
			}
			sec.Actors[i] = def
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sec, nil
}
