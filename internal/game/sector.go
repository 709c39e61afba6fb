package game

import (
	"context"

	"github.com/sectorjam/server/internal/core/event"
	"github.com/sectorjam/server/internal/data"
)

// Sector is one level. Its definition is loaded once on Preload and kept
// across Deinit, so a replayed session reuses it.
type Sector struct {
	name   string
	loader *data.Loader
	bus    *event.Bus
	def    *data.SectorDef
}

func NewSector(name string, loader *data.Loader, bus *event.Bus) *Sector {
	return &Sector{name: name, loader: loader, bus: bus}
}

func (s *Sector) Name() string { return s.name }

// Actors returns the resolved actor definitions, or nil before Preload.
func (s *Sector) Actors() []*data.ActorDef {
	if s.def == nil {
		return nil
	}
	return s.def.Actors
}

func (s *Sector) Preload(ctx context.Context) error {
	def, err := s.loader.Sector(ctx, s.name)
	if err != nil {
		return err
	}
	s.def = def
	return nil
}

func (s *Sector) Start(context.Context) error {
	s.bus.Fire(event.SectorEntered, event.SectorEnteredData{
		Sector: s.name,
		Actors: len(s.Actors()),
	})
	return nil
}
