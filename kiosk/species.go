package kiosk

import (
	"context"
	"net/url"

	"github.com/jrsteele09/cactus-garden/cache"
	"github.com/jrsteele09/cactus-garden/garden"
)

const speciesKeyPrefix = "species_cache"

type SpeciesSource interface {
	GetSpecies(ctx context.Context, id string) (*garden.Species, error)
}

// SpeciesScreen shows one species card.
type SpeciesScreen struct {
	screen *Screen[garden.Species]
	api    SpeciesSource
}

func NewSpeciesScreen(api SpeciesSource, c *cache.Cache, render func(View[garden.Species]), opts ...Option) *SpeciesScreen {
	return &SpeciesScreen{screen: NewScreen(c, render, opts...), api: api}
}

func (s *SpeciesScreen) Load(ctx context.Context, id string) View[garden.Species] {
	key := cache.KeyFor(speciesKeyPrefix, url.Values{"id": {id}})
	return s.screen.Load(ctx, key, func(ctx context.Context) (garden.Species, error) {
		sp, err := s.api.GetSpecies(ctx, id)
		if err != nil {
			return garden.Species{}, err
		}
		return *sp, nil
	})
}

func (s *SpeciesScreen) Close() {
	s.screen.Close()
}
