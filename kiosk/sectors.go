package kiosk

import (
	"context"
	"net/url"

	"github.com/jrsteele09/cactus-garden/cache"
	"github.com/jrsteele09/cactus-garden/garden"
)

// SectorSource is the part of the public API the sector screens read.
type SectorSource interface {
	SectorByQR(ctx context.Context, code string) (*garden.SectorDetail, error)
	ListSectors(ctx context.Context, query url.Values) ([]garden.Sector, error)
}

// SectorScreen shows the sector behind a scanned QR code and its species.
type SectorScreen struct {
	screen *Screen[garden.SectorDetail]
	api    SectorSource
}

func NewSectorScreen(api SectorSource, c *cache.Cache, render func(View[garden.SectorDetail]), opts ...Option) *SectorScreen {
	return &SectorScreen{screen: NewScreen(c, render, opts...), api: api}
}

func (s *SectorScreen) Load(ctx context.Context, code string) View[garden.SectorDetail] {
	return s.screen.Load(ctx, cache.SectorKey(code), func(ctx context.Context) (garden.SectorDetail, error) {
		d, err := s.api.SectorByQR(ctx, code)
		if err != nil {
			return garden.SectorDetail{}, err
		}
		return *d, nil
	})
}

func (s *SectorScreen) Close() {
	s.screen.Close()
}

// SectorListScreen is the kiosk home screen.
type SectorListScreen struct {
	screen *Screen[[]garden.Sector]
	api    SectorSource
}

func NewSectorListScreen(api SectorSource, c *cache.Cache, render func(View[[]garden.Sector]), opts ...Option) *SectorListScreen {
	return &SectorListScreen{screen: NewScreen(c, render, opts...), api: api}
}

func (s *SectorListScreen) Load(ctx context.Context) View[[]garden.Sector] {
	return s.screen.Load(ctx, cache.SectorListKey, func(ctx context.Context) ([]garden.Sector, error) {
		return s.api.ListSectors(ctx, nil)
	})
}

func (s *SectorListScreen) Close() {
	s.screen.Close()
}
