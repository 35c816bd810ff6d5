// Package kiosk holds the controllers behind the public garden screens: QR sector
// lookup, the sector list and species detail. Each paints cached data first and
// always refreshes it from the API.
package kiosk

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jrsteele09/cactus-garden/cache"
	garderrors "github.com/jrsteele09/cactus-garden/internal/errors"
	"github.com/rs/zerolog"
)

// View is one paint of a screen.
type View[T any] struct {
	Data    *T     `json:"data"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	// Stale marks data painted from cache while the fetch is still running or failed.
	Stale bool `json:"stale"`
	// Err is the failure behind Error, for callers that map it to a status.
	Err error `json:"-"`
}

// Option configures screens and the image loader.
type Option func(*options)

type options struct {
	log           zerolog.Logger
	maxImageBytes int64
}

// WithLogger sets the logger for screen loads and image fetches.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMaxImageBytes caps the size of a fetched image. Larger images are rejected.
func WithMaxImageBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxImageBytes = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{log: zerolog.Nop(), maxImageBytes: maxImageBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Screen runs the cache-then-network load of one screen and paints each step
// through render until it is closed.
type Screen[T any] struct {
	cache  *cache.Cache
	render func(View[T])
	log    zerolog.Logger

	active atomic.Bool
	mu     sync.Mutex
	view   View[T]
}

func NewScreen[T any](c *cache.Cache, render func(View[T]), opts ...Option) *Screen[T] {
	o := buildOptions(opts)
	s := &Screen[T]{cache: c, render: render, log: o.log}
	s.active.Store(true)
	return s
}

// Load paints the cached value for key when it is fresh, then fetches. The
// spinner is only shown on a cache miss. A failed fetch after a cached paint keeps
// that paint and shows no error. The returned View is the final state.
func (s *Screen[T]) Load(ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) View[T] {
	var cached T
	hit := s.cache != nil && s.cache.ReadInto(key, &cached)
	if hit {
		s.paint(View[T]{Data: &cached, Stale: true})
	} else {
		s.paint(View[T]{Loading: true})
	}

	data, err := fetch(ctx)
	if err != nil {
		if hit {
			s.log.Debug().Err(err).Str("key", key).Msg("refresh failed, keeping cached paint")
			return s.paint(View[T]{Data: &cached, Stale: true})
		}
		s.log.Debug().Err(err).Str("key", key).Msg("load failed")
		return s.paint(View[T]{Error: garderrors.Message(err), Err: err})
	}

	// the write-through happens even if the screen was closed meanwhile
	if s.cache != nil {
		s.cache.Write(key, data)
	}
	return s.paint(View[T]{Data: &data})
}

// Close stops further paints. In-flight fetches are not cancelled; their results
// are discarded.
func (s *Screen[T]) Close() {
	s.active.Store(false)
}

func (s *Screen[T]) Active() bool {
	return s.active.Load()
}

// Current returns the last painted view.
func (s *Screen[T]) Current() View[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Screen[T]) paint(v View[T]) View[T] {
	if !s.active.Load() {
		return v
	}

	s.mu.Lock()
	s.view = v
	s.mu.Unlock()

	if s.render != nil {
		s.render(v)
	}
	return v
}
