package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/cactus-garden/cache"
	"github.com/jrsteele09/cactus-garden/garden"
	"github.com/jrsteele09/cactus-garden/internal/config"
	garderrors "github.com/jrsteele09/cactus-garden/internal/errors"
	"github.com/jrsteele09/cactus-garden/kiosk"
	"github.com/jrsteele09/cactus-garden/listing"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Kiosk is the public garden front end. It never signs in and reads through the cache.
type Kiosk struct {
	*Server
	api    *garden.Client
	cache  *cache.Cache
	images *kiosk.ImageLoader
}

func NewKiosk(cfg config.Config, log zerolog.Logger, api *garden.Client, c *cache.Cache, images *kiosk.ImageLoader) (*Kiosk, error) {
	if cfg == nil {
		return nil, errors.New("[Kiosk New] config is required")
	}
	if api == nil {
		return nil, errors.New("[Kiosk New] garden client is required")
	}
	if c == nil {
		return nil, errors.New("[Kiosk New] cache is required")
	}
	if images == nil {
		return nil, errors.New("[Kiosk New] image loader is required")
	}

	k := &Kiosk{
		Server: newServer(cfg, log.With().Str("frontend", "kiosk").Logger()),
		api:    api,
		cache:  c,
		images: images,
	}
	k.initRoutes()
	k.logRoutes()
	return k, nil
}

// SectorListHandler serves the home screen. q narrows the list locally.
func (k *Kiosk) SectorListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen := kiosk.NewSectorListScreen(k.api, k.cache, nil, k.screenLogger(r))
		defer screen.Close()

		view := screen.Load(r.Context())
		if view.Data != nil {
			if q := r.URL.Query().Get("q"); q != "" {
				filtered := listing.Filter(*view.Data, q, sectorListing.SearchText)
				view.Data = &filtered
			}
		}
		writeView(w, view)
	}
}

// SectorHandler resolves a scanned QR code to its sector and species.
func (k *Kiosk) SectorHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(r.PathValue("code"))
		if code == "" {
			writeError(w, r, garderrors.NewValidationError("code", "Código QR vacío"))
			return
		}

		screen := kiosk.NewSectorScreen(k.api, k.cache, nil, k.screenLogger(r))
		defer screen.Close()
		writeView(w, screen.Load(r.Context(), code))
	}
}

func (k *Kiosk) SpeciesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		screen := kiosk.NewSpeciesScreen(k.api, k.cache, nil, k.screenLogger(r))
		defer screen.Close()
		writeView(w, screen.Load(r.Context(), r.PathValue("id")))
	}
}

// ImageHandler proxies an image path on the garden API through the image loader.
func (k *Kiosk) ImageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.PathValue("path")
		if path == "" || strings.Contains(path, "..") {
			http.NotFound(w, r)
			return
		}

		img, err := k.images.Load(r.Context(), strings.TrimRight(k.config.GetAPIBaseURL(), "/")+"/"+path)
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Str("path", path).Msg("image unavailable")
			http.NotFound(w, r)
			return
		}

		if img.ContentType != "" {
			w.Header().Set("Content-Type", img.ContentType)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(img.Data)
	}
}

func (k *Kiosk) screenLogger(r *http.Request) kiosk.Option {
	return kiosk.WithLogger(*zerolog.Ctx(r.Context()))
}

// writeView sends the final paint. A view without data carries the failure's status.
func writeView[T any](w http.ResponseWriter, view kiosk.View[T]) {
	status := http.StatusOK
	if view.Data == nil && view.Err != nil {
		status = viewStatus(view.Err)
	}
	writeJSON(w, status, view)
}

func viewStatus(err error) int {
	var apiErr *garderrors.APIError
	switch {
	case garderrors.As(err, &apiErr):
		return apiErr.Status
	case garderrors.KindOf(err) == garderrors.KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
