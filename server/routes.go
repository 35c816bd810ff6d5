package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/cactus-garden/garden"
)

func (a *Admin) initRoutes() {
	a.RegisterRouteFunc("GET "+RouteHealth, healthHandler)

	// Pages (the session cookie gate runs before these)
	a.RegisterRouteFunc("GET "+RouteLogin, a.LoginPageHandler())
	a.RegisterRouteHandler("GET "+RouteAdminDashboard, ChainMiddleware(a.DashboardHandler(), a.RequireSession()))

	// LOGIN
	a.RegisterRouteFunc("POST "+RouteAPIRequestOTP, a.RequestOTPHandler())
	a.RegisterRouteFunc("POST "+RouteAPIVerifyOTP, a.VerifyOTPHandler())
	a.RegisterRouteFunc("POST "+RouteAPILogout, a.LogoutHandler())
	a.RegisterRouteHandler("GET "+RouteAPIMe, ChainMiddleware(a.MeHandler(), a.RequireSession()))

	// Resources
	authed := func(h http.HandlerFunc) http.Handler {
		return ChainMiddleware(h, a.RequireSession())
	}

	a.RegisterRouteHandler("GET "+RouteAPISpecies, authed(listHandler(a, (*garden.Client).ListSpecies, speciesListing)))
	a.RegisterRouteHandler("POST "+RouteAPISpecies, authed(createHandler(a, (*garden.Client).CreateSpecies)))
	a.RegisterRouteHandler("GET "+RouteAPISpeciesItem, authed(itemHandler(a, (*garden.Client).GetSpecies)))
	a.RegisterRouteHandler("PUT "+RouteAPISpeciesItem, authed(updateHandler(a, (*garden.Client).UpdateSpecies)))
	a.RegisterRouteHandler("DELETE "+RouteAPISpeciesItem, authed(deleteHandler(a, (*garden.Client).DeleteSpecies)))

	a.RegisterRouteHandler("GET "+RouteAPISectors, authed(listHandler(a, (*garden.Client).ListSectors, sectorListing)))
	a.RegisterRouteHandler("POST "+RouteAPISectors, authed(createHandler(a, (*garden.Client).CreateSector)))
	a.RegisterRouteHandler("GET "+RouteAPISectorItem, authed(itemHandler(a, (*garden.Client).GetSector)))
	a.RegisterRouteHandler("PUT "+RouteAPISectorItem, authed(updateHandler(a, (*garden.Client).UpdateSector)))
	a.RegisterRouteHandler("DELETE "+RouteAPISectorItem, authed(deleteHandler(a, (*garden.Client).DeleteSector)))

	a.RegisterRouteHandler("GET "+RouteAPIEjemplares, authed(listHandler(a, (*garden.Client).ListEjemplares, ejemplarListing)))
	a.RegisterRouteHandler("POST "+RouteAPIEjemplares, authed(createHandler(a, (*garden.Client).CreateEjemplar)))
	a.RegisterRouteHandler("GET "+RouteAPIEjemplarItem, authed(itemHandler(a, (*garden.Client).GetEjemplar)))
	a.RegisterRouteHandler("PUT "+RouteAPIEjemplarItem, authed(updateHandler(a, (*garden.Client).UpdateEjemplar)))
	a.RegisterRouteHandler("DELETE "+RouteAPIEjemplarItem, authed(deleteHandler(a, (*garden.Client).DeleteEjemplar)))

	a.RegisterRouteHandler("GET "+RouteAPIAuditLogs, authed(listHandler(a, (*garden.Client).ListAuditLogs, auditLogListing)))

	if a.config.GetDebugOverlay() {
		a.RegisterRouteHandler("GET "+RouteAPIDebugOverlay, authed(a.DebugOverlayHandler()))
	}
}

func (k *Kiosk) initRoutes() {
	k.RegisterRouteFunc("GET "+RouteHealth, healthHandler)

	k.RegisterRouteHandler("GET "+RouteKioskSectors, ChainMiddleware(k.SectorListHandler(), k.CompressionMiddleware))
	k.RegisterRouteHandler("GET "+RouteKioskSector, ChainMiddleware(k.SectorHandler(), k.CompressionMiddleware))
	k.RegisterRouteHandler("GET "+RouteKioskSpecies, ChainMiddleware(k.SpeciesHandler(), k.CompressionMiddleware))
	k.RegisterRouteHandler("GET "+RouteKioskImages, ChainMiddleware(k.ImageHandler(), k.CacheMiddleware(time.Hour)))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
