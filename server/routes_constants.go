package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHealth = "/healthz"

	// Admin pages guarded by the session cookie gate
	RouteLogin          = "/login"
	RouteAdmin          = "/admin"
	RouteAdminDashboard = "/admin/dashboard"

	// Admin auth API
	RouteAPIRequestOTP = "/api/auth/request-otp"
	RouteAPIVerifyOTP  = "/api/auth/verify-otp"
	RouteAPILogout     = "/api/auth/logout"
	RouteAPIMe         = "/api/auth/me"

	// Admin resource API
	RouteAPISpecies      = "/api/admin/species"
	RouteAPISpeciesItem  = "/api/admin/species/{id}"
	RouteAPISectors      = "/api/admin/sectors"
	RouteAPISectorItem   = "/api/admin/sectors/{id}"
	RouteAPIEjemplares   = "/api/admin/ejemplares"
	RouteAPIEjemplarItem = "/api/admin/ejemplares/{id}"
	RouteAPIAuditLogs    = "/api/admin/audit-logs"
	RouteAPIDebugOverlay = "/api/admin/debug"

	// Kiosk
	RouteKioskSectors = "/sectors"
	RouteKioskSector  = "/sectors/{code}"
	RouteKioskSpecies = "/species/{id}"
	RouteKioskImages  = "/images/{path...}"
)
