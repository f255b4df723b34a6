// internal/app/features/reports/routes.go
package reports

import (
	"github.com/go-chi/chi/v5"

	"github.com/fieldops/movelog/internal/app/system/auth"
	"github.com/fieldops/movelog/internal/app/system/roles"
)

// DashboardRoutes mounts /api/stats: every signed-in user gets a
// dashboard scoped to their role.
func DashboardRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeDashboard)
	return r
}

// Routes mounts the admin reports under /api/reports.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(roles.SystemAdministrator, roles.NetworkAdministrator))

	r.Get("/stats", h.ServeOverview)
	r.Get("/by-division", h.ServeByDivision)
	r.Get("/over-time", h.ServeOverTime)
	r.Get("/top-users", h.ServeTopUsers)

	return r
}
