// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/go-chi/chi/v5"

	"github.com/fieldops/movelog/internal/app/system/auth"
	"github.com/fieldops/movelog/internal/app/system/roles"
)

// Routes mounts the audit trail under /api/audit, admin only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(roles.SystemAdministrator, roles.NetworkAdministrator))

	r.Get("/", h.ServeList)

	return r
}
