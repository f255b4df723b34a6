// internal/app/features/movements/routes.go
package movements

import (
	"github.com/go-chi/chi/v5"

	"github.com/fieldops/movelog/internal/app/system/auth"
	"github.com/fieldops/movelog/internal/app/system/roles"
)

// Routes mounts the movement lifecycle under /api/movements. Anyone
// signed in can list (scoped by role inside) and submit their own;
// claim and approve belong to the supervisor roles; acknowledgement,
// assignment, edits and deletes are administrative.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/next-id", h.ServeNextID)
	r.Post("/", h.HandleCreate)

	r.Group(func(sr chi.Router) {
		sr.Use(sm.RequireRole(roles.SeniorFieldEngineer, roles.NetworkEngineerFieldOps,
			roles.SystemAdministrator, roles.NetworkAdministrator))
		sr.Put("/{id}/claim", h.HandleClaim)
		sr.Put("/{id}/approve", h.HandleApprove)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireRole(roles.SystemAdministrator, roles.NetworkAdministrator))
		ar.Put("/bulk/acknowledge", h.HandleBulkAcknowledge)
		ar.Delete("/bulk", h.HandleBulkDelete)
		ar.Put("/{id}/acknowledge", h.HandleAcknowledge)
		ar.Put("/{id}/assign", h.HandleAssign)
		ar.Put("/{id}", h.HandleUpdate)
		ar.Delete("/{id}", h.HandleDelete)
	})

	return r
}
