// internal/app/features/users/routes.go
package users

import (
	"github.com/go-chi/chi/v5"

	"github.com/fieldops/movelog/internal/app/system/auth"
	"github.com/fieldops/movelog/internal/app/system/roles"
)

// Routes mounts the user directory under /api/users. Listing is open to
// any signed-in user (the movement form needs supervisor names);
// everything that changes accounts is admin-only except presence and
// avatar, which enforce self-or-admin in the handler.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Put("/{id}/presence", h.HandleUpdatePresence)
	r.Post("/{id}/avatar", h.HandleUploadAvatar)
	r.Delete("/{id}/avatar", h.HandleRemoveAvatar)

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireRole(roles.SystemAdministrator, roles.NetworkAdministrator))

		ar.Post("/", h.HandleCreate)
		ar.Put("/bulk/status", h.HandleBulkStatus)
		ar.Delete("/bulk", h.HandleBulkDelete)
		ar.Put("/{id}", h.HandleUpdate)
		ar.Put("/{id}/status", h.HandleUpdateStatus)
		ar.Delete("/{id}", h.HandleDelete)
		ar.Get("/{id}/activity", h.ServeActivity)
	})

	return r
}
