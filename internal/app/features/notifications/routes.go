// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/go-chi/chi/v5"

	"github.com/fieldops/movelog/internal/app/system/auth"
)

// Routes mounts the inbox under /api/notifications. The POST bulk
// delete is a legacy alias of the DELETE route kept for old clients.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Put("/bulk/read", h.HandleBulkRead)
	r.Delete("/bulk", h.HandleBulkDelete)
	r.Post("/bulk/delete", h.HandleBulkDelete)
	r.Put("/{id}/read", h.HandleMarkRead)

	return r
}
