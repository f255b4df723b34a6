// internal/app/features/kb/routes.go
package kb

import (
	"github.com/go-chi/chi/v5"

	"github.com/fieldops/movelog/internal/app/system/auth"
)

// Routes mounts the knowledge base under /api/kb.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)

	return r
}
