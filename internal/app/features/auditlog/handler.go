// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	auditstore "github.com/fieldops/movelog/internal/app/store/audit"
	userstore "github.com/fieldops/movelog/internal/app/store/users"
	"github.com/fieldops/movelog/internal/app/system/httpjson"
	"github.com/fieldops/movelog/internal/app/system/timeouts"
)

// Handler serves the admin audit trail.
type Handler struct {
	Log   *zap.Logger
	Audit *auditstore.Store
	Users *userstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Log:   logger,
		Audit: auditstore.New(db),
		Users: userstore.New(db),
	}
}

type entryItem struct {
	auditstore.Entry
	FullName string `json:"full_name,omitempty"`
}

// ServeList returns the latest 100 entries with actor names resolved.
// System-attributed entries carry no name.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entries, err := h.Audit.Latest(ctx, 100)
	if err != nil {
		h.Log.Error("audit list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load audit log")
		return
	}

	var actorIDs []primitive.ObjectID
	for _, e := range entries {
		if e.ActorID != nil {
			actorIDs = append(actorIDs, *e.ActorID)
		}
	}
	names, err := h.Users.NamesByIDs(ctx, actorIDs)
	if err != nil {
		h.Log.Error("actor lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load audit log")
		return
	}

	out := make([]entryItem, 0, len(entries))
	for _, e := range entries {
		item := entryItem{Entry: e}
		if e.ActorID != nil {
			item.FullName = names[*e.ActorID].FullName
		}
		out = append(out, item)
	}
	httpjson.OK(w, out)
}
