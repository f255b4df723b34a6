// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	notificationstore "github.com/fieldops/movelog/internal/app/store/notifications"
	"github.com/fieldops/movelog/internal/app/system/auth"
	"github.com/fieldops/movelog/internal/app/system/httpjson"
	"github.com/fieldops/movelog/internal/app/system/timeouts"
	"github.com/fieldops/movelog/internal/app/system/txn"
	"github.com/fieldops/movelog/internal/domain/models"
)

// Handler serves the principal's notification inbox. Every operation is
// scoped to the signed-in user; there is no cross-user access.
type Handler struct {
	Client *mongo.Client
	Log    *zap.Logger
	Notes  *notificationstore.Store
}

func NewHandler(client *mongo.Client, db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Log:    logger,
		Notes:  notificationstore.New(db),
	}
}

func principalID(r *http.Request) (primitive.ObjectID, bool) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := su.ObjectID()
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// ServeList returns the principal's notifications, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	uid, ok := principalID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	notes, err := h.Notes.ListForUser(ctx, uid)
	if err != nil {
		h.Log.Error("notification list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load notifications")
		return
	}
	if notes == nil {
		notes = []models.Notification{}
	}
	httpjson.OK(w, notes)
}

// HandleMarkRead flags one of the principal's notifications read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := principalID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Notes.MarkRead(ctx, id, uid); err != nil {
		if err == notificationstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.Log.Error("mark read failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Request failed")
		return
	}
	httpjson.Success(w, nil)
}

type idsPayload struct {
	IDs []string `json:"ids"`
}

func (p *idsPayload) objectIDs() ([]primitive.ObjectID, error) {
	if len(p.IDs) == 0 {
		return nil, fmt.Errorf("empty id list")
	}
	out := make([]primitive.ObjectID, 0, len(p.IDs))
	for _, s := range p.IDs {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// HandleBulkRead flags every listed notification read in one
// transaction; an id the principal does not own aborts the batch.
func (h *Handler) HandleBulkRead(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "Failed to update notifications", h.Notes.MarkRead)
}

// HandleBulkDelete removes every listed notification in one
// transaction. Also mounted at the legacy POST alias.
func (h *Handler) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, "Failed to delete notifications", h.Notes.Delete)
}

func (h *Handler) bulk(w http.ResponseWriter, r *http.Request, failMsg string, op func(context.Context, primitive.ObjectID, primitive.ObjectID) error) {
	uid, ok := principalID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var p idsPayload
	if err := httpjson.Decode(r, &p); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid notification IDs")
		return
	}
	ids, err := p.objectIDs()
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid notification IDs")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	err = txn.WithTransaction(ctx, h.Client, h.Log, func(ctx context.Context) error {
		for _, id := range ids {
			if err := op(ctx, id, uid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if err == notificationstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.Log.Error("bulk notification op failed", zap.Int("count", len(ids)), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, failMsg)
		return
	}
	httpjson.Success(w, nil)
}
