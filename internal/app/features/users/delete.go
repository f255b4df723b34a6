// internal/app/features/users/delete.go
package users

import (
	"context"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fieldops/movelog/internal/app/store/audit"
	userstore "github.com/fieldops/movelog/internal/app/store/users"
	"github.com/fieldops/movelog/internal/app/system/httpjson"
	"github.com/fieldops/movelog/internal/app/system/timeouts"
	"github.com/fieldops/movelog/internal/app/system/txn"
	"github.com/fieldops/movelog/internal/domain/models"
)

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

// HandleDelete removes one user and everything hanging off them inside
// a single transaction.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := principalID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	// Grab the username for the audit line before the row disappears.
	username := "Unknown"
	if u, err := h.Users.GetByID(ctx, id); err == nil {
		username = u.Username
	}

	err = txn.WithTransaction(ctx, h.Client, h.Log, func(ctx context.Context) error {
		return h.purger.Purge(ctx, id)
	})
	if err != nil {
		if err == userstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.Log.Error("user delete failed", zap.String("user_id", id.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	h.Audit.Record(ctx, &actorID, audit.ActionUserDeleted,
		fmt.Sprintf("Deleted user %s (ID: %s)", username, id.Hex()))
	httpjson.Success(w, nil)
}

// HandleBulkDelete runs the delete cascade for every listed user in one
// transaction; any failure rolls the whole batch back.
func (h *Handler) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := principalID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var p idsPayload
	if err := httpjson.Decode(r, &p); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid user IDs")
		return
	}
	ids, err := p.objectIDs()
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid user IDs")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	err = txn.WithTransaction(ctx, h.Client, h.Log, func(ctx context.Context) error {
		return h.purger.PurgeMany(ctx, ids)
	})
	if err != nil {
		if err == userstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.Log.Error("bulk user delete failed", zap.Int("count", len(ids)), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to delete users")
		return
	}

	h.Audit.Record(ctx, &actorID, audit.ActionUsersBulkDeleted,
		fmt.Sprintf("Deleted %d users", len(ids)))
	httpjson.Success(w, nil)
}

type bulkStatusPayload struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

// HandleBulkStatus sets the account status on every listed user inside
// one transaction. An id that matches no user aborts the batch.
func (h *Handler) HandleBulkStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := principalID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var p bulkStatusPayload
	if err := httpjson.Decode(r, &p); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if p.Status != models.UserActive && p.Status != models.UserInactive {
		httpjson.Error(w, http.StatusBadRequest, "Invalid status")
		return
	}
	ids, err := (&idsPayload{IDs: p.IDs}).objectIDs()
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid user IDs")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	err = txn.WithTransaction(ctx, h.Client, h.Log, func(ctx context.Context) error {
		for _, id := range ids {
			if err := h.Users.UpdateStatus(ctx, id, p.Status); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if err == userstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.Log.Error("bulk status update failed", zap.Int("count", len(ids)), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to update users")
		return
	}

	h.Audit.Record(ctx, &actorID, audit.ActionUsersBulkStatus,
		fmt.Sprintf("Set %d users to %s", len(ids), p.Status))
	httpjson.Success(w, nil)
}
