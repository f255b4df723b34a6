// internal/app/features/movements/lifecycle.go
package movements

import (
	"context"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fieldops/movelog/internal/app/store/audit"
	movementstore "github.com/fieldops/movelog/internal/app/store/movements"
	"github.com/fieldops/movelog/internal/app/system/httpjson"
	"github.com/fieldops/movelog/internal/app/system/sanitize"
	"github.com/fieldops/movelog/internal/app/system/timeouts"
	"github.com/fieldops/movelog/internal/app/system/txn"
	"github.com/fieldops/movelog/internal/domain/models"
)

// HandleAcknowledge marks a movement acknowledged and tells the senior
// field engineers it is ready for assignment. System-attributed.
func (h *Handler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid movement ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Moves.GetByID(ctx, id)
	if err != nil {
		h.writeMovementError(w, "movement lookup failed", err)
		return
	}
	if err := h.Moves.Acknowledge(ctx, id); err != nil {
		h.writeMovementError(w, "acknowledge failed", err)
		return
	}

	h.Notify.MovementAcknowledged(ctx, m.Seq)
	h.Audit.System(ctx, audit.ActionMovementAcknowledged,
		fmt.Sprintf("Movement #%d acknowledged", m.Seq))
	httpjson.Success(w, nil)
}

// HandleBulkAcknowledge acknowledges every listed movement in one
// transaction; a missing id aborts the batch.
func (h *Handler) HandleBulkAcknowledge(w http.ResponseWriter, r *http.Request) {
	var p idsPayload
	if err := httpjson.Decode(r, &p); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid movement IDs")
		return
	}
	ids, err := p.objectIDs()
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid movement IDs")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	err = txn.WithTransaction(ctx, h.Client, h.Log, func(ctx context.Context) error {
		matched, err := h.Moves.AcknowledgeMany(ctx, ids)
		if err != nil {
			return err
		}
		if matched != int64(len(ids)) {
			return movementstore.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if err == movementstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "Movement not found")
			return
		}
		h.Log.Error("bulk acknowledge failed", zap.Int("count", len(ids)), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to acknowledge movements")
		return
	}

	h.Audit.System(ctx, audit.ActionMovementsBulkAcknowledge,
		fmt.Sprintf("Acknowledged %d movements", len(ids)))
	httpjson.Success(w, nil)
}

type assignPayload struct {
	AssignedSupervisorID string `json:"assigned_supervisor_id"`
}

// HandleAssign hands a movement to a supervisor, replacing any current
// assignee, and notifies them. System-attributed.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid movement ID")
		return
	}
	var p assignPayload
	if err := httpjson.Decode(r, &p); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	supID, err := primitive.ObjectIDFromHex(p.AssignedSupervisorID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid supervisor ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Moves.GetByID(ctx, id)
	if err != nil {
		h.writeMovementError(w, "movement lookup failed", err)
		return
	}
	if err := h.Moves.Assign(ctx, id, supID); err != nil {
		h.writeMovementError(w, "assign failed", err)
		return
	}

	h.Notify.MovementAssigned(ctx, m.Seq, supID)
	h.Audit.System(ctx, audit.ActionMovementAssigned,
		fmt.Sprintf("Assigned movement #%d to supervisor %s", m.Seq, supID.Hex()))
	httpjson.Success(w, nil)
}

// HandleClaim lets the signed-in supervisor take an unassigned
// movement. The store runs the guard and the write as one statement, so
// of two racing claims exactly one succeeds; the loser gets a 400.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := principal(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid movement ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	claimed, err := h.Moves.Claim(ctx, id, uid)
	if err != nil {
		h.Log.Error("claim failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Request failed")
		return
	}
	if !claimed {
		httpjson.Error(w, http.StatusBadRequest, "Movement already assigned or not found")
		return
	}

	if m, err := h.Moves.GetByID(ctx, id); err == nil {
		h.Audit.Record(ctx, &uid, audit.ActionMovementClaimed,
			fmt.Sprintf("Claimed movement #%d", m.Seq))
	}
	httpjson.Success(w, nil)
}

type approvePayload struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
}

// HandleApprove records the terminal decision of the signed-in
// supervisor together with their remarks.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := principal(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid movement ID")
		return
	}
	var p approvePayload
	if err := httpjson.Decode(r, &p); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if p.Status != models.MovementApproved && p.Status != models.MovementRejected {
		httpjson.Error(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Moves.GetByID(ctx, id)
	if err != nil {
		h.writeMovementError(w, "movement lookup failed", err)
		return
	}
	if err := h.Moves.SetDecision(ctx, id, p.Status, sanitize.Text(p.Remarks), uid); err != nil {
		h.writeMovementError(w, "decision failed", err)
		return
	}

	action := audit.ActionMovementApproved
	if p.Status == models.MovementRejected {
		action = audit.ActionMovementRejected
	}
	h.Audit.Record(ctx, &uid, action,
		fmt.Sprintf("Movement #%d %s by supervisor %s", m.Seq, p.Status, uid.Hex()))
	httpjson.Success(w, nil)
}

// HandleDelete removes one movement.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := principal(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid movement ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Moves.GetByID(ctx, id)
	if err != nil {
		h.writeMovementError(w, "movement lookup failed", err)
		return
	}
	if err := h.Moves.Delete(ctx, id); err != nil {
		h.writeMovementError(w, "movement delete failed", err)
		return
	}

	h.Audit.Record(ctx, &uid, audit.ActionMovementDeleted,
		fmt.Sprintf("Deleted movement #%d", m.Seq))
	httpjson.Success(w, nil)
}

// HandleBulkDelete removes every listed movement in one transaction.
func (h *Handler) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := principal(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var p idsPayload
	if err := httpjson.Decode(r, &p); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid movement IDs")
		return
	}
	ids, err := p.objectIDs()
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid movement IDs")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	err = txn.WithTransaction(ctx, h.Client, h.Log, func(ctx context.Context) error {
		deleted, err := h.Moves.DeleteMany(ctx, ids)
		if err != nil {
			return err
		}
		if deleted != int64(len(ids)) {
			return movementstore.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if err == movementstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "Movement not found")
			return
		}
		h.Log.Error("bulk movement delete failed", zap.Int("count", len(ids)), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to delete movements")
		return
	}

	h.Audit.Record(ctx, &uid, audit.ActionMovementsBulkDeleted,
		fmt.Sprintf("Deleted %d movements", len(ids)))
	httpjson.Success(w, nil)
}
