// internal/app/features/movements/handler.go
package movements

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fieldops/movelog/internal/app/store/audit"
	"github.com/fieldops/movelog/internal/app/store/counters"
	movementstore "github.com/fieldops/movelog/internal/app/store/movements"
	userstore "github.com/fieldops/movelog/internal/app/store/users"
	"github.com/fieldops/movelog/internal/app/system/auditlog"
	"github.com/fieldops/movelog/internal/app/system/auth"
	"github.com/fieldops/movelog/internal/app/system/httpjson"
	"github.com/fieldops/movelog/internal/app/system/notify"
	"github.com/fieldops/movelog/internal/app/system/roles"
	"github.com/fieldops/movelog/internal/app/system/sanitize"
	"github.com/fieldops/movelog/internal/app/system/timeouts"
	"github.com/fieldops/movelog/internal/domain/models"
)

// Handler is the feature-level handler for the movement lifecycle.
type Handler struct {
	Client   *mongo.Client
	Log      *zap.Logger
	Audit    *auditlog.Recorder
	Notify   *notify.Dispatcher
	Moves    *movementstore.Store
	Users    *userstore.Store
	Counters *counters.Store
}

func NewHandler(client *mongo.Client, db *mongo.Database, rec *auditlog.Recorder, disp *notify.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{
		Client:   client,
		Log:      logger,
		Audit:    rec,
		Notify:   disp,
		Moves:    movementstore.New(db),
		Users:    userstore.New(db),
		Counters: counters.New(db),
	}
}

func principal(r *http.Request) (*auth.SessionUser, primitive.ObjectID, bool) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		return nil, primitive.NilObjectID, false
	}
	id, err := su.ObjectID()
	if err != nil {
		return nil, primitive.NilObjectID, false
	}
	return su, id, true
}

func pathID(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
}

// listItem decorates a movement row with the names the table shows.
type listItem struct {
	models.Movement
	StaffName              string   `json:"staff_name"`
	Position               string   `json:"position,omitempty"`
	UserDistrict           []string `json:"user_district"`
	AssignedSupervisorName string   `json:"assigned_supervisor_name,omitempty"`
}

// ServeList returns the movements the principal may see, newest date
// first, decorated with staff and assignee names in one second query.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	su, uid, ok := principal(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	viewer := movementstore.Viewer{ID: uid, Role: su.Role}
	if roles.IsSupervisor(su.Role) {
		me, err := h.Users.GetByID(ctx, uid)
		if err != nil {
			h.Log.Error("viewer lookup failed", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "Failed to load movements")
			return
		}
		viewer.Districts = me.District
		reports, err := h.Users.IDsBySupervisor(ctx, uid)
		if err != nil {
			h.Log.Error("direct report lookup failed", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "Failed to load movements")
			return
		}
		viewer.DirectReports = reports
	}

	moves, err := h.Moves.ListForViewer(ctx, viewer)
	if err != nil {
		h.Log.Error("movement list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load movements")
		return
	}

	var nameIDs []primitive.ObjectID
	for _, m := range moves {
		nameIDs = append(nameIDs, m.StaffID)
		if m.AssignedSupervisorID != nil {
			nameIDs = append(nameIDs, *m.AssignedSupervisorID)
		}
	}
	names, err := h.Users.NamesByIDs(ctx, nameIDs)
	if err != nil {
		h.Log.Error("movement name lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load movements")
		return
	}

	out := make([]listItem, 0, len(moves))
	for _, m := range moves {
		item := listItem{Movement: m, UserDistrict: []string{}}
		if info, ok := names[m.StaffID]; ok {
			item.StaffName = info.FullName
			item.Position = info.Position
			if info.District != nil {
				item.UserDistrict = info.District
			}
		}
		if m.AssignedSupervisorID != nil {
			item.AssignedSupervisorName = names[*m.AssignedSupervisorID].FullName
		}
		out = append(out, item)
	}
	httpjson.OK(w, out)
}

// ServeNextID reports the sequence number the next created movement
// will most likely get. A concurrent creator can still take it first.
func (h *Handler) ServeNextID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	next, err := h.Counters.Peek(ctx, counters.MovementSeq)
	if err != nil {
		h.Log.Error("next-id peek failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load next ID")
		return
	}
	httpjson.OK(w, map[string]int64{"nextId": next})
}

type movementPayload struct {
	Date            string `json:"date"`
	TimeIn          string `json:"time_in"`
	TimeOut         string `json:"time_out"`
	DueDate         string `json:"due_date"`
	Division        string `json:"division"`
	District        string `json:"district"`
	Area            string `json:"area"`
	Branch          string `json:"branch"`
	Purpose         string `json:"purpose"`
	TransportMode   string `json:"transport_mode"`
	Accomplishments string `json:"accomplishments"`
}

// HandleCreate records a new movement owned by the signed-in principal,
// allocates its public number and notifies the administrators.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := principal(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var p movementPayload
	if err := httpjson.Decode(r, &p); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if p.Date == "" {
		httpjson.Error(w, http.StatusBadRequest, "date is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	seq, err := h.Counters.Next(ctx, counters.MovementSeq)
	if err != nil {
		h.Log.Error("seq allocation failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to create movement")
		return
	}

	created, err := h.Moves.Create(ctx, models.Movement{
		Seq:             seq,
		StaffID:         uid,
		Date:            p.Date,
		TimeIn:          p.TimeIn,
		TimeOut:         p.TimeOut,
		DueDate:         p.DueDate,
		Division:        p.Division,
		District:        p.District,
		Area:            p.Area,
		Branch:          p.Branch,
		Purpose:         sanitize.Text(p.Purpose),
		TransportMode:   p.TransportMode,
		Accomplishments: sanitize.Text(p.Accomplishments),
	})
	if err != nil {
		h.Log.Error("movement create failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to create movement")
		return
	}

	h.Notify.MovementCreated(ctx, created.Seq)
	h.Audit.Record(ctx, &uid, audit.ActionMovementCreated,
		fmt.Sprintf("Created movement #%d for %s", created.Seq, created.Date))
	httpjson.Success(w, map[string]any{"id": created.ID.Hex(), "seq": created.Seq})
}

// HandleUpdate overwrites the descriptive fields of one movement.
// Status and assignment only move through the lifecycle endpoints.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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
	var p movementPayload
	if err := httpjson.Decode(r, &p); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Moves.GetByID(ctx, id)
	if err != nil {
		h.writeMovementError(w, "movement lookup failed", err)
		return
	}

	err = h.Moves.UpdateFields(ctx, id, movementstore.FieldsUpdate{
		Date:            p.Date,
		TimeIn:          p.TimeIn,
		TimeOut:         p.TimeOut,
		DueDate:         p.DueDate,
		Division:        p.Division,
		District:        p.District,
		Area:            p.Area,
		Branch:          p.Branch,
		Purpose:         sanitize.Text(p.Purpose),
		TransportMode:   p.TransportMode,
		Accomplishments: sanitize.Text(p.Accomplishments),
	})
	if err != nil {
		h.writeMovementError(w, "movement update failed", err)
		return
	}

	h.Audit.Record(ctx, &uid, audit.ActionMovementUpdated,
		fmt.Sprintf("Updated movement #%d", m.Seq))
	httpjson.Success(w, nil)
}

func (h *Handler) writeMovementError(w http.ResponseWriter, logMsg string, err error) {
	if err == movementstore.ErrNotFound {
		httpjson.Error(w, http.StatusNotFound, "Movement not found")
		return
	}
	h.Log.Error(logMsg, zap.Error(err))
	httpjson.Error(w, http.StatusInternalServerError, "Request failed")
}
