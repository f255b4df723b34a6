// internal/app/features/users/handler.go
package users

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldops/movelog/internal/app/store/audit"
	"github.com/fieldops/movelog/internal/app/store/kb"
	"github.com/fieldops/movelog/internal/app/store/movements"
	"github.com/fieldops/movelog/internal/app/store/notifications"
	"github.com/fieldops/movelog/internal/app/store/userpurge"
	userstore "github.com/fieldops/movelog/internal/app/store/users"
	"github.com/fieldops/movelog/internal/app/system/auditlog"
	"github.com/fieldops/movelog/internal/app/system/auth"
	"github.com/fieldops/movelog/internal/app/system/httpjson"
	"github.com/fieldops/movelog/internal/app/system/roles"
	"github.com/fieldops/movelog/internal/app/system/sanitize"
	"github.com/fieldops/movelog/internal/app/system/timeouts"
	"github.com/fieldops/movelog/internal/app/system/uploads"
	"github.com/fieldops/movelog/internal/domain/models"
)

// Handler is the feature-level handler for the user directory.
type Handler struct {
	Client   *mongo.Client
	Log      *zap.Logger
	Audit    *auditlog.Recorder
	Users    *userstore.Store
	AuditLog *audit.Store
	Uploads  *uploads.Store
	purger   *userpurge.Purger
}

func NewHandler(client *mongo.Client, db *mongo.Database, rec *auditlog.Recorder, up *uploads.Store, logger *zap.Logger) *Handler {
	users := userstore.New(db)
	auditStore := audit.New(db)
	return &Handler{
		Client:   client,
		Log:      logger,
		Audit:    rec,
		Users:    users,
		AuditLog: auditStore,
		Uploads:  up,
		purger: &userpurge.Purger{
			Users:         users,
			Movements:     movements.New(db),
			Notifications: notifications.New(db),
			Audit:         auditStore,
			KB:            kb.New(db),
		},
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

func pathID(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
}

type listItem struct {
	models.User
	SupervisorName string `json:"supervisor_name,omitempty"`
}

// ServeList returns every user decorated with their supervisor's name.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		h.Log.Error("user list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load users")
		return
	}

	var supIDs []primitive.ObjectID
	for _, u := range users {
		if u.SupervisorID != nil {
			supIDs = append(supIDs, *u.SupervisorID)
		}
	}
	names, err := h.Users.NamesByIDs(ctx, supIDs)
	if err != nil {
		h.Log.Error("supervisor lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load users")
		return
	}

	out := make([]listItem, 0, len(users))
	for _, u := range users {
		item := listItem{User: u}
		if u.SupervisorID != nil {
			item.SupervisorName = names[*u.SupervisorID].FullName
		}
		out = append(out, item)
	}
	httpjson.OK(w, out)
}

// userPayload is the body of create and update. Empty supervisor_id
// means none.
type userPayload struct {
	IDNumber        string   `json:"id_number"`
	Username        string   `json:"username"`
	Password        string   `json:"password"`
	FullName        string   `json:"full_name"`
	Position        string   `json:"position"`
	Division        string   `json:"division"`
	District        []string `json:"district"`
	BaseOffice      string   `json:"base_office"`
	Role            string   `json:"role"`
	SupervisorID    string   `json:"supervisor_id"`
	Email           string   `json:"email"`
	PhoneNumber     string   `json:"phone_number"`
	Location        string   `json:"location"`
	DateOfBirth     string   `json:"date_of_birth"`
	Language        string   `json:"language"`
	Locale          string   `json:"locale"`
	FirstDayOfWeek  string   `json:"first_day_of_week"`
	Website         string   `json:"website"`
	XHandle         string   `json:"x_handle"`
	FediverseHandle string   `json:"fediverse_handle"`
	Organisation    string   `json:"organisation"`
	ProfileRole     string   `json:"profile_role"`
	Headline        string   `json:"headline"`
	About           string   `json:"about"`
}

func (p *userPayload) supervisorObjectID() (*primitive.ObjectID, error) {
	if p.SupervisorID == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(p.SupervisorID)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (p *userPayload) profileUpdate() (userstore.ProfileUpdate, error) {
	supID, err := p.supervisorObjectID()
	if err != nil {
		return userstore.ProfileUpdate{}, err
	}
	return userstore.ProfileUpdate{
		FullName:        p.FullName,
		Position:        p.Position,
		Division:        p.Division,
		District:        p.District,
		BaseOffice:      p.BaseOffice,
		Role:            p.Role,
		SupervisorID:    supID,
		Email:           p.Email,
		PhoneNumber:     p.PhoneNumber,
		Location:        p.Location,
		DateOfBirth:     p.DateOfBirth,
		Language:        p.Language,
		Locale:          p.Locale,
		FirstDayOfWeek:  p.FirstDayOfWeek,
		Website:         p.Website,
		XHandle:         p.XHandle,
		FediverseHandle: p.FediverseHandle,
		Organisation:    p.Organisation,
		ProfileRole:     p.ProfileRole,
		Headline:        sanitize.Text(p.Headline),
		About:           sanitize.Rich(p.About),
	}, nil
}

// HandleCreate creates a user. The password is bcrypt-hashed before it
// reaches the store; a duplicate username or ID number is a 400.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actorID, ok := principalID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var p userPayload
	if err := httpjson.Decode(r, &p); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if p.Username == "" || p.Password == "" || p.FullName == "" || p.Role == "" {
		httpjson.Error(w, http.StatusBadRequest, "username, password, full_name and role are required")
		return
	}
	supID, err := p.supervisorObjectID()
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid supervisor ID")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Users.Create(ctx, models.User{
		IDNumber:     p.IDNumber,
		Username:     p.Username,
		PasswordHash: string(hash),
		FullName:     p.FullName,
		Position:     p.Position,
		Division:     p.Division,
		District:     p.District,
		BaseOffice:   p.BaseOffice,
		Role:         p.Role,
		SupervisorID: supID,
		Email:        p.Email,
		PhoneNumber:  p.PhoneNumber,
	})
	if err != nil {
		if err == userstore.ErrDuplicate {
			httpjson.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Log.Error("user create failed", zap.Error(err))
		httpjson.Error(w, http.StatusBadRequest, "Failed to create user")
		return
	}

	h.Audit.Record(ctx, &actorID, audit.ActionUserCreated,
		fmt.Sprintf("Created user %s (%s)", created.Username, created.Role))
	httpjson.Success(w, map[string]any{"id": created.ID.Hex()})
}

// HandleUpdate overwrites a user's profile and identity. The password
// changes only when the payload carries one.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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

	var p userPayload
	if err := httpjson.Decode(r, &p); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	upd, err := p.profileUpdate()
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid supervisor ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, id, upd); err != nil {
		h.writeUserError(w, "user update failed", err)
		return
	}
	if p.Username != "" || p.IDNumber != "" {
		if err := h.Users.UpdateIdentity(ctx, id, p.Username, p.IDNumber); err != nil {
			h.writeUserError(w, "user identity update failed", err)
			return
		}
	}
	if p.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
		if err != nil {
			h.Log.Error("password hash failed", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "Failed to update user")
			return
		}
		if err := h.Users.UpdatePassword(ctx, id, string(hash)); err != nil {
			h.writeUserError(w, "password update failed", err)
			return
		}
	}

	h.Audit.Record(ctx, &actorID, audit.ActionUserUpdated,
		fmt.Sprintf("Updated user %s", id.Hex()))
	httpjson.Success(w, nil)
}

type statusPayload struct {
	Status string `json:"status"`
}

// HandleUpdateStatus flips one account between active and inactive.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
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
	var p statusPayload
	if err := httpjson.Decode(r, &p); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if p.Status != models.UserActive && p.Status != models.UserInactive {
		httpjson.Error(w, http.StatusBadRequest, "Invalid status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.UpdateStatus(ctx, id, p.Status); err != nil {
		h.writeUserError(w, "status update failed", err)
		return
	}
	h.Audit.Record(ctx, &actorID, audit.ActionUserStatusUpdate,
		fmt.Sprintf("Set user %s status to %s", id.Hex(), p.Status))
	httpjson.Success(w, nil)
}

type presencePayload struct {
	OnlineStatus  string `json:"online_status"`
	StatusMessage string `json:"status_message"`
}

// HandleUpdatePresence sets a user's online status and status message.
// Users may only set their own; admins may set anyone's. Deliberately
// not audited.
func (h *Handler) HandleUpdatePresence(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if su.ID != id.Hex() && !roles.IsAdmin(su.Role) {
		httpjson.Error(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var p presencePayload
	if err := httpjson.Decode(r, &p); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.UpdatePresence(ctx, id, p.OnlineStatus, sanitize.Text(p.StatusMessage)); err != nil {
		h.writeUserError(w, "presence update failed", err)
		return
	}
	httpjson.Success(w, nil)
}

// ServeActivity returns one user's recent audit history.
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entries, err := h.AuditLog.ForActor(ctx, id, 50)
	if err != nil {
		h.Log.Error("activity lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load activity")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	httpjson.OK(w, entries)
}

func (h *Handler) writeUserError(w http.ResponseWriter, logMsg string, err error) {
	switch err {
	case userstore.ErrNotFound:
		httpjson.Error(w, http.StatusNotFound, "User not found")
	case userstore.ErrDuplicate:
		httpjson.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.Log.Error(logMsg, zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Request failed")
	}
}
