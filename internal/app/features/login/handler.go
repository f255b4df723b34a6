// internal/app/features/login/handler.go
package login

import (
	"context"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldops/movelog/internal/app/store/audit"
	userstore "github.com/fieldops/movelog/internal/app/store/users"
	"github.com/fieldops/movelog/internal/app/system/auditlog"
	"github.com/fieldops/movelog/internal/app/system/auth"
	"github.com/fieldops/movelog/internal/app/system/httpjson"
	"github.com/fieldops/movelog/internal/app/system/timeouts"
	"github.com/fieldops/movelog/internal/domain/models"
)

const invalidCredentials = "Invalid credentials"

// Handler owns the session endpoints.
type Handler struct {
	Log      *zap.Logger
	Sessions *auth.SessionManager
	Audit    *auditlog.Recorder
	Users    *userstore.Store
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, rec *auditlog.Recorder, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		Sessions: sm,
		Audit:    rec,
		Users:    userstore.New(db),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials against the stored bcrypt hash and
// establishes a session. Unknown users, wrong passwords and inactive
// accounts all fail with the same message.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if err == userstore.ErrNotFound {
			httpjson.Error(w, http.StatusUnauthorized, invalidCredentials)
			return
		}
		h.Log.Error("login lookup failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		httpjson.Error(w, http.StatusUnauthorized, invalidCredentials)
		return
	}
	if user.Status == models.UserInactive {
		httpjson.Error(w, http.StatusUnauthorized, invalidCredentials)
		return
	}

	if err := h.Sessions.SignIn(w, r, user); err != nil {
		h.Log.Error("session creation failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.Audit.Record(ctx, &user.ID, audit.ActionLogin,
		fmt.Sprintf("User %s logged in", user.Username))

	httpjson.Success(w, map[string]any{"user": user})
}

// HandleLogout clears the session. Always succeeds.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.SignOut(w, r)
	httpjson.Success(w, nil)
}

type resetRequest struct {
	Username string `json:"username"`
}

// HandleResetPassword acknowledges a reset request. The response shape
// is identical whether or not the username exists, so the endpoint
// cannot be used to enumerate accounts. No mail goes out; the request
// is only audited.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByUsername(ctx, req.Username)
	if err == nil {
		h.Audit.Record(ctx, &user.ID, audit.ActionPasswordResetRequest,
			fmt.Sprintf("Password reset requested for user %s", user.Username))
		httpjson.Success(w, map[string]any{
			"message": "Password reset instructions sent to your email",
		})
		return
	}
	if err != userstore.ErrNotFound {
		h.Log.Error("reset-password lookup failed", zap.Error(err))
	}
	httpjson.Success(w, map[string]any{
		"message": "If the username exists, password reset instructions have been sent.",
	})
}

// ServeMe returns the signed-in principal's user document.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := su.ObjectID()
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "User not found")
		return
	}
	httpjson.OK(w, user)
}
