// internal/app/features/users/avatar.go
package users

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/fieldops/movelog/internal/app/store/audit"
	"github.com/fieldops/movelog/internal/app/system/auth"
	"github.com/fieldops/movelog/internal/app/system/httpjson"
	"github.com/fieldops/movelog/internal/app/system/roles"
	"github.com/fieldops/movelog/internal/app/system/timeouts"
)

// maxAvatarBytes caps the multipart form; avatars are small images.
const maxAvatarBytes = 5 << 20

// HandleUploadAvatar stores an uploaded avatar under a random filename
// and points the user at it. Users may only change their own avatar;
// admins may change anyone's. The replaced file is removed best-effort
// after the row update.
func (h *Handler) HandleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	actorID, _ := principalID(r)
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if su.ID != id.Hex() && !roles.IsAdmin(su.Role) {
		httpjson.Error(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	url, err := h.Uploads.Save(file, header.Filename)
	if err != nil {
		h.Log.Error("avatar save failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to store avatar")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	prev, err := h.Users.SetAvatar(ctx, id, url)
	if err != nil {
		_ = h.Uploads.Remove(url)
		h.writeUserError(w, "avatar update failed", err)
		return
	}
	if prev != "" {
		if err := h.Uploads.Remove(prev); err != nil {
			h.Log.Warn("stale avatar removal failed", zap.String("url", prev), zap.Error(err))
		}
	}

	h.Audit.Record(ctx, &actorID, audit.ActionAvatarUpdated,
		fmt.Sprintf("Updated avatar for user %s", id.Hex()))
	httpjson.Success(w, map[string]any{"avatar_url": url})
}

// HandleRemoveAvatar clears the avatar field and removes the file.
func (h *Handler) HandleRemoveAvatar(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	actorID, _ := principalID(r)
	id, err := pathID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if su.ID != id.Hex() && !roles.IsAdmin(su.Role) {
		httpjson.Error(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	prev, err := h.Users.ClearAvatar(ctx, id)
	if err != nil {
		h.writeUserError(w, "avatar clear failed", err)
		return
	}
	if prev != "" {
		if err := h.Uploads.Remove(prev); err != nil {
			h.Log.Warn("avatar file removal failed", zap.String("url", prev), zap.Error(err))
		}
	}

	h.Audit.Record(ctx, &actorID, audit.ActionAvatarRemoved,
		fmt.Sprintf("Removed avatar for user %s", id.Hex()))
	httpjson.Success(w, nil)
}
