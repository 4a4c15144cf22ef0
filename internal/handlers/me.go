package handlers

import (
	"context"
	"net/http"

	"github.com/clipstream/backend/internal/accounts"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// MeHandler serves the authenticated user's own account and activity.
type MeHandler struct {
	Accounts AccountService
	Views    ViewBuilder
	// SecureCookies marks cleared session cookies Secure after a password change.
	SecureCookies bool
}

// Current handles GET /api/v1/me.
func (h MeHandler) Current(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.Accounts.Current(ctx, caller(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, user.Public())
}

// Update handles PATCH /api/v1/me.
func (h MeHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(ctx, w, "invalid request body")
		return
	}
	if req.DisplayName == nil && req.Email == nil {
		badRequest(ctx, w, "displayName or email is required")
		return
	}

	user, err := h.Accounts.UpdateProfile(ctx, caller(r), accounts.ProfilePatch{
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, user.Public())
}

// ChangePassword handles POST /api/v1/me/password. Existing sessions end.
func (h MeHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(ctx, w, "invalid request body")
		return
	}

	if err := h.Accounts.ChangePassword(ctx, caller(r), req.OldPassword, req.NewPassword); err != nil {
		writeError(ctx, w, err)
		return
	}

	clearSessionCookies(w, h.SecureCookies)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "password changed"})
}

// UpdateAvatar handles PATCH /api/v1/me/avatar (multipart field "avatar").
func (h MeHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", h.Accounts.UpdateAvatar)
}

// UpdateCover handles PATCH /api/v1/me/cover (multipart field "cover").
func (h MeHandler) UpdateCover(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "cover", h.Accounts.UpdateCover)
}

func (h MeHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string, apply func(ctx context.Context, id models.UserID, file *accounts.Upload) (models.User, error)) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logging.FromContext(ctx).Warn("invalid upload form", "field", field, "error", err)
		badRequest(ctx, w, "multipart form expected")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, err := formUpload(r, field)
	if err != nil {
		badRequest(ctx, w, "invalid "+field+" upload")
		return
	}
	if file == nil {
		badRequest(ctx, w, field+" file is required")
		return
	}
	defer closeUpload(file)

	user, err := apply(ctx, caller(r), file)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, user.Public())
}

// WatchHistory handles GET /api/v1/me/watch-history.
func (h MeHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videos, err := h.Views.WatchHistory(ctx, caller(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": videos})
}

// RecordWatch handles POST /api/v1/me/watch-history {videoId}.
func (h MeHandler) RecordWatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req recordWatchRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(ctx, w, "invalid request body")
		return
	}

	if err := h.Accounts.RecordWatch(ctx, caller(r), req.VideoID); err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "recorded"})
}

// LikedVideos handles GET /api/v1/me/liked-videos?page=&limit=.
func (h MeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := pageParams(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	liked, err := h.Views.LikedVideos(ctx, caller(r), page)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, liked)
}

// Subscriptions handles GET /api/v1/me/subscriptions.
func (h MeHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.Views.Subscriptions(ctx, caller(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"subscriptions": entries})
}

type updateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	Email       *string `json:"email"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type recordWatchRequest struct {
	VideoID models.VideoID `json:"videoId"`
}
