package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/backend/internal/content"
	"github.com/clipstream/backend/internal/models"
)

// PlaylistHandler serves playlist CRUD and membership.
type PlaylistHandler struct {
	Playlists PlaylistService
	Views     ViewBuilder
}

// Mine handles GET /api/v1/playlists.
func (h PlaylistHandler) Mine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, caller(r))
}

// ForUser handles GET /api/v1/users/{userId}/playlists.
func (h PlaylistHandler) ForUser(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.UserID(chi.URLParam(r, "userId")))
}

func (h PlaylistHandler) list(w http.ResponseWriter, r *http.Request, owner models.UserID) {
	ctx := r.Context()

	playlists, err := h.Playlists.ListForOwner(ctx, owner)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"playlists": playlists})
}

// Get handles GET /api/v1/playlists/{playlistId}, resolving videos in playlist order.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := h.Views.PlaylistDetail(ctx, caller(r), playlistID(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, detail)
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createPlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(ctx, w, "invalid request body")
		return
	}

	playlist, err := h.Playlists.Create(ctx, caller(r), req.Name, req.Description)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, playlist.Summary())
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updatePlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(ctx, w, "invalid request body")
		return
	}

	playlist, err := h.Playlists.Update(ctx, caller(r), playlistID(r), content.PlaylistPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, playlist.Summary())
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Playlists.Delete(ctx, caller(r), playlistID(r)); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddVideo handles POST /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, err := h.Playlists.AddVideo(ctx, caller(r), playlistID(r), videoID(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, playlist.Summary())
}

// RemoveVideo handles DELETE /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, err := h.Playlists.RemoveVideo(ctx, caller(r), playlistID(r), videoID(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, playlist.Summary())
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updatePlaylistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func playlistID(r *http.Request) models.PlaylistID {
	return models.PlaylistID(chi.URLParam(r, "playlistId"))
}
