package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/content"
	"github.com/clipstream/backend/internal/models"
)

// VideoHandler serves video listings and the video lifecycle.
type VideoHandler struct {
	Videos VideoService
	Views  ViewBuilder
}

// List handles GET /api/v1/videos?page=&limit= (published videos, newest first).
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := pageParams(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	videos, err := h.Views.PublishedVideos(ctx, page)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, videos)
}

// Get handles GET /api/v1/videos/{videoId}. Each fetch counts a view.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, err := h.Videos.Get(ctx, caller(r), videoID(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, video)
}

// Create handles POST /api/v1/videos.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(ctx, w, "invalid request body")
		return
	}

	video, err := h.Videos.Create(ctx, caller(r), content.VideoInput{
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		Duration:     req.Duration,
		IsPublished:  req.IsPublished,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, ownSummary(r, video))
}

// Update handles PATCH /api/v1/videos/{videoId}.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(ctx, w, "invalid request body")
		return
	}

	video, err := h.Videos.Update(ctx, caller(r), videoID(r), content.VideoPatch{
		Title:        req.Title,
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
		IsPublished:  req.IsPublished,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, ownSummary(r, video))
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Videos.Delete(ctx, caller(r), videoID(r)); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createVideoRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	VideoURL     string  `json:"videoUrl"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	Duration     float64 `json:"duration"`
	IsPublished  *bool   `json:"isPublished"`
}

type updateVideoRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ThumbnailURL *string `json:"thumbnailUrl"`
	IsPublished  *bool   `json:"isPublished"`
}

func videoID(r *http.Request) models.VideoID {
	return models.VideoID(chi.URLParam(r, "videoId"))
}

// ownSummary joins a video the caller just wrote with the caller as owner.
func ownSummary(r *http.Request, video models.Video) models.VideoSummary {
	user, _ := auth.UserFromContext(r.Context())
	return models.Summarize(video, user)
}
