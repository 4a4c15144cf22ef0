package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
)

// CommentHandler serves comments on videos.
type CommentHandler struct {
	Comments CommentService
	Views    ViewBuilder
}

// List handles GET /api/v1/videos/{videoId}/comments?page=&limit=.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := pageParams(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	comments, err := h.Views.Comments(ctx, caller(r), videoID(r), page)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, comments)
}

// Add handles POST /api/v1/videos/{videoId}/comments.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(ctx, w, "invalid request body")
		return
	}

	comment, err := h.Comments.Add(ctx, caller(r), videoID(r), req.Content)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, commentView(r, comment))
}

// Update handles PATCH /api/v1/comments/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(ctx, w, "invalid request body")
		return
	}

	comment, err := h.Comments.Update(ctx, caller(r), commentID(r), req.Content)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, commentView(r, comment))
}

// Delete handles DELETE /api/v1/comments/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Comments.Delete(ctx, caller(r), commentID(r)); err != nil {
		writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type commentRequest struct {
	Content string `json:"content"`
}

func commentID(r *http.Request) models.CommentID {
	return models.CommentID(chi.URLParam(r, "commentId"))
}

func commentView(r *http.Request, c models.Comment) models.CommentView {
	user, _ := auth.UserFromContext(r.Context())
	return models.CommentView{
		ID:        c.ID,
		VideoID:   c.VideoID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Owner:     user.Owner(),
	}
}
