package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/backend/internal/models"
)

// RelationshipHandler exposes the subscription and like toggles.
type RelationshipHandler struct {
	Engine RelationshipEngine
}

// ToggleSubscription handles POST /api/v1/relationships/subscriptions/{channelId}.
func (h RelationshipHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.Engine.ToggleSubscription(ctx, caller(r), models.UserID(chi.URLParam(r, "channelId")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, result)
}

// ToggleLike handles POST /api/v1/relationships/likes/{kind}/{targetId}.
func (h RelationshipHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target, ok := likeTarget(r)
	if !ok {
		badRequest(ctx, w, "kind must be one of video, comment or tweet")
		return
	}

	result, err := h.Engine.ToggleLike(ctx, caller(r), target)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, result)
}

// LikeStatus handles GET /api/v1/relationships/likes/{kind}/{targetId}.
func (h RelationshipHandler) LikeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target, ok := likeTarget(r)
	if !ok {
		badRequest(ctx, w, "kind must be one of video, comment or tweet")
		return
	}

	status, err := h.Engine.LikeStatus(ctx, caller(r), target)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, status)
}

func likeTarget(r *http.Request) (models.LikeTarget, bool) {
	kind, ok := models.ParseTargetKind(chi.URLParam(r, "kind"))
	if !ok {
		return models.LikeTarget{}, false
	}
	return models.LikeTarget{Kind: kind, ID: chi.URLParam(r, "targetId")}, true
}
