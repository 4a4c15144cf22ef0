package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ChannelHandler serves public channel views.
type ChannelHandler struct {
	Views ViewBuilder
}

// Profile handles GET /api/v1/channels/{handle}. isSubscribed reflects the caller when authenticated.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.Views.ChannelProfile(ctx, caller(r), chi.URLParam(r, "handle"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, profile)
}

// Subscribers handles GET /api/v1/channels/{handle}/subscribers.
func (h ChannelHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.Views.Subscribers(ctx, chi.URLParam(r, "handle"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"subscribers": entries})
}
