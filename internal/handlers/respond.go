package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	maxJSONBody      = 1 << 20
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// writeError maps a service error onto its status code. Unclassified and
// dependency failures are logged with their cause and reported generically.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()
	message := apperr.MessageOf(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(ctx).Error("service failure", "kind", kind.String(), "error", err)
		message = "internal error"
	}
	respondJSON(ctx, w, status, errorResponse{Error: message, Kind: kind.String()})
}

func badRequest(ctx context.Context, w http.ResponseWriter, message string) {
	respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: message, Kind: apperr.KindValidation.String()})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// pageParams parses ?page=&limit=, defaulting to page 1 of 10 and capping limit at 100.
func pageParams(r *http.Request) (models.PageRequest, error) {
	page := models.PageRequest{Page: 1, Limit: defaultPageLimit}
	query := r.URL.Query()

	if raw := query.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return models.PageRequest{}, apperr.Validation("page must be a positive integer")
		}
		page.Page = n
	}
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return models.PageRequest{}, apperr.Validation("limit must be a positive integer")
		}
		page.Limit = min(n, maxPageLimit)
	}
	return page, nil
}
