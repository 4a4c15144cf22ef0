// Package content holds the owner-gated mutations on videos, playlists and
// comments. Every mutation loads the aggregate, rejects a missing one with
// NotFound and a foreign one with Authorization, and only then writes.
package content

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/metrics"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

func authorize(ctx context.Context, resource string, owner, actor models.UserID) error {
	if actor != "" && owner == actor {
		return nil
	}
	metrics.OwnershipDeniedTotal.WithLabelValues(resource).Inc()
	logging.FromContext(ctx).Warn("ownership check failed",
		slog.String("resource", resource),
		slog.String("actor_id", string(actor)),
	)
	return apperr.Authorization("you do not own this " + resource)
}

// load fetches an aggregate, translating a missing row into NotFound.
func load[T any](ctx context.Context, resource string, find func(context.Context) (T, error)) (T, error) {
	item, err := find(ctx)
	if err != nil {
		var zero T
		if errors.Is(err, repositories.ErrNotFound) {
			return zero, apperr.NotFound(resource + " not found")
		}
		return zero, apperr.Dependency("load "+resource, err)
	}
	return item, nil
}

func writeErr(err error, resource, op string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound(resource + " not found")
	case errors.Is(err, repositories.ErrConflict):
		return apperr.Conflict(resource + " already exists")
	default:
		return apperr.Dependency(op+" "+resource, err)
	}
}

func now() time.Time { return time.Now().UTC() }

// trimmed returns the trimmed value and whether anything is left.
func trimmed(value string) (string, bool) {
	value = strings.TrimSpace(value)
	return value, value != ""
}
