// Package relationships implements presence toggles for the like and subscription
// edges of the social graph.
package relationships

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/metrics"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// Engine flips edge presence. It holds no state of its own: every toggle re-reads
// storage, and concurrent creates are settled by the storage uniqueness constraint.
type Engine struct {
	users         repositories.UserRepository
	videos        repositories.VideoRepository
	comments      repositories.CommentRepository
	likes         repositories.LikeRepository
	subscriptions repositories.SubscriptionRepository
	now           func() time.Time
}

// NewEngine constructs a toggle engine over the given repositories.
func NewEngine(
	users repositories.UserRepository,
	videos repositories.VideoRepository,
	comments repositories.CommentRepository,
	likes repositories.LikeRepository,
	subscriptions repositories.SubscriptionRepository,
) *Engine {
	return &Engine{
		users:         users,
		videos:        videos,
		comments:      comments,
		likes:         likes,
		subscriptions: subscriptions,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ToggleSubscription subscribes actor to channel, or unsubscribes if already
// subscribed. Subscribing to yourself is rejected.
func (e *Engine) ToggleSubscription(ctx context.Context, actor, channelID models.UserID) (models.ToggleResult, error) {
	ctx, span := logging.StartSpan(ctx, "relationships.toggle_subscription")
	defer span.End()

	if channelID == "" {
		return models.ToggleResult{}, span.Fail(apperr.Validation("channel id is required"))
	}
	if channelID == actor {
		return models.ToggleResult{}, span.Fail(apperr.Validation("cannot subscribe to your own channel"))
	}

	if _, err := e.users.FindByID(ctx, channelID); err != nil {
		return models.ToggleResult{}, span.Fail(notFoundOr(err, "channel not found", "load channel"))
	}

	result, err := toggle(ctx, edgeOps{
		find: func(ctx context.Context) (string, error) {
			sub, err := e.subscriptions.Find(ctx, actor, channelID)
			return sub.ID, err
		},
		create: func(ctx context.Context) error {
			return e.subscriptions.Create(ctx, models.Subscription{
				ID:           uuid.NewString(),
				SubscriberID: actor,
				ChannelID:    channelID,
				CreatedAt:    e.now(),
			})
		},
		delete: e.subscriptions.Delete,
	})
	if err != nil {
		return models.ToggleResult{}, span.Fail(err)
	}

	record(ctx, "subscription", result, slog.String("channel_id", string(channelID)))
	return result, nil
}

// ToggleLike likes target as actor, or removes the like if present. Video and
// comment targets must exist; tweet ids are opaque references.
func (e *Engine) ToggleLike(ctx context.Context, actor models.UserID, target models.LikeTarget) (models.ToggleResult, error) {
	ctx, span := logging.StartSpan(ctx, "relationships.toggle_like")
	defer span.End()

	if err := e.checkTarget(ctx, target); err != nil {
		return models.ToggleResult{}, span.Fail(err)
	}

	result, err := toggle(ctx, edgeOps{
		find: func(ctx context.Context) (string, error) {
			like, err := e.likes.Find(ctx, target, actor)
			return like.ID, err
		},
		create: func(ctx context.Context) error {
			return e.likes.Create(ctx, models.Like{
				ID:        uuid.NewString(),
				Target:    target,
				LikerID:   actor,
				CreatedAt: e.now(),
			})
		},
		delete: e.likes.Delete,
	})
	if err != nil {
		return models.ToggleResult{}, span.Fail(err)
	}

	record(ctx, "like_"+string(target.Kind), result, slog.String("target_id", target.ID))
	return result, nil
}

// LikeStatus reports whether viewer likes target and the target's like count. An
// empty viewer only gets the count.
func (e *Engine) LikeStatus(ctx context.Context, viewer models.UserID, target models.LikeTarget) (models.LikeStatus, error) {
	if err := e.checkTarget(ctx, target); err != nil {
		return models.LikeStatus{}, err
	}

	count, err := e.likes.CountForTarget(ctx, target)
	if err != nil {
		return models.LikeStatus{}, apperr.Dependency("count likes", err)
	}

	status := models.LikeStatus{LikeCount: count}
	if viewer == "" {
		return status, nil
	}

	switch _, err := e.likes.Find(ctx, target, viewer); {
	case err == nil:
		status.IsLiked = true
	case !errors.Is(err, repositories.ErrNotFound):
		return models.LikeStatus{}, apperr.Dependency("load like", err)
	}
	return status, nil
}

func (e *Engine) checkTarget(ctx context.Context, target models.LikeTarget) error {
	if target.ID == "" {
		return apperr.Validation("target id is required")
	}

	switch target.Kind {
	case models.TargetVideo:
		if _, err := e.videos.FindByID(ctx, models.VideoID(target.ID)); err != nil {
			return notFoundOr(err, "video not found", "load video")
		}
	case models.TargetComment:
		if _, err := e.comments.FindByID(ctx, models.CommentID(target.ID)); err != nil {
			return notFoundOr(err, "comment not found", "load comment")
		}
	case models.TargetTweet:
	default:
		return apperr.Validation("unsupported like target kind")
	}
	return nil
}

// edgeOps adapts one edge repository to the generic toggle.
type edgeOps struct {
	find   func(ctx context.Context) (string, error)
	create func(ctx context.Context) error
	delete func(ctx context.Context, id string) error
}

// toggle deletes the edge when present and creates it otherwise. A unique violation
// on create means a concurrent toggle created the same edge, which is reported as
// active; a delete that finds nothing means a concurrent toggle removed it first.
func toggle(ctx context.Context, ops edgeOps) (models.ToggleResult, error) {
	id, err := ops.find(ctx)
	switch {
	case err == nil:
		if err := ops.delete(ctx, id); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return models.ToggleResult{}, apperr.Dependency("delete edge", err)
		}
		return models.ToggleResult{Active: false}, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return models.ToggleResult{}, apperr.Dependency("load edge", err)
	}

	switch err := ops.create(ctx); {
	case err == nil, errors.Is(err, repositories.ErrConflict):
		return models.ToggleResult{Active: true}, nil
	case errors.Is(err, repositories.ErrNotFound):
		return models.ToggleResult{}, apperr.NotFound("referenced user not found")
	default:
		return models.ToggleResult{}, apperr.Dependency("create edge", err)
	}
}

func record(ctx context.Context, edge string, result models.ToggleResult, attrs ...any) {
	metrics.TogglesTotal.WithLabelValues(edge, strconv.FormatBool(result.Active)).Inc()
	logging.FromContext(ctx).Info("edge toggled",
		append([]any{slog.String("edge", edge), slog.Bool("active", result.Active)}, attrs...)...)
}

func notFoundOr(err error, missing, op string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound(missing)
	}
	return apperr.Dependency(op, err)
}
