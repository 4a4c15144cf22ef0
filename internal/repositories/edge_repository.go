package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// LikeRepository stores like edges. (kind, target, liker) is unique.
type LikeRepository interface {
	Find(ctx context.Context, target models.LikeTarget, likerID models.UserID) (models.Like, error)
	Create(ctx context.Context, like models.Like) error
	Delete(ctx context.Context, id string) error
	CountForTarget(ctx context.Context, target models.LikeTarget) (int64, error)
	ListByLiker(ctx context.Context, likerID models.UserID, kind models.TargetKind, offset, limit int) ([]models.Like, error)
	CountByLiker(ctx context.Context, likerID models.UserID, kind models.TargetKind) (int64, error)
}

// SubscriptionRepository stores subscription edges. (subscriber, channel) is unique.
type SubscriptionRepository interface {
	Find(ctx context.Context, subscriberID, channelID models.UserID) (models.Subscription, error)
	Create(ctx context.Context, subscription models.Subscription) error
	Delete(ctx context.Context, id string) error
	CountSubscribers(ctx context.Context, channelID models.UserID) (int64, error)
	CountSubscriptions(ctx context.Context, subscriberID models.UserID) (int64, error)
	ListSubscribers(ctx context.Context, channelID models.UserID) ([]models.Subscription, error)
	ListSubscriptions(ctx context.Context, subscriberID models.UserID) ([]models.Subscription, error)
}
