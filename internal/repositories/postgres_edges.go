package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresLikeRepository stores like edges in PostgreSQL.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

const likeColumns = `id, target_kind, target_id, liker_id, created_at`

func scanLike(row rowScanner) (models.Like, error) {
	var l models.Like
	if err := row.Scan(&l.ID, &l.Target.Kind, &l.Target.ID, &l.LikerID, &l.CreatedAt); err != nil {
		return models.Like{}, err
	}
	l.CreatedAt = l.CreatedAt.UTC()
	return l, nil
}

// Find returns the like edge between the liker and target.
func (r *PostgresLikeRepository) Find(ctx context.Context, target models.LikeTarget, likerID models.UserID) (models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Like{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	l, err := scanLike(conn.QueryRow(ctx, `
        SELECT `+likeColumns+`
        FROM likes
        WHERE target_kind = $1 AND target_id = $2 AND liker_id = $3
    `, string(target.Kind), target.ID, string(likerID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Like{}, ErrNotFound
		}
		return models.Like{}, fmt.Errorf("select like: %w", err)
	}
	return l, nil
}

// Create inserts a like edge. A duplicate edge yields ErrConflict.
func (r *PostgresLikeRepository) Create(ctx context.Context, like models.Like) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, target_kind, target_id, liker_id, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, like.ID, string(like.Target.Kind), like.Target.ID, string(like.LikerID), like.CreatedAt)
	if err != nil {
		return translateWriteError(err, "insert like")
	}
	return nil
}

// Delete removes a like edge by id.
func (r *PostgresLikeRepository) Delete(ctx context.Context, id string) error {
	return deleteEdge(ctx, r.pool, `DELETE FROM likes WHERE id = $1`, id)
}

// CountForTarget counts likes on a target.
func (r *PostgresLikeRepository) CountForTarget(ctx context.Context, target models.LikeTarget) (int64, error) {
	return countRows(ctx, r.pool, `SELECT COUNT(*) FROM likes WHERE target_kind = $1 AND target_id = $2`,
		string(target.Kind), target.ID)
}

// ListByLiker returns a page of the liker's edges of one kind, most recent first.
func (r *PostgresLikeRepository) ListByLiker(ctx context.Context, likerID models.UserID, kind models.TargetKind, offset, limit int) ([]models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+likeColumns+`
        FROM likes
        WHERE liker_id = $1 AND target_kind = $2
        ORDER BY created_at DESC, id
        OFFSET $3 LIMIT $4
    `, string(likerID), string(kind), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	var likes []models.Like
	for rows.Next() {
		l, err := scanLike(rows)
		if err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		likes = append(likes, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}
	return likes, nil
}

// CountByLiker counts the liker's edges of one kind.
func (r *PostgresLikeRepository) CountByLiker(ctx context.Context, likerID models.UserID, kind models.TargetKind) (int64, error) {
	return countRows(ctx, r.pool, `SELECT COUNT(*) FROM likes WHERE liker_id = $1 AND target_kind = $2`,
		string(likerID), string(kind))
}

// PostgresSubscriptionRepository stores subscription edges in PostgreSQL.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

const subscriptionColumns = `id, subscriber_id, channel_id, created_at`

func scanSubscription(row rowScanner) (models.Subscription, error) {
	var s models.Subscription
	if err := row.Scan(&s.ID, &s.SubscriberID, &s.ChannelID, &s.CreatedAt); err != nil {
		return models.Subscription{}, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

// Find returns the subscription edge from subscriber to channel.
func (r *PostgresSubscriptionRepository) Find(ctx context.Context, subscriberID, channelID models.UserID) (models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	s, err := scanSubscription(conn.QueryRow(ctx, `
        SELECT `+subscriptionColumns+`
        FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, string(subscriberID), string(channelID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Subscription{}, ErrNotFound
		}
		return models.Subscription{}, fmt.Errorf("select subscription: %w", err)
	}
	return s, nil
}

// Create inserts a subscription edge. A duplicate edge yields ErrConflict.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, s models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, s.ID, string(s.SubscriberID), string(s.ChannelID), s.CreatedAt)
	if err != nil {
		return translateWriteError(err, "insert subscription")
	}
	return nil
}

// Delete removes a subscription edge by id.
func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, id string) error {
	return deleteEdge(ctx, r.pool, `DELETE FROM subscriptions WHERE id = $1`, id)
}

// CountSubscribers counts edges pointing at the channel.
func (r *PostgresSubscriptionRepository) CountSubscribers(ctx context.Context, channelID models.UserID) (int64, error) {
	return countRows(ctx, r.pool, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, string(channelID))
}

// CountSubscriptions counts edges leaving the subscriber.
func (r *PostgresSubscriptionRepository) CountSubscriptions(ctx context.Context, subscriberID models.UserID) (int64, error) {
	return countRows(ctx, r.pool, `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, string(subscriberID))
}

// ListSubscribers returns edges pointing at the channel, most recent first.
func (r *PostgresSubscriptionRepository) ListSubscribers(ctx context.Context, channelID models.UserID) ([]models.Subscription, error) {
	return r.list(ctx, `channel_id = $1`, string(channelID))
}

// ListSubscriptions returns edges leaving the subscriber, most recent first.
func (r *PostgresSubscriptionRepository) ListSubscriptions(ctx context.Context, subscriberID models.UserID) ([]models.Subscription, error) {
	return r.list(ctx, `subscriber_id = $1`, string(subscriberID))
}

func (r *PostgresSubscriptionRepository) list(ctx context.Context, where string, arg string) ([]models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE `+where+` ORDER BY created_at DESC, id`, arg)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

func deleteEdge(ctx context.Context, pool db.Pool, query, id string) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete edge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func countRows(ctx context.Context, pool db.Pool, query string, args ...any) (int64, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return count, nil
}
