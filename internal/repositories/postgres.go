package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// translateWriteError maps constraint violations onto the repository sentinels.
func translateWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrConflict
		case pgForeignKeyViolation:
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, handle, email, display_name, password_hash, avatar_url, cover_url, watch_history, refresh_token_hash, created_at, updated_at`

func scanUser(row rowScanner) (models.User, error) {
	var (
		user    models.User
		history []string
	)
	if err := row.Scan(&user.ID, &user.Handle, &user.Email, &user.DisplayName, &user.PasswordHash,
		&user.AvatarURL, &user.CoverURL, &history, &user.RefreshTokenHash, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return models.User{}, err
	}
	user.WatchHistory = make([]models.VideoID, len(history))
	for i, id := range history {
		user.WatchHistory[i] = models.VideoID(id)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, handle, email, display_name, password_hash, avatar_url, cover_url, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, string(user.ID), user.Handle, user.Email, user.DisplayName, user.PasswordHash, user.AvatarURL, user.CoverURL, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return translateWriteError(err, "insert user")
	}

	return nil
}

func (r *PostgresUserRepository) findOne(ctx context.Context, where string, arg any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id models.UserID) (models.User, error) {
	return r.findOne(ctx, `id = $1`, string(id))
}

// FindByHandle fetches a user by their (lower-case) handle.
func (r *PostgresUserRepository) FindByHandle(ctx context.Context, handle string) (models.User, error) {
	return r.findOne(ctx, `handle = $1`, strings.ToLower(handle))
}

// FindByLogin fetches a user whose handle or email matches login.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, login string) (models.User, error) {
	return r.findOne(ctx, `handle = $1 OR email = $1 LIMIT 1`, strings.ToLower(login))
}

// FindByIDs fetches the users that still exist among ids. Order is unspecified.
func (r *PostgresUserRepository) FindByIDs(ctx context.Context, ids []models.UserID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}

	rows, err := conn.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Update writes the columns set in patch. Unset columns are left as stored.
func (r *PostgresUserRepository) Update(ctx context.Context, id models.UserID, patch UserPatch, updatedAt time.Time) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        UPDATE users
        SET email = COALESCE($2, email),
            display_name = COALESCE($3, display_name),
            password_hash = COALESCE($4, password_hash),
            avatar_url = COALESCE($5, avatar_url),
            cover_url = COALESCE($6, cover_url),
            updated_at = $7
        WHERE id = $1
        RETURNING `+userColumns,
		string(id), patch.Email, patch.DisplayName, patch.PasswordHash, patch.AvatarURL, patch.CoverURL, updatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, translateWriteError(err, "update user")
	}

	return user, nil
}

// PushWatchHistory moves videoID to the front of the history inside a row-locking
// transaction so concurrent watches do not drop entries.
func (r *PostgresUserRepository) PushWatchHistory(ctx context.Context, id models.UserID, videoID models.VideoID, limit int) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin watch history transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var history []string
	if err := tx.QueryRow(ctx, `SELECT watch_history FROM users WHERE id = $1 FOR UPDATE`, string(id)).Scan(&history); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("select watch history: %w", err)
	}

	next := pushFront(history, string(videoID), limit)

	if _, err := tx.Exec(ctx, `UPDATE users SET watch_history = $2 WHERE id = $1`, string(id), next); err != nil {
		return fmt.Errorf("update watch history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit watch history: %w", err)
	}
	return nil
}

// pushFront returns history with value moved to index 0, truncated to limit.
func pushFront[T comparable](history []T, value T, limit int) []T {
	next := make([]T, 0, len(history)+1)
	next = append(next, value)
	for _, existing := range history {
		if existing == value {
			continue
		}
		next = append(next, existing)
	}
	if limit > 0 && len(next) > limit {
		next = next[:limit]
	}
	return next
}

var (
	_ UserRepository         = (*PostgresUserRepository)(nil)
	_ VideoRepository        = (*PostgresVideoRepository)(nil)
	_ PlaylistRepository     = (*PostgresPlaylistRepository)(nil)
	_ CommentRepository      = (*PostgresCommentRepository)(nil)
	_ LikeRepository         = (*PostgresLikeRepository)(nil)
	_ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
)
