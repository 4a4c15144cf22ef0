package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, owner_id, title, description, video_url, thumbnail_url, duration, views, is_published, created_at, updated_at`

func scanVideo(row rowScanner) (models.Video, error) {
	var v models.Video
	if err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
		&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return models.Video{}, err
	}
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return v, nil
}

func collectVideos(rows pgx.Rows) ([]models.Video, error) {
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, v models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, string(v.ID), string(v.OwnerID), v.Title, v.Description, v.VideoURL, v.ThumbnailURL, v.Duration, v.Views, v.IsPublished, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return translateWriteError(err, "insert video")
	}

	return nil
}

// FindByID fetches a single video.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id models.VideoID) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	v, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, string(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return v, nil
}

// FindByIDs fetches the videos that still exist among ids. Order is unspecified.
func (r *PostgresVideoRepository) FindByIDs(ctx context.Context, ids []models.VideoID) ([]models.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ANY($1)`, videoKeys(ids))
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	return collectVideos(rows)
}

// Update persists the mutable metadata of a video.
func (r *PostgresVideoRepository) Update(ctx context.Context, v models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2, description = $3, thumbnail_url = $4, is_published = $5, updated_at = $6
        WHERE id = $1
    `, string(v.ID), v.Title, v.Description, v.ThumbnailURL, v.IsPublished, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a video. Comments cascade; likes and playlist entries are left for
// read-side joins to skip.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id models.VideoID) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementViews bumps the view counter and returns the updated video.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id models.VideoID) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	v, err := scanVideo(conn.QueryRow(ctx, `
        UPDATE videos SET views = views + 1
        WHERE id = $1
        RETURNING `+videoColumns, string(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("increment views: %w", err)
	}
	return v, nil
}

// ListPublished returns published videos, newest first.
func (r *PostgresVideoRepository) ListPublished(ctx context.Context, offset, limit int) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        WHERE is_published
        ORDER BY created_at DESC, id
        OFFSET $1 LIMIT $2
    `, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query published videos: %w", err)
	}
	return collectVideos(rows)
}

// CountPublished counts published videos.
func (r *PostgresVideoRepository) CountPublished(ctx context.Context) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos WHERE is_published`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count published videos: %w", err)
	}
	return count, nil
}

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

const playlistColumns = `id, owner_id, name, description, video_ids, created_at, updated_at`

func scanPlaylist(row rowScanner) (models.Playlist, error) {
	var (
		p   models.Playlist
		ids []string
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &ids, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return models.Playlist{}, err
	}
	p.VideoIDs = make([]models.VideoID, len(ids))
	for i, id := range ids {
		p.VideoIDs[i] = models.VideoID(id)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// Create stores a new playlist. A duplicate (owner, name) pair yields ErrConflict.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, p models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, video_ids, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, string(p.ID), string(p.OwnerID), p.Name, p.Description, videoKeys(p.VideoIDs), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return translateWriteError(err, "insert playlist")
	}
	return nil
}

// FindByID fetches a playlist.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id models.PlaylistID) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	p, err := scanPlaylist(conn.QueryRow(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE id = $1`, string(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("select playlist: %w", err)
	}
	return p, nil
}

// ListByOwner returns the owner's playlists, most recently updated first.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID models.UserID) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+playlistColumns+`
        FROM playlists
        WHERE owner_id = $1
        ORDER BY updated_at DESC, id
    `, string(ownerID))
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return playlists, nil
}

// Update persists name and description changes.
func (r *PostgresPlaylistRepository) Update(ctx context.Context, p models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE playlists
        SET name = $2, description = $3, updated_at = $4
        WHERE id = $1
    `, string(p.ID), p.Name, p.Description, p.UpdatedAt)
	if err != nil {
		return translateWriteError(err, "update playlist")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a playlist.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id models.PlaylistID) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddVideo appends videoID in one conditional statement so concurrent adds of the
// same video cannot both succeed.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, id models.PlaylistID, videoID models.VideoID) (models.Playlist, error) {
	return r.mutateMembership(ctx, id, `
        UPDATE playlists
        SET video_ids = array_append(video_ids, $2), updated_at = $3
        WHERE id = $1 AND NOT ($2 = ANY(video_ids))
        RETURNING `+playlistColumns, string(videoID))
}

// RemoveVideo drops videoID, failing with ErrConflict when it is absent.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, id models.PlaylistID, videoID models.VideoID) (models.Playlist, error) {
	return r.mutateMembership(ctx, id, `
        UPDATE playlists
        SET video_ids = array_remove(video_ids, $2), updated_at = $3
        WHERE id = $1 AND $2 = ANY(video_ids)
        RETURNING `+playlistColumns, string(videoID))
}

func (r *PostgresPlaylistRepository) mutateMembership(ctx context.Context, id models.PlaylistID, query string, videoID string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	p, err := scanPlaylist(conn.QueryRow(ctx, query, string(id), videoID, time.Now().UTC()))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Playlist{}, fmt.Errorf("update playlist membership: %w", err)
	}

	// No row updated: either the playlist is gone or the membership precondition failed.
	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM playlists WHERE id = $1)`, string(id)).Scan(&exists); err != nil {
		return models.Playlist{}, fmt.Errorf("check playlist exists: %w", err)
	}
	if !exists {
		return models.Playlist{}, ErrNotFound
	}
	return models.Playlist{}, ErrConflict
}

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

const commentColumns = `id, video_id, owner_id, content, created_at, updated_at`

func scanComment(row rowScanner) (models.Comment, error) {
	var c models.Comment
	if err := row.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Comment{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

// Create stores a new comment. An unknown video yields ErrNotFound.
func (r *PostgresCommentRepository) Create(ctx context.Context, c models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, string(c.ID), string(c.VideoID), string(c.OwnerID), c.Content, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return translateWriteError(err, "insert comment")
	}
	return nil
}

// FindByID fetches a comment.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id models.CommentID) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	c, err := scanComment(conn.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, string(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}
	return c, nil
}

// Update persists new comment content.
func (r *PostgresCommentRepository) Update(ctx context.Context, c models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`, string(c.ID), c.Content, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a comment.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id models.CommentID) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM comments WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForVideo returns comments on a video, newest first.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID models.VideoID, offset, limit int) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+commentColumns+`
        FROM comments
        WHERE video_id = $1
        ORDER BY created_at DESC, id
        OFFSET $2 LIMIT $3
    `, string(videoID), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

// CountForVideo counts comments on a video.
func (r *PostgresCommentRepository) CountForVideo(ctx context.Context, videoID models.VideoID) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE video_id = $1`, string(videoID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return count, nil
}

func videoKeys(ids []models.VideoID) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}
	return keys
}
