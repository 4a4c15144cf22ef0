package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id models.VideoID) (models.Video, error)
	FindByIDs(ctx context.Context, ids []models.VideoID) ([]models.Video, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id models.VideoID) error
	IncrementViews(ctx context.Context, id models.VideoID) (models.Video, error)
	ListPublished(ctx context.Context, offset, limit int) ([]models.Video, error)
	CountPublished(ctx context.Context) (int64, error)
}

// PlaylistRepository exposes data access for playlists.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id models.PlaylistID) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID models.UserID) ([]models.Playlist, error)
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id models.PlaylistID) error
	// AddVideo appends videoID, returning ErrConflict when it is already present.
	AddVideo(ctx context.Context, id models.PlaylistID, videoID models.VideoID) (models.Playlist, error)
	// RemoveVideo drops videoID, returning ErrConflict when it is not present.
	RemoveVideo(ctx context.Context, id models.PlaylistID, videoID models.VideoID) (models.Playlist, error)
}

// CommentRepository exposes data access for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id models.CommentID) (models.Comment, error)
	Update(ctx context.Context, comment models.Comment) error
	Delete(ctx context.Context, id models.CommentID) error
	ListForVideo(ctx context.Context, videoID models.VideoID, offset, limit int) ([]models.Comment, error)
	CountForVideo(ctx context.Context, videoID models.VideoID) (int64, error)
}
