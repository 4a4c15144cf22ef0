package content

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// VideoInput describes a newly published video. Media already lives in object
// storage; only URLs are recorded.
type VideoInput struct {
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Duration     float64
	IsPublished  *bool
}

// VideoPatch lists the mutable video fields. Nil fields are left unchanged.
type VideoPatch struct {
	Title        *string
	Description  *string
	ThumbnailURL *string
	IsPublished  *bool
}

// Videos owns the video lifecycle.
type Videos struct {
	videos       repositories.VideoRepository
	users        repositories.UserRepository
	historyLimit int
}

// NewVideos constructs the video service. historyLimit caps each user's watch history.
func NewVideos(videos repositories.VideoRepository, users repositories.UserRepository, historyLimit int) *Videos {
	return &Videos{videos: videos, users: users, historyLimit: historyLimit}
}

// Create publishes a video owned by actor.
func (s *Videos) Create(ctx context.Context, actor models.UserID, in VideoInput) (models.Video, error) {
	title, ok := trimmed(in.Title)
	if !ok {
		return models.Video{}, apperr.Validation("title is required")
	}
	videoURL, ok := trimmed(in.VideoURL)
	if !ok {
		return models.Video{}, apperr.Validation("videoUrl is required")
	}
	if in.Duration < 0 {
		return models.Video{}, apperr.Validation("duration must not be negative")
	}

	published := true
	if in.IsPublished != nil {
		published = *in.IsPublished
	}

	ts := now()
	video := models.Video{
		ID:           models.VideoID(uuid.NewString()),
		OwnerID:      actor,
		Title:        title,
		Description:  in.Description,
		VideoURL:     videoURL,
		ThumbnailURL: in.ThumbnailURL,
		Duration:     in.Duration,
		IsPublished:  published,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return models.Video{}, writeErr(err, "video", "create")
	}

	logging.FromContext(ctx).Info("video created", slog.String("video_id", string(video.ID)))
	return video, nil
}

// Get fetches a video for viewer, counting the view. Unpublished videos are only
// visible to their owner. Authenticated viewers get the video pushed onto their
// watch history.
func (s *Videos) Get(ctx context.Context, viewer models.UserID, id models.VideoID) (models.VideoSummary, error) {
	video, err := load(ctx, "video", func(ctx context.Context) (models.Video, error) {
		return s.videos.FindByID(ctx, id)
	})
	if err != nil {
		return models.VideoSummary{}, err
	}
	if !video.IsPublished && video.OwnerID != viewer {
		return models.VideoSummary{}, apperr.NotFound("video not found")
	}

	video, err = s.videos.IncrementViews(ctx, id)
	if err != nil {
		return models.VideoSummary{}, writeErr(err, "video", "count view of")
	}

	if viewer != "" {
		if err := s.users.PushWatchHistory(ctx, viewer, id, s.historyLimit); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return models.VideoSummary{}, apperr.Dependency("record watch history", err)
		}
	}

	owner, err := s.users.FindByID(ctx, video.OwnerID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return models.VideoSummary{}, apperr.Dependency("load video owner", err)
	}
	owner.ID = video.OwnerID

	return models.Summarize(video, owner), nil
}

// Update applies patch to a video owned by actor.
func (s *Videos) Update(ctx context.Context, actor models.UserID, id models.VideoID, patch VideoPatch) (models.Video, error) {
	video, err := load(ctx, "video", func(ctx context.Context) (models.Video, error) {
		return s.videos.FindByID(ctx, id)
	})
	if err != nil {
		return models.Video{}, err
	}
	if err := authorize(ctx, "video", video.OwnerID, actor); err != nil {
		return models.Video{}, err
	}

	if patch.Title != nil {
		title, ok := trimmed(*patch.Title)
		if !ok {
			return models.Video{}, apperr.Validation("title must not be empty")
		}
		video.Title = title
	}
	if patch.Description != nil {
		video.Description = *patch.Description
	}
	if patch.ThumbnailURL != nil {
		video.ThumbnailURL = *patch.ThumbnailURL
	}
	if patch.IsPublished != nil {
		video.IsPublished = *patch.IsPublished
	}
	video.UpdatedAt = now()

	if err := s.videos.Update(ctx, video); err != nil {
		return models.Video{}, writeErr(err, "video", "update")
	}
	return video, nil
}

// Delete removes a video owned by actor.
func (s *Videos) Delete(ctx context.Context, actor models.UserID, id models.VideoID) error {
	video, err := load(ctx, "video", func(ctx context.Context) (models.Video, error) {
		return s.videos.FindByID(ctx, id)
	})
	if err != nil {
		return err
	}
	if err := authorize(ctx, "video", video.OwnerID, actor); err != nil {
		return err
	}

	if err := s.videos.Delete(ctx, id); err != nil {
		return writeErr(err, "video", "delete")
	}
	logging.FromContext(ctx).Info("video deleted", slog.String("video_id", string(id)))
	return nil
}
