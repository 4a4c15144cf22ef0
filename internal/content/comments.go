package content

import (
	"context"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// Comments owns comment mutations.
type Comments struct {
	comments repositories.CommentRepository
	videos   repositories.VideoRepository
}

// NewComments constructs the comment service.
func NewComments(comments repositories.CommentRepository, videos repositories.VideoRepository) *Comments {
	return &Comments{comments: comments, videos: videos}
}

// Add posts a comment by actor on a video.
func (s *Comments) Add(ctx context.Context, actor models.UserID, videoID models.VideoID, text string) (models.Comment, error) {
	text, ok := trimmed(text)
	if !ok {
		return models.Comment{}, apperr.Validation("content is required")
	}

	video, err := load(ctx, "video", func(ctx context.Context) (models.Video, error) {
		return s.videos.FindByID(ctx, videoID)
	})
	if err != nil {
		return models.Comment{}, err
	}
	if !video.IsPublished && video.OwnerID != actor {
		return models.Comment{}, apperr.NotFound("video not found")
	}

	ts := now()
	comment := models.Comment{
		ID:        models.CommentID(uuid.NewString()),
		VideoID:   videoID,
		OwnerID:   actor,
		Content:   text,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return models.Comment{}, writeErr(err, "comment", "create")
	}
	return comment, nil
}

// Update replaces the content of a comment owned by actor.
func (s *Comments) Update(ctx context.Context, actor models.UserID, id models.CommentID, text string) (models.Comment, error) {
	comment, err := s.owned(ctx, actor, id)
	if err != nil {
		return models.Comment{}, err
	}

	text, ok := trimmed(text)
	if !ok {
		return models.Comment{}, apperr.Validation("content is required")
	}
	comment.Content = text
	comment.UpdatedAt = now()

	if err := s.comments.Update(ctx, comment); err != nil {
		return models.Comment{}, writeErr(err, "comment", "update")
	}
	return comment, nil
}

// Delete removes a comment owned by actor.
func (s *Comments) Delete(ctx context.Context, actor models.UserID, id models.CommentID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return writeErr(err, "comment", "delete")
	}
	return nil
}

func (s *Comments) owned(ctx context.Context, actor models.UserID, id models.CommentID) (models.Comment, error) {
	comment, err := load(ctx, "comment", func(ctx context.Context) (models.Comment, error) {
		return s.comments.FindByID(ctx, id)
	})
	if err != nil {
		return models.Comment{}, err
	}
	if err := authorize(ctx, "comment", comment.OwnerID, actor); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}
