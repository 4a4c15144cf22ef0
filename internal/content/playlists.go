package content

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// PlaylistPatch lists the mutable playlist fields. Nil fields are left unchanged.
type PlaylistPatch struct {
	Name        *string
	Description *string
}

// Playlists owns playlist mutations.
type Playlists struct {
	playlists repositories.PlaylistRepository
	videos    repositories.VideoRepository
}

// NewPlaylists constructs the playlist service.
func NewPlaylists(playlists repositories.PlaylistRepository, videos repositories.VideoRepository) *Playlists {
	return &Playlists{playlists: playlists, videos: videos}
}

// Create makes an empty playlist. Names are unique per owner.
func (s *Playlists) Create(ctx context.Context, actor models.UserID, name, description string) (models.Playlist, error) {
	name, ok := trimmed(name)
	if !ok {
		return models.Playlist{}, apperr.Validation("name is required")
	}

	ts := now()
	playlist := models.Playlist{
		ID:          models.PlaylistID(uuid.NewString()),
		OwnerID:     actor,
		Name:        name,
		Description: description,
		VideoIDs:    []models.VideoID{},
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := s.playlists.Create(ctx, playlist); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Playlist{}, apperr.Conflict("a playlist with this name already exists")
		}
		return models.Playlist{}, writeErr(err, "playlist", "create")
	}
	return playlist, nil
}

// Get returns a playlist by id.
func (s *Playlists) Get(ctx context.Context, id models.PlaylistID) (models.Playlist, error) {
	return s.find(ctx, id)
}

// ListForOwner returns the owner's playlists.
func (s *Playlists) ListForOwner(ctx context.Context, owner models.UserID) ([]models.PlaylistSummary, error) {
	playlists, err := s.playlists.ListByOwner(ctx, owner)
	if err != nil {
		return nil, apperr.Dependency("list playlists", err)
	}
	summaries := make([]models.PlaylistSummary, 0, len(playlists))
	for _, p := range playlists {
		summaries = append(summaries, p.Summary())
	}
	return summaries, nil
}

// Update renames or redescribes a playlist owned by actor.
func (s *Playlists) Update(ctx context.Context, actor models.UserID, id models.PlaylistID, patch PlaylistPatch) (models.Playlist, error) {
	playlist, err := s.owned(ctx, actor, id)
	if err != nil {
		return models.Playlist{}, err
	}

	if patch.Name != nil {
		name, ok := trimmed(*patch.Name)
		if !ok {
			return models.Playlist{}, apperr.Validation("name must not be empty")
		}
		playlist.Name = name
	}
	if patch.Description != nil {
		playlist.Description = *patch.Description
	}
	playlist.UpdatedAt = now()

	if err := s.playlists.Update(ctx, playlist); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Playlist{}, apperr.Conflict("a playlist with this name already exists")
		}
		return models.Playlist{}, writeErr(err, "playlist", "update")
	}
	return playlist, nil
}

// Delete removes a playlist owned by actor.
func (s *Playlists) Delete(ctx context.Context, actor models.UserID, id models.PlaylistID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.playlists.Delete(ctx, id); err != nil {
		return writeErr(err, "playlist", "delete")
	}
	return nil
}

// AddVideo appends an existing video to a playlist owned by actor.
func (s *Playlists) AddVideo(ctx context.Context, actor models.UserID, id models.PlaylistID, videoID models.VideoID) (models.Playlist, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return models.Playlist{}, err
	}
	if _, err := load(ctx, "video", func(ctx context.Context) (models.Video, error) {
		return s.videos.FindByID(ctx, videoID)
	}); err != nil {
		return models.Playlist{}, err
	}

	playlist, err := s.playlists.AddVideo(ctx, id, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Playlist{}, apperr.Conflict("video is already in the playlist")
		}
		return models.Playlist{}, writeErr(err, "playlist", "update")
	}
	return playlist, nil
}

// RemoveVideo drops a video from a playlist owned by actor.
func (s *Playlists) RemoveVideo(ctx context.Context, actor models.UserID, id models.PlaylistID, videoID models.VideoID) (models.Playlist, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return models.Playlist{}, err
	}

	playlist, err := s.playlists.RemoveVideo(ctx, id, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Playlist{}, apperr.Conflict("video is not in the playlist")
		}
		return models.Playlist{}, writeErr(err, "playlist", "update")
	}
	return playlist, nil
}

func (s *Playlists) find(ctx context.Context, id models.PlaylistID) (models.Playlist, error) {
	return load(ctx, "playlist", func(ctx context.Context) (models.Playlist, error) {
		return s.playlists.FindByID(ctx, id)
	})
}

func (s *Playlists) owned(ctx context.Context, actor models.UserID, id models.PlaylistID) (models.Playlist, error) {
	playlist, err := s.find(ctx, id)
	if err != nil {
		return models.Playlist{}, err
	}
	if err := authorize(ctx, "playlist", playlist.OwnerID, actor); err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}
