package handlers

import (
	"context"

	"github.com/clipstream/backend/internal/accounts"
	"github.com/clipstream/backend/internal/content"
	"github.com/clipstream/backend/internal/models"
)

// SessionManager issues, verifies, rotates and revokes session tokens.
type SessionManager interface {
	Issue(ctx context.Context, user models.User) (models.SessionTokens, error)
	VerifyAccess(ctx context.Context, token string) (models.User, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID models.UserID) error
	Authenticate(ctx context.Context, login, password string) (models.User, error)
}

// AccountService covers registration and self-service profile changes.
type AccountService interface {
	Register(ctx context.Context, in accounts.RegisterInput) (models.User, error)
	Current(ctx context.Context, id models.UserID) (models.User, error)
	UpdateProfile(ctx context.Context, id models.UserID, patch accounts.ProfilePatch) (models.User, error)
	ChangePassword(ctx context.Context, id models.UserID, oldPassword, newPassword string) error
	UpdateAvatar(ctx context.Context, id models.UserID, file *accounts.Upload) (models.User, error)
	UpdateCover(ctx context.Context, id models.UserID, file *accounts.Upload) (models.User, error)
	RecordWatch(ctx context.Context, id models.UserID, videoID models.VideoID) error
}

// RelationshipEngine toggles subscriptions and likes.
type RelationshipEngine interface {
	ToggleSubscription(ctx context.Context, actor, channelID models.UserID) (models.ToggleResult, error)
	ToggleLike(ctx context.Context, actor models.UserID, target models.LikeTarget) (models.ToggleResult, error)
	LikeStatus(ctx context.Context, viewer models.UserID, target models.LikeTarget) (models.LikeStatus, error)
}

// ViewBuilder assembles the joined read models.
type ViewBuilder interface {
	ChannelProfile(ctx context.Context, viewer models.UserID, handle string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID models.UserID) ([]models.VideoSummary, error)
	LikedVideos(ctx context.Context, userID models.UserID, page models.PageRequest) (models.LikedVideosPage, error)
	PlaylistDetail(ctx context.Context, viewer models.UserID, id models.PlaylistID) (models.PlaylistDetail, error)
	Comments(ctx context.Context, viewer models.UserID, videoID models.VideoID, page models.PageRequest) (models.CommentsPage, error)
	PublishedVideos(ctx context.Context, page models.PageRequest) (models.VideosPage, error)
	Subscribers(ctx context.Context, handle string) ([]models.SubscriptionEntry, error)
	Subscriptions(ctx context.Context, userID models.UserID) ([]models.SubscriptionEntry, error)
}

// VideoService owns the video lifecycle.
type VideoService interface {
	Create(ctx context.Context, actor models.UserID, in content.VideoInput) (models.Video, error)
	Get(ctx context.Context, viewer models.UserID, id models.VideoID) (models.VideoSummary, error)
	Update(ctx context.Context, actor models.UserID, id models.VideoID, patch content.VideoPatch) (models.Video, error)
	Delete(ctx context.Context, actor models.UserID, id models.VideoID) error
}

// CommentService owns comment mutations.
type CommentService interface {
	Add(ctx context.Context, actor models.UserID, videoID models.VideoID, text string) (models.Comment, error)
	Update(ctx context.Context, actor models.UserID, id models.CommentID, text string) (models.Comment, error)
	Delete(ctx context.Context, actor models.UserID, id models.CommentID) error
}

// PlaylistService owns playlist mutations.
type PlaylistService interface {
	Create(ctx context.Context, actor models.UserID, name, description string) (models.Playlist, error)
	ListForOwner(ctx context.Context, owner models.UserID) ([]models.PlaylistSummary, error)
	Update(ctx context.Context, actor models.UserID, id models.PlaylistID, patch content.PlaylistPatch) (models.Playlist, error)
	Delete(ctx context.Context, actor models.UserID, id models.PlaylistID) error
	AddVideo(ctx context.Context, actor models.UserID, id models.PlaylistID, videoID models.VideoID) (models.Playlist, error)
	RemoveVideo(ctx context.Context, actor models.UserID, id models.PlaylistID, videoID models.VideoID) (models.Playlist, error)
}
