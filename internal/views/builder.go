// Package views composes read models from repository rows. It never writes.
// Joins skip referenced rows that no longer exist instead of failing.
package views

import (
	"context"
	"errors"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// Builder assembles channel, history, likes, playlist and comment views.
type Builder struct {
	users         repositories.UserRepository
	videos        repositories.VideoRepository
	playlists     repositories.PlaylistRepository
	comments      repositories.CommentRepository
	likes         repositories.LikeRepository
	subscriptions repositories.SubscriptionRepository
}

// NewBuilder constructs a view builder over the given repositories.
func NewBuilder(
	users repositories.UserRepository,
	videos repositories.VideoRepository,
	playlists repositories.PlaylistRepository,
	comments repositories.CommentRepository,
	likes repositories.LikeRepository,
	subscriptions repositories.SubscriptionRepository,
) *Builder {
	return &Builder{
		users:         users,
		videos:        videos,
		playlists:     playlists,
		comments:      comments,
		likes:         likes,
		subscriptions: subscriptions,
	}
}

// ChannelProfile returns the channel identified by handle with its subscription
// counts. IsSubscribed is only computed for an authenticated viewer.
func (b *Builder) ChannelProfile(ctx context.Context, viewer models.UserID, handle string) (models.ChannelProfile, error) {
	channel, err := b.channelByHandle(ctx, handle)
	if err != nil {
		return models.ChannelProfile{}, err
	}

	subscribers, err := b.subscriptions.CountSubscribers(ctx, channel.ID)
	if err != nil {
		return models.ChannelProfile{}, apperr.Dependency("count subscribers", err)
	}
	subscribedTo, err := b.subscriptions.CountSubscriptions(ctx, channel.ID)
	if err != nil {
		return models.ChannelProfile{}, apperr.Dependency("count subscriptions", err)
	}

	profile := models.ChannelProfile{
		ID:                channel.ID,
		Handle:            channel.Handle,
		DisplayName:       channel.DisplayName,
		AvatarURL:         channel.AvatarURL,
		CoverURL:          channel.CoverURL,
		CreatedAt:         channel.CreatedAt,
		SubscribersCount:  subscribers,
		SubscribedToCount: subscribedTo,
	}

	if viewer != "" {
		switch _, err := b.subscriptions.Find(ctx, viewer, channel.ID); {
		case err == nil:
			profile.IsSubscribed = true
		case !errors.Is(err, repositories.ErrNotFound):
			return models.ChannelProfile{}, apperr.Dependency("load subscription", err)
		}
	}

	return profile, nil
}

// WatchHistory resolves the user's history, most recent first.
func (b *Builder) WatchHistory(ctx context.Context, userID models.UserID) ([]models.VideoSummary, error) {
	user, err := b.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Dependency("load user", err)
	}
	return b.summaries(ctx, userID, user.WatchHistory)
}

// LikedVideos pages through the videos the user liked, most recent like first.
// TotalCount counts like edges, so it does not shift when a page drops deleted videos.
func (b *Builder) LikedVideos(ctx context.Context, userID models.UserID, page models.PageRequest) (models.LikedVideosPage, error) {
	total, err := b.likes.CountByLiker(ctx, userID, models.TargetVideo)
	if err != nil {
		return models.LikedVideosPage{}, apperr.Dependency("count liked videos", err)
	}

	likes, err := b.likes.ListByLiker(ctx, userID, models.TargetVideo, page.Offset(), page.Limit)
	if err != nil {
		return models.LikedVideosPage{}, apperr.Dependency("list liked videos", err)
	}

	ids := make([]models.VideoID, 0, len(likes))
	for _, like := range likes {
		ids = append(ids, models.VideoID(like.Target.ID))
	}
	videos, err := b.summaries(ctx, userID, ids)
	if err != nil {
		return models.LikedVideosPage{}, err
	}

	return models.LikedVideosPage{
		Videos:     videos,
		TotalCount: total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: totalPages(total, page.Limit),
	}, nil
}

// PlaylistDetail resolves a playlist's videos in playlist order.
func (b *Builder) PlaylistDetail(ctx context.Context, viewer models.UserID, id models.PlaylistID) (models.PlaylistDetail, error) {
	playlist, err := b.playlists.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.PlaylistDetail{}, apperr.NotFound("playlist not found")
		}
		return models.PlaylistDetail{}, apperr.Dependency("load playlist", err)
	}

	owners, err := b.ownersByID(ctx, []models.UserID{playlist.OwnerID})
	if err != nil {
		return models.PlaylistDetail{}, err
	}
	videos, err := b.summaries(ctx, viewer, playlist.VideoIDs)
	if err != nil {
		return models.PlaylistDetail{}, err
	}

	return models.PlaylistDetail{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Owner:       owners.get(playlist.OwnerID).Owner(),
		Videos:      videos,
		CreatedAt:   playlist.CreatedAt,
		UpdatedAt:   playlist.UpdatedAt,
	}, nil
}

// Comments pages through a video's comments, newest first, with authors embedded.
// Comments on an unpublished video are only visible to its owner.
func (b *Builder) Comments(ctx context.Context, viewer models.UserID, videoID models.VideoID, page models.PageRequest) (models.CommentsPage, error) {
	video, err := b.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.CommentsPage{}, apperr.NotFound("video not found")
		}
		return models.CommentsPage{}, apperr.Dependency("load video", err)
	}
	if !video.IsPublished && video.OwnerID != viewer {
		return models.CommentsPage{}, apperr.NotFound("video not found")
	}

	total, err := b.comments.CountForVideo(ctx, videoID)
	if err != nil {
		return models.CommentsPage{}, apperr.Dependency("count comments", err)
	}
	comments, err := b.comments.ListForVideo(ctx, videoID, page.Offset(), page.Limit)
	if err != nil {
		return models.CommentsPage{}, apperr.Dependency("list comments", err)
	}

	ownerIDs := make([]models.UserID, 0, len(comments))
	for _, c := range comments {
		ownerIDs = append(ownerIDs, c.OwnerID)
	}
	owners, err := b.ownersByID(ctx, ownerIDs)
	if err != nil {
		return models.CommentsPage{}, err
	}

	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, models.CommentView{
			ID:        c.ID,
			VideoID:   c.VideoID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			Owner:     owners.get(c.OwnerID).Owner(),
		})
	}

	return models.CommentsPage{Comments: views, TotalCount: total, Page: page.Page, Limit: page.Limit}, nil
}

// PublishedVideos pages through published videos, newest first.
func (b *Builder) PublishedVideos(ctx context.Context, page models.PageRequest) (models.VideosPage, error) {
	total, err := b.videos.CountPublished(ctx)
	if err != nil {
		return models.VideosPage{}, apperr.Dependency("count videos", err)
	}
	videos, err := b.videos.ListPublished(ctx, page.Offset(), page.Limit)
	if err != nil {
		return models.VideosPage{}, apperr.Dependency("list videos", err)
	}

	summaries, err := b.join(ctx, videos)
	if err != nil {
		return models.VideosPage{}, err
	}
	return models.VideosPage{Videos: summaries, TotalCount: total, Page: page.Page, Limit: page.Limit}, nil
}

// Subscribers lists the users subscribed to the channel with the given handle.
func (b *Builder) Subscribers(ctx context.Context, handle string) ([]models.SubscriptionEntry, error) {
	channel, err := b.channelByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	subs, err := b.subscriptions.ListSubscribers(ctx, channel.ID)
	if err != nil {
		return nil, apperr.Dependency("list subscribers", err)
	}
	return b.entries(ctx, subs, func(s models.Subscription) models.UserID { return s.SubscriberID })
}

// Subscriptions lists the channels the user is subscribed to.
func (b *Builder) Subscriptions(ctx context.Context, userID models.UserID) ([]models.SubscriptionEntry, error) {
	subs, err := b.subscriptions.ListSubscriptions(ctx, userID)
	if err != nil {
		return nil, apperr.Dependency("list subscriptions", err)
	}
	return b.entries(ctx, subs, func(s models.Subscription) models.UserID { return s.ChannelID })
}

func (b *Builder) entries(ctx context.Context, subs []models.Subscription, other func(models.Subscription) models.UserID) ([]models.SubscriptionEntry, error) {
	ids := make([]models.UserID, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, other(s))
	}
	users, err := b.ownersByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]models.SubscriptionEntry, 0, len(subs))
	for _, s := range subs {
		user, ok := users[other(s)]
		if !ok {
			continue
		}
		entries = append(entries, models.SubscriptionEntry{Channel: user.Owner(), SubscribedAt: s.CreatedAt})
	}
	return entries, nil
}

func (b *Builder) channelByHandle(ctx context.Context, handle string) (models.User, error) {
	if handle == "" {
		return models.User{}, apperr.Validation("handle is required")
	}
	channel, err := b.users.FindByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperr.NotFound("channel not found")
		}
		return models.User{}, apperr.Dependency("load channel", err)
	}
	return channel, nil
}

// summaries resolves ids in order, dropping deleted videos and unpublished videos
// the viewer does not own.
func (b *Builder) summaries(ctx context.Context, viewer models.UserID, ids []models.VideoID) ([]models.VideoSummary, error) {
	if len(ids) == 0 {
		return []models.VideoSummary{}, nil
	}

	found, err := b.videos.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Dependency("load videos", err)
	}
	byID := make(map[models.VideoID]models.Video, len(found))
	for _, v := range found {
		byID[v.ID] = v
	}

	ordered := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		v, ok := byID[id]
		if !ok || (!v.IsPublished && v.OwnerID != viewer) {
			continue
		}
		ordered = append(ordered, v)
	}
	return b.join(ctx, ordered)
}

// join embeds owners into videos, keeping the input order.
func (b *Builder) join(ctx context.Context, videos []models.Video) ([]models.VideoSummary, error) {
	ownerIDs := make([]models.UserID, 0, len(videos))
	for _, v := range videos {
		ownerIDs = append(ownerIDs, v.OwnerID)
	}
	owners, err := b.ownersByID(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.VideoSummary, 0, len(videos))
	for _, v := range videos {
		summaries = append(summaries, models.Summarize(v, owners.get(v.OwnerID)))
	}
	return summaries, nil
}

type userIndex map[models.UserID]models.User

// get returns the indexed user, or a stub carrying only the id.
func (idx userIndex) get(id models.UserID) models.User {
	if user, ok := idx[id]; ok {
		return user
	}
	return models.User{ID: id}
}

func (b *Builder) ownersByID(ctx context.Context, ids []models.UserID) (userIndex, error) {
	unique := make([]models.UserID, 0, len(ids))
	seen := make(map[models.UserID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	users, err := b.users.FindByIDs(ctx, unique)
	if err != nil {
		return nil, apperr.Dependency("load users", err)
	}
	idx := make(userIndex, len(users))
	for _, u := range users {
		idx[u.ID] = u
	}
	return idx, nil
}

func totalPages(total int64, limit int) int {
	if limit <= 0 || total == 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
