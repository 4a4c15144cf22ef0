package repositories

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/clipstream/backend/internal/models"
)

// MemoryStore keeps every record in process memory behind one lock. It backs the
// "memory" database driver and the service tests, and enforces the same uniqueness
// and reference rules as the SQL schema.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[models.UserID]models.User
	videos        map[models.VideoID]models.Video
	playlists     map[models.PlaylistID]models.Playlist
	comments      map[models.CommentID]models.Comment
	likes         map[string]models.Like
	subscriptions map[string]models.Subscription
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[models.UserID]models.User),
		videos:        make(map[models.VideoID]models.Video),
		playlists:     make(map[models.PlaylistID]models.Playlist),
		comments:      make(map[models.CommentID]models.Comment),
		likes:         make(map[string]models.Like),
		subscriptions: make(map[string]models.Subscription),
	}
}

// Users returns the user repository view of the store.
func (s *MemoryStore) Users() *MemoryUserRepository { return &MemoryUserRepository{s: s} }

// Videos returns the video repository view of the store.
func (s *MemoryStore) Videos() *MemoryVideoRepository { return &MemoryVideoRepository{s: s} }

// Playlists returns the playlist repository view of the store.
func (s *MemoryStore) Playlists() *MemoryPlaylistRepository { return &MemoryPlaylistRepository{s: s} }

// Comments returns the comment repository view of the store.
func (s *MemoryStore) Comments() *MemoryCommentRepository { return &MemoryCommentRepository{s: s} }

// Likes returns the like repository view of the store.
func (s *MemoryStore) Likes() *MemoryLikeRepository { return &MemoryLikeRepository{s: s} }

// Subscriptions returns the subscription repository view of the store.
func (s *MemoryStore) Subscriptions() *MemorySubscriptionRepository {
	return &MemorySubscriptionRepository{s: s}
}

// MemoryUserRepository implements UserRepository on a MemoryStore.
type MemoryUserRepository struct{ s *MemoryStore }

func cloneUser(u models.User) models.User {
	u.WatchHistory = slices.Clone(u.WatchHistory)
	return u
}

func (r *MemoryUserRepository) Create(_ context.Context, user models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; ok {
		return ErrConflict
	}
	for _, existing := range r.s.users {
		if existing.Handle == user.Handle || existing.Email == user.Email {
			return ErrConflict
		}
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id models.UserID) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) FindByIDs(_ context.Context, ids []models.UserID) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var users []models.User
	for _, id := range ids {
		if user, ok := r.s.users[id]; ok {
			users = append(users, cloneUser(user))
		}
	}
	return users, nil
}

func (r *MemoryUserRepository) FindByHandle(_ context.Context, handle string) (models.User, error) {
	handle = strings.ToLower(handle)
	return r.findFirst(func(u models.User) bool { return u.Handle == handle })
}

func (r *MemoryUserRepository) FindByLogin(_ context.Context, login string) (models.User, error) {
	login = strings.ToLower(login)
	return r.findFirst(func(u models.User) bool { return u.Handle == login || u.Email == login })
}

func (r *MemoryUserRepository) findFirst(match func(models.User) bool) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, user := range r.s.users {
		if match(user) {
			return cloneUser(user), nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r *MemoryUserRepository) Update(_ context.Context, id models.UserID, patch UserPatch, updatedAt time.Time) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	if patch.Email != nil {
		for otherID, other := range r.s.users {
			if otherID != id && other.Email == *patch.Email {
				return models.User{}, ErrConflict
			}
		}
		existing.Email = *patch.Email
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&existing.DisplayName, patch.DisplayName)
	apply(&existing.PasswordHash, patch.PasswordHash)
	apply(&existing.AvatarURL, patch.AvatarURL)
	apply(&existing.CoverURL, patch.CoverURL)
	existing.UpdatedAt = updatedAt
	r.s.users[id] = existing
	return cloneUser(existing), nil
}

func (r *MemoryUserRepository) SetRefreshTokenHash(_ context.Context, id models.UserID, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.RefreshTokenHash = hash
	r.s.users[id] = user
	return nil
}

func (r *MemoryUserRepository) SwapRefreshTokenHash(_ context.Context, id models.UserID, current, next string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok || current == "" || user.RefreshTokenHash != current {
		return ErrConflict
	}
	user.RefreshTokenHash = next
	r.s.users[id] = user
	return nil
}

func (r *MemoryUserRepository) PushWatchHistory(_ context.Context, id models.UserID, videoID models.VideoID, limit int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.WatchHistory = pushFront(user.WatchHistory, videoID, limit)
	r.s.users[id] = user
	return nil
}

// MemoryVideoRepository implements VideoRepository on a MemoryStore.
type MemoryVideoRepository struct{ s *MemoryStore }

func (r *MemoryVideoRepository) Create(_ context.Context, video models.Video) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.videos[video.ID]; ok {
		return ErrConflict
	}
	if _, ok := r.s.users[video.OwnerID]; !ok {
		return ErrNotFound
	}
	r.s.videos[video.ID] = video
	return nil
}

func (r *MemoryVideoRepository) FindByID(_ context.Context, id models.VideoID) (models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	video, ok := r.s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return video, nil
}

func (r *MemoryVideoRepository) FindByIDs(_ context.Context, ids []models.VideoID) ([]models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var videos []models.Video
	for _, id := range ids {
		if video, ok := r.s.videos[id]; ok {
			videos = append(videos, video)
		}
	}
	return videos, nil
}

func (r *MemoryVideoRepository) Update(_ context.Context, video models.Video) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.videos[video.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Title = video.Title
	existing.Description = video.Description
	existing.ThumbnailURL = video.ThumbnailURL
	existing.IsPublished = video.IsPublished
	existing.UpdatedAt = video.UpdatedAt
	r.s.videos[video.ID] = existing
	return nil
}

func (r *MemoryVideoRepository) Delete(_ context.Context, id models.VideoID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.videos[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.videos, id)
	for commentID, comment := range r.s.comments {
		if comment.VideoID == id {
			delete(r.s.comments, commentID)
		}
	}
	return nil
}

func (r *MemoryVideoRepository) IncrementViews(_ context.Context, id models.VideoID) (models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	video, ok := r.s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	video.Views++
	r.s.videos[id] = video
	return video, nil
}

func (r *MemoryVideoRepository) published() []models.Video {
	var videos []models.Video
	for _, video := range r.s.videos {
		if video.IsPublished {
			videos = append(videos, video)
		}
	}
	sort.Slice(videos, func(i, j int) bool {
		if !videos[i].CreatedAt.Equal(videos[j].CreatedAt) {
			return videos[i].CreatedAt.After(videos[j].CreatedAt)
		}
		return videos[i].ID < videos[j].ID
	})
	return videos
}

func (r *MemoryVideoRepository) ListPublished(_ context.Context, offset, limit int) ([]models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return window(r.published(), offset, limit), nil
}

func (r *MemoryVideoRepository) CountPublished(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.published())), nil
}

// MemoryPlaylistRepository implements PlaylistRepository on a MemoryStore.
type MemoryPlaylistRepository struct{ s *MemoryStore }

func clonePlaylist(p models.Playlist) models.Playlist {
	p.VideoIDs = slices.Clone(p.VideoIDs)
	return p
}

func (r *MemoryPlaylistRepository) nameTaken(p models.Playlist) bool {
	for id, other := range r.s.playlists {
		if id != p.ID && other.OwnerID == p.OwnerID && other.Name == p.Name {
			return true
		}
	}
	return false
}

func (r *MemoryPlaylistRepository) Create(_ context.Context, playlist models.Playlist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.playlists[playlist.ID]; ok || r.nameTaken(playlist) {
		return ErrConflict
	}
	if _, ok := r.s.users[playlist.OwnerID]; !ok {
		return ErrNotFound
	}
	r.s.playlists[playlist.ID] = clonePlaylist(playlist)
	return nil
}

func (r *MemoryPlaylistRepository) FindByID(_ context.Context, id models.PlaylistID) (models.Playlist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	playlist, ok := r.s.playlists[id]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	return clonePlaylist(playlist), nil
}

func (r *MemoryPlaylistRepository) ListByOwner(_ context.Context, ownerID models.UserID) ([]models.Playlist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var playlists []models.Playlist
	for _, playlist := range r.s.playlists {
		if playlist.OwnerID == ownerID {
			playlists = append(playlists, clonePlaylist(playlist))
		}
	}
	sort.Slice(playlists, func(i, j int) bool {
		if !playlists[i].UpdatedAt.Equal(playlists[j].UpdatedAt) {
			return playlists[i].UpdatedAt.After(playlists[j].UpdatedAt)
		}
		return playlists[i].ID < playlists[j].ID
	})
	return playlists, nil
}

func (r *MemoryPlaylistRepository) Update(_ context.Context, playlist models.Playlist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.playlists[playlist.ID]
	if !ok {
		return ErrNotFound
	}
	playlist.OwnerID = existing.OwnerID
	if r.nameTaken(playlist) {
		return ErrConflict
	}
	existing.Name = playlist.Name
	existing.Description = playlist.Description
	existing.UpdatedAt = playlist.UpdatedAt
	r.s.playlists[playlist.ID] = existing
	return nil
}

func (r *MemoryPlaylistRepository) Delete(_ context.Context, id models.PlaylistID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.playlists[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.playlists, id)
	return nil
}

func (r *MemoryPlaylistRepository) AddVideo(_ context.Context, id models.PlaylistID, videoID models.VideoID) (models.Playlist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	playlist, ok := r.s.playlists[id]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	if playlist.Contains(videoID) {
		return models.Playlist{}, ErrConflict
	}
	playlist.VideoIDs = append(slices.Clone(playlist.VideoIDs), videoID)
	playlist.UpdatedAt = nowUTC()
	r.s.playlists[id] = playlist
	return clonePlaylist(playlist), nil
}

func (r *MemoryPlaylistRepository) RemoveVideo(_ context.Context, id models.PlaylistID, videoID models.VideoID) (models.Playlist, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	playlist, ok := r.s.playlists[id]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	if !playlist.Contains(videoID) {
		return models.Playlist{}, ErrConflict
	}
	playlist.VideoIDs = slices.DeleteFunc(slices.Clone(playlist.VideoIDs), func(v models.VideoID) bool { return v == videoID })
	playlist.UpdatedAt = nowUTC()
	r.s.playlists[id] = playlist
	return clonePlaylist(playlist), nil
}

// MemoryCommentRepository implements CommentRepository on a MemoryStore.
type MemoryCommentRepository struct{ s *MemoryStore }

func (r *MemoryCommentRepository) Create(_ context.Context, comment models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[comment.ID]; ok {
		return ErrConflict
	}
	if _, ok := r.s.videos[comment.VideoID]; !ok {
		return ErrNotFound
	}
	r.s.comments[comment.ID] = comment
	return nil
}

func (r *MemoryCommentRepository) FindByID(_ context.Context, id models.CommentID) (models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	comment, ok := r.s.comments[id]
	if !ok {
		return models.Comment{}, ErrNotFound
	}
	return comment, nil
}

func (r *MemoryCommentRepository) Update(_ context.Context, comment models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.comments[comment.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Content = comment.Content
	existing.UpdatedAt = comment.UpdatedAt
	r.s.comments[comment.ID] = existing
	return nil
}

func (r *MemoryCommentRepository) Delete(_ context.Context, id models.CommentID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.comments, id)
	return nil
}

func (r *MemoryCommentRepository) forVideo(videoID models.VideoID) []models.Comment {
	var comments []models.Comment
	for _, comment := range r.s.comments {
		if comment.VideoID == videoID {
			comments = append(comments, comment)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.After(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments
}

func (r *MemoryCommentRepository) ListForVideo(_ context.Context, videoID models.VideoID, offset, limit int) ([]models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return window(r.forVideo(videoID), offset, limit), nil
}

func (r *MemoryCommentRepository) CountForVideo(_ context.Context, videoID models.VideoID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.forVideo(videoID))), nil
}

// MemoryLikeRepository implements LikeRepository on a MemoryStore.
type MemoryLikeRepository struct{ s *MemoryStore }

func (r *MemoryLikeRepository) Find(_ context.Context, target models.LikeTarget, likerID models.UserID) (models.Like, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, like := range r.s.likes {
		if like.Target == target && like.LikerID == likerID {
			return like, nil
		}
	}
	return models.Like{}, ErrNotFound
}

func (r *MemoryLikeRepository) Create(_ context.Context, like models.Like) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.likes[like.ID]; ok {
		return ErrConflict
	}
	for _, existing := range r.s.likes {
		if existing.Target == like.Target && existing.LikerID == like.LikerID {
			return ErrConflict
		}
	}
	if _, ok := r.s.users[like.LikerID]; !ok {
		return ErrNotFound
	}
	r.s.likes[like.ID] = like
	return nil
}

func (r *MemoryLikeRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.likes[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.likes, id)
	return nil
}

func (r *MemoryLikeRepository) CountForTarget(_ context.Context, target models.LikeTarget) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var count int64
	for _, like := range r.s.likes {
		if like.Target == target {
			count++
		}
	}
	return count, nil
}

func (r *MemoryLikeRepository) byLiker(likerID models.UserID, kind models.TargetKind) []models.Like {
	var likes []models.Like
	for _, like := range r.s.likes {
		if like.LikerID == likerID && like.Target.Kind == kind {
			likes = append(likes, like)
		}
	}
	sort.Slice(likes, func(i, j int) bool {
		if !likes[i].CreatedAt.Equal(likes[j].CreatedAt) {
			return likes[i].CreatedAt.After(likes[j].CreatedAt)
		}
		return likes[i].ID < likes[j].ID
	})
	return likes
}

func (r *MemoryLikeRepository) ListByLiker(_ context.Context, likerID models.UserID, kind models.TargetKind, offset, limit int) ([]models.Like, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return window(r.byLiker(likerID, kind), offset, limit), nil
}

func (r *MemoryLikeRepository) CountByLiker(_ context.Context, likerID models.UserID, kind models.TargetKind) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.byLiker(likerID, kind))), nil
}

// MemorySubscriptionRepository implements SubscriptionRepository on a MemoryStore.
type MemorySubscriptionRepository struct{ s *MemoryStore }

func (r *MemorySubscriptionRepository) Find(_ context.Context, subscriberID, channelID models.UserID) (models.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, sub := range r.s.subscriptions {
		if sub.SubscriberID == subscriberID && sub.ChannelID == channelID {
			return sub, nil
		}
	}
	return models.Subscription{}, ErrNotFound
}

func (r *MemorySubscriptionRepository) Create(_ context.Context, subscription models.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.subscriptions[subscription.ID]; ok {
		return ErrConflict
	}
	for _, existing := range r.s.subscriptions {
		if existing.SubscriberID == subscription.SubscriberID && existing.ChannelID == subscription.ChannelID {
			return ErrConflict
		}
	}
	_, subscriberOK := r.s.users[subscription.SubscriberID]
	_, channelOK := r.s.users[subscription.ChannelID]
	if !subscriberOK || !channelOK {
		return ErrNotFound
	}
	r.s.subscriptions[subscription.ID] = subscription
	return nil
}

func (r *MemorySubscriptionRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.subscriptions[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.subscriptions, id)
	return nil
}

func (r *MemorySubscriptionRepository) filter(match func(models.Subscription) bool) []models.Subscription {
	var subs []models.Subscription
	for _, sub := range r.s.subscriptions {
		if match(sub) {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].CreatedAt.After(subs[j].CreatedAt)
		}
		return subs[i].ID < subs[j].ID
	})
	return subs
}

func (r *MemorySubscriptionRepository) CountSubscribers(_ context.Context, channelID models.UserID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.filter(func(s models.Subscription) bool { return s.ChannelID == channelID }))), nil
}

func (r *MemorySubscriptionRepository) CountSubscriptions(_ context.Context, subscriberID models.UserID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.filter(func(s models.Subscription) bool { return s.SubscriberID == subscriberID }))), nil
}

func (r *MemorySubscriptionRepository) ListSubscribers(_ context.Context, channelID models.UserID) ([]models.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.filter(func(s models.Subscription) bool { return s.ChannelID == channelID }), nil
}

func (r *MemorySubscriptionRepository) ListSubscriptions(_ context.Context, subscriberID models.UserID) ([]models.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.filter(func(s models.Subscription) bool { return s.SubscriberID == subscriberID }), nil
}

func nowUTC() time.Time { return time.Now().UTC() }

// window applies offset/limit pagination to an already ordered slice.
func window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

var (
	_ UserRepository         = (*MemoryUserRepository)(nil)
	_ VideoRepository        = (*MemoryVideoRepository)(nil)
	_ PlaylistRepository     = (*MemoryPlaylistRepository)(nil)
	_ CommentRepository      = (*MemoryCommentRepository)(nil)
	_ LikeRepository         = (*MemoryLikeRepository)(nil)
	_ SubscriptionRepository = (*MemorySubscriptionRepository)(nil)
)
