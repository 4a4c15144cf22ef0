package models

import "time"

// VideoSummary is a video joined with its owner's public fields.
type VideoSummary struct {
	ID           VideoID      `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	VideoURL     string       `json:"videoUrl"`
	ThumbnailURL string       `json:"thumbnailUrl"`
	Duration     float64      `json:"duration"`
	Views        int64        `json:"views"`
	IsPublished  bool         `json:"isPublished"`
	CreatedAt    time.Time    `json:"createdAt"`
	Owner        OwnerSummary `json:"owner"`
}

// Summarize joins a video with its owner.
func Summarize(v Video, owner User) VideoSummary {
	return VideoSummary{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		VideoURL:     v.VideoURL,
		ThumbnailURL: v.ThumbnailURL,
		Duration:     v.Duration,
		Views:        v.Views,
		IsPublished:  v.IsPublished,
		CreatedAt:    v.CreatedAt,
		Owner:        owner.Owner(),
	}
}

// ChannelProfile is the public view of a channel with relationship counts.
type ChannelProfile struct {
	ID                UserID    `json:"id"`
	Handle            string    `json:"handle"`
	DisplayName       string    `json:"displayName"`
	AvatarURL         string    `json:"avatarUrl"`
	CoverURL          string    `json:"coverUrl,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	SubscribersCount  int64     `json:"subscribersCount"`
	SubscribedToCount int64     `json:"subscribedToCount"`
	IsSubscribed      bool      `json:"isSubscribed"`
}

// LikedVideosPage is one page of a user's liked videos.
type LikedVideosPage struct {
	Videos     []VideoSummary `json:"videos"`
	TotalCount int64          `json:"totalCount"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

// PlaylistDetail is a playlist with its videos resolved in playlist order.
type PlaylistDetail struct {
	ID          PlaylistID     `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       OwnerSummary   `json:"owner"`
	Videos      []VideoSummary `json:"videos"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// PlaylistSummary is the compact playlist representation used in listings.
type PlaylistSummary struct {
	ID          PlaylistID `json:"id"`
	OwnerID     UserID     `json:"ownerId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	VideoIDs    []VideoID  `json:"videoIds"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Summary converts a playlist into its listing representation.
func (p Playlist) Summary() PlaylistSummary {
	ids := p.VideoIDs
	if ids == nil {
		ids = []VideoID{}
	}
	return PlaylistSummary{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		VideoIDs:    ids,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// CommentView is a comment joined with its author.
type CommentView struct {
	ID        CommentID    `json:"id"`
	VideoID   VideoID      `json:"videoId"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Owner     OwnerSummary `json:"owner"`
}

// CommentsPage is one page of comments on a video.
type CommentsPage struct {
	Comments   []CommentView `json:"comments"`
	TotalCount int64         `json:"totalCount"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
}

// VideosPage is one page of published videos.
type VideosPage struct {
	Videos     []VideoSummary `json:"videos"`
	TotalCount int64          `json:"totalCount"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
}

// LikeStatus reports whether the viewer likes a target and how many likes it has.
type LikeStatus struct {
	IsLiked   bool  `json:"isLiked"`
	LikeCount int64 `json:"likeCount"`
}

// ToggleResult reports the edge state after a toggle.
type ToggleResult struct {
	Active bool `json:"active"`
}

// SubscriptionEntry is one row of a subscriber or subscription list.
type SubscriptionEntry struct {
	Channel      OwnerSummary `json:"channel"`
	SubscribedAt time.Time    `json:"subscribedAt"`
}

// PageRequest is a 1-based page number and page size.
type PageRequest struct {
	Page  int
	Limit int
}

// Offset is the number of rows skipped before the page.
func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
