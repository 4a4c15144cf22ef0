package models

import "time"

// UserID identifies an account. Ownership checks compare UserID values directly.
type UserID string

// VideoID identifies an uploaded video.
type VideoID string

// PlaylistID identifies a playlist.
type PlaylistID string

// CommentID identifies a comment on a video.
type CommentID string

// User represents an account (and its channel) within the clipstream platform.
type User struct {
	ID               UserID
	Handle           string
	Email            string
	DisplayName      string
	PasswordHash     string
	AvatarURL        string
	CoverURL         string
	WatchHistory     []VideoID
	RefreshTokenHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Public strips credential material from the user record.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Handle:      u.Handle,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		CoverURL:    u.CoverURL,
		CreatedAt:   u.CreatedAt,
	}
}

// Owner returns the fields embedded into video and comment summaries.
func (u User) Owner() OwnerSummary {
	return OwnerSummary{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// PublicUser is the account representation returned to clients.
type PublicUser struct {
	ID          UserID    `json:"id"`
	Handle      string    `json:"handle"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl"`
	CoverURL    string    `json:"coverUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OwnerSummary is the subset of a user embedded into other resources.
type OwnerSummary struct {
	ID          UserID `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// Video is a piece of uploaded content. Media files live in object storage and are
// referenced by URL.
type Video struct {
	ID           VideoID
	OwnerID      UserID
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Duration     float64
	Views        int64
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Playlist is an ordered, duplicate-free list of videos curated by its owner.
type Playlist struct {
	ID          PlaylistID
	OwnerID     UserID
	Name        string
	Description string
	VideoIDs    []VideoID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Contains reports whether the playlist already references the video.
func (p Playlist) Contains(videoID VideoID) bool {
	for _, id := range p.VideoIDs {
		if id == videoID {
			return true
		}
	}
	return false
}

// Comment is a text comment left on a video.
type Comment struct {
	ID        CommentID
	VideoID   VideoID
	OwnerID   UserID
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TargetKind enumerates the resources a like can point at.
type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
	TargetTweet   TargetKind = "tweet"
)

// ParseTargetKind validates a like target kind.
func ParseTargetKind(value string) (TargetKind, bool) {
	switch TargetKind(value) {
	case TargetVideo, TargetComment, TargetTweet:
		return TargetKind(value), true
	default:
		return "", false
	}
}

// LikeTarget identifies exactly one likeable resource.
type LikeTarget struct {
	Kind TargetKind
	ID   string
}

// Like is an edge between a user and a liked resource.
type Like struct {
	ID        string
	Target    LikeTarget
	LikerID   UserID
	CreatedAt time.Time
}

// Subscription is an edge from a subscriber to a channel.
type Subscription struct {
	ID           string
	SubscriberID UserID
	ChannelID    UserID
	CreatedAt    time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
