package repositories

import (
	"context"
	"time"

	"github.com/clipstream/backend/internal/models"
)

// UserRepository defines the data access contract for user accounts. It doubles as
// the credential store consulted by the token lifecycle.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id models.UserID) (models.User, error)
	FindByIDs(ctx context.Context, ids []models.UserID) ([]models.User, error)
	FindByHandle(ctx context.Context, handle string) (models.User, error)
	FindByLogin(ctx context.Context, login string) (models.User, error)
	// Update writes only the non-nil fields of patch and returns the stored user.
	Update(ctx context.Context, id models.UserID, patch UserPatch, updatedAt time.Time) (models.User, error)

	// SetRefreshTokenHash overwrites the stored refresh digest. An empty hash revokes.
	SetRefreshTokenHash(ctx context.Context, id models.UserID, hash string) error
	// SwapRefreshTokenHash replaces current with next only if current is still the
	// stored value, returning ErrConflict otherwise.
	SwapRefreshTokenHash(ctx context.Context, id models.UserID, current, next string) error

	// PushWatchHistory moves videoID to the front of the user's history, keeping at
	// most limit entries.
	PushWatchHistory(ctx context.Context, id models.UserID, videoID models.VideoID, limit int) error
}

// UserPatch names the profile columns an operation changes. Nil fields keep the
// stored value, so concurrent edits of different columns do not overwrite each other.
type UserPatch struct {
	Email        *string
	DisplayName  *string
	PasswordHash *string
	AvatarURL    *string
	CoverURL     *string
}
