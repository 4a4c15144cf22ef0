// Package accounts manages registration and self-service profile changes.
package accounts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/storage"
)

const (
	minPasswordLength = 8
	// bcrypt only hashes the first 72 bytes and rejects longer input.
	maxPasswordLength = 72
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_.-]{3,30}$`)

// Upload is a media file received from the client.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// RegisterInput carries the registration form. Avatar is required, Cover optional.
type RegisterInput struct {
	Handle      string
	Email       string
	DisplayName string
	Password    string
	Avatar      *Upload
	Cover       *Upload
}

// ProfilePatch lists the editable profile fields. Nil fields are left unchanged.
type ProfilePatch struct {
	DisplayName *string
	Email       *string
}

// SessionRevoker ends every outstanding refresh token of a user.
type SessionRevoker interface {
	Revoke(ctx context.Context, userID models.UserID) error
}

// Service implements account registration and profile maintenance.
type Service struct {
	users        repositories.UserRepository
	videos       repositories.VideoRepository
	media        storage.MediaStorage
	sessions     SessionRevoker
	historyLimit int
}

// NewService constructs the accounts service.
func NewService(users repositories.UserRepository, videos repositories.VideoRepository, media storage.MediaStorage, sessions SessionRevoker, historyLimit int) *Service {
	return &Service{
		users:        users,
		videos:       videos,
		media:        media,
		sessions:     sessions,
		historyLimit: historyLimit,
	}
}

// Register creates a new user after uploading their avatar and optional cover.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	handle := strings.ToLower(strings.TrimSpace(in.Handle))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	displayName := strings.TrimSpace(in.DisplayName)

	switch {
	case handle == "" || email == "" || displayName == "" || in.Password == "":
		return models.User{}, apperr.Validation("handle, email, displayName and password are required")
	case !handlePattern.MatchString(handle):
		return models.User{}, apperr.Validation("handle must be 3-30 characters of a-z, 0-9, '.', '_' or '-'")
	case !validEmail(email):
		return models.User{}, apperr.Validation("email is invalid")
	case len(in.Password) < minPasswordLength:
		return models.User{}, apperr.Validation("password must be at least 8 characters")
	case len(in.Password) > maxPasswordLength:
		return models.User{}, apperr.Validation("password must be at most 72 bytes")
	case in.Avatar == nil:
		return models.User{}, apperr.Validation("avatar is required")
	}

	for _, login := range []string{handle, email} {
		if _, err := s.users.FindByLogin(ctx, login); err == nil {
			return models.User{}, apperr.Conflict("handle or email already registered")
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperr.Dependency("check existing user", err)
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}

	id := models.UserID(uuid.NewString())
	avatarURL, err := s.upload(ctx, "avatars", id, in.Avatar)
	if err != nil {
		return models.User{}, err
	}
	var coverURL string
	if in.Cover != nil {
		if coverURL, err = s.upload(ctx, "covers", id, in.Cover); err != nil {
			return models.User{}, err
		}
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           id,
		Handle:       handle,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		AvatarURL:    avatarURL,
		CoverURL:     coverURL,
		WatchHistory: []models.VideoID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("handle or email already registered")
		}
		return models.User{}, apperr.Dependency("create user", err)
	}

	logging.FromContext(ctx).Info("user registered", slog.String("user_id", string(user.ID)))
	return user, nil
}

// Current returns the stored user.
func (s *Service) Current(ctx context.Context, id models.UserID) (models.User, error) {
	return s.find(ctx, id)
}

// UpdateProfile changes the display name or email.
func (s *Service) UpdateProfile(ctx context.Context, id models.UserID, patch ProfilePatch) (models.User, error) {
	var changes repositories.UserPatch
	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if name == "" {
			return models.User{}, apperr.Validation("displayName must not be empty")
		}
		changes.DisplayName = &name
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if !validEmail(email) {
			return models.User{}, apperr.Validation("email is invalid")
		}
		changes.Email = &email
	}
	if changes.DisplayName == nil && changes.Email == nil {
		return s.find(ctx, id)
	}

	return s.save(ctx, id, changes)
}

// ChangePassword replaces the password after checking the current one, then
// revokes outstanding refresh tokens.
func (s *Service) ChangePassword(ctx context.Context, id models.UserID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("oldPassword and newPassword are required")
	}
	if len(newPassword) < minPasswordLength {
		return apperr.Validation("password must be at least 8 characters")
	}
	if len(newPassword) > maxPasswordLength {
		return apperr.Validation("password must be at most 72 bytes")
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, oldPassword) {
		return apperr.Validation("current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.save(ctx, id, repositories.UserPatch{PasswordHash: &hash}); err != nil {
		return err
	}

	return s.sessions.Revoke(ctx, id)
}

// UpdateAvatar uploads a new avatar.
func (s *Service) UpdateAvatar(ctx context.Context, id models.UserID, file *Upload) (models.User, error) {
	return s.replaceImage(ctx, id, "avatars", file, func(p *repositories.UserPatch, url string) { p.AvatarURL = &url })
}

// UpdateCover uploads a new cover image.
func (s *Service) UpdateCover(ctx context.Context, id models.UserID, file *Upload) (models.User, error) {
	return s.replaceImage(ctx, id, "covers", file, func(p *repositories.UserPatch, url string) { p.CoverURL = &url })
}

// RecordWatch pushes an existing video onto the user's watch history.
func (s *Service) RecordWatch(ctx context.Context, id models.UserID, videoID models.VideoID) error {
	if videoID == "" {
		return apperr.Validation("videoId is required")
	}
	if _, err := s.videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound("video not found")
		}
		return apperr.Dependency("load video", err)
	}
	if err := s.users.PushWatchHistory(ctx, id, videoID, s.historyLimit); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Dependency("record watch history", err)
	}
	return nil
}

func (s *Service) replaceImage(ctx context.Context, id models.UserID, kind string, file *Upload, apply func(*repositories.UserPatch, string)) (models.User, error) {
	if file == nil {
		return models.User{}, apperr.Validation("file is required")
	}
	if _, err := s.find(ctx, id); err != nil {
		return models.User{}, err
	}
	url, err := s.upload(ctx, kind, id, file)
	if err != nil {
		return models.User{}, err
	}
	var patch repositories.UserPatch
	apply(&patch, url)
	return s.save(ctx, id, patch)
}

func (s *Service) upload(ctx context.Context, kind string, owner models.UserID, file *Upload) (string, error) {
	if !strings.HasPrefix(file.ContentType, "image/") {
		return "", apperr.Validation(strings.TrimSuffix(kind, "s") + " must be an image")
	}
	url, err := s.media.Save(ctx, storage.Object{
		Key:         storage.NewKey(kind, string(owner), file.Filename),
		ContentType: file.ContentType,
		Body:        file.Body,
	})
	if err != nil {
		return "", apperr.Dependency("upload "+kind, err)
	}
	return url, nil
}

func (s *Service) find(ctx context.Context, id models.UserID) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperr.NotFound("user not found")
		}
		return models.User{}, apperr.Dependency("load user", err)
	}
	return user, nil
}

// save writes only the columns named in patch, so concurrent profile, image and
// password changes cannot overwrite each other with stale values.
func (s *Service) save(ctx context.Context, id models.UserID, patch repositories.UserPatch) (models.User, error) {
	user, err := s.users.Update(ctx, id, patch, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			return models.User{}, apperr.Conflict("email already registered")
		case errors.Is(err, repositories.ErrNotFound):
			return models.User{}, apperr.NotFound("user not found")
		default:
			return models.User{}, apperr.Dependency("update user", err)
		}
	}
	return user, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
