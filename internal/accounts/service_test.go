package accounts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/storage"
)

type harness struct {
	store   *repositories.MemoryStore
	media   *storage.MemoryStorage
	manager *auth.Manager
	svc     *Service
}

func newHarness() harness {
	store := repositories.NewMemoryStore()
	media := storage.NewMemoryStorage("http://media.test")
	manager := auth.NewManager(auth.Config{
		AccessSecret:  "a",
		RefreshSecret: "r",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, store.Users())
	return harness{
		store:   store,
		media:   media,
		manager: manager,
		svc:     NewService(store.Users(), store.Videos(), media, manager, 2),
	}
}

func avatar() *Upload {
	return &Upload{Filename: "me.png", ContentType: "image/png", Body: strings.NewReader("png-bytes")}
}

func validInput() RegisterInput {
	return RegisterInput{
		Handle:      "Alice",
		Email:       "Alice@Example.com",
		DisplayName: "Alice",
		Password:    "correct horse",
		Avatar:      avatar(),
	}
}

func TestRegister(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	user, err := h.svc.Register(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Handle)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, strings.HasPrefix(user.AvatarURL, "http://media.test/avatars/"+string(user.ID)+"/"))
	assert.Empty(t, user.CoverURL)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	assert.Equal(t, 1, h.media.Len())

	dup := validInput()
	dup.Email = "other@example.com"
	_, err = h.svc.Register(ctx, dup)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "duplicate handle: %v", err)

	dup = validInput()
	dup.Handle = "alice2"
	_, err = h.svc.Register(ctx, dup)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "duplicate email: %v", err)
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness()

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{name: "missing handle", mutate: func(in *RegisterInput) { in.Handle = "" }},
		{name: "missing password", mutate: func(in *RegisterInput) { in.Password = "" }},
		{name: "short password", mutate: func(in *RegisterInput) { in.Password = "short" }},
		{name: "password longer than 72 bytes", mutate: func(in *RegisterInput) { in.Password = strings.Repeat("p", 80) }},
		{name: "bad handle", mutate: func(in *RegisterInput) { in.Handle = "a b" }},
		{name: "bad email", mutate: func(in *RegisterInput) { in.Email = "not-an-email" }},
		{name: "missing avatar", mutate: func(in *RegisterInput) { in.Avatar = nil }},
		{name: "avatar not image", mutate: func(in *RegisterInput) {
			in.Avatar = &Upload{Filename: "x.txt", ContentType: "text/plain", Body: strings.NewReader("x")}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := h.svc.Register(context.Background(), in)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
	assert.Equal(t, 0, h.media.Len())
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	user, err := h.svc.Register(ctx, validInput())
	require.NoError(t, err)
	tokens, err := h.manager.Issue(ctx, user)
	require.NoError(t, err)

	err = h.svc.ChangePassword(ctx, user.ID, "wrong password", "new password!")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = h.svc.ChangePassword(ctx, user.ID, "correct horse", strings.Repeat("p", 80))
	assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)

	require.NoError(t, h.svc.ChangePassword(ctx, user.ID, "correct horse", "new password!"))

	_, err = h.manager.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = h.manager.Authenticate(ctx, "alice", "new password!")
	assert.NoError(t, err)
}

func TestUpdateProfileAndImages(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	user, err := h.svc.Register(ctx, validInput())
	require.NoError(t, err)

	name := "  Alice L.  "
	updated, err := h.svc.UpdateProfile(ctx, user.ID, ProfilePatch{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", updated.DisplayName)

	bad := "nope"
	_, err = h.svc.UpdateProfile(ctx, user.ID, ProfilePatch{Email: &bad})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	withCover, err := h.svc.UpdateCover(ctx, user.ID, &Upload{Filename: "c.jpg", ContentType: "image/jpeg", Body: strings.NewReader("jpg")})
	require.NoError(t, err)
	assert.Contains(t, withCover.CoverURL, "/covers/")

	newAvatar, err := h.svc.UpdateAvatar(ctx, user.ID, avatar())
	require.NoError(t, err)
	assert.NotEqual(t, user.AvatarURL, newAvatar.AvatarURL)

	_, err = h.svc.UpdateAvatar(ctx, user.ID, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	// Image and profile writes leave the password and each other's columns alone.
	stored, err := h.svc.Current(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)
	assert.Equal(t, "Alice L.", stored.DisplayName)
	assert.Equal(t, withCover.CoverURL, stored.CoverURL)
	assert.Equal(t, newAvatar.AvatarURL, stored.AvatarURL)
}

func TestChangePasswordKeepsConcurrentImageUpdate(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	user, err := h.svc.Register(ctx, validInput())
	require.NoError(t, err)

	updated, err := h.svc.UpdateAvatar(ctx, user.ID, avatar())
	require.NoError(t, err)
	require.NoError(t, h.svc.ChangePassword(ctx, user.ID, "correct horse", "new password!"))

	stored, err := h.svc.Current(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.AvatarURL, stored.AvatarURL)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "new password!"))
}

func TestRecordWatch(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	user, err := h.svc.Register(ctx, validInput())
	require.NoError(t, err)
	for _, id := range []models.VideoID{"v1", "v2", "v3"} {
		require.NoError(t, h.store.Videos().Create(ctx, models.Video{ID: id, OwnerID: user.ID, Title: string(id), IsPublished: true}))
		require.NoError(t, h.svc.RecordWatch(ctx, user.ID, id))
	}

	current, err := h.svc.Current(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.VideoID{"v3", "v2"}, current.WatchHistory)

	err = h.svc.RecordWatch(ctx, user.ID, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
