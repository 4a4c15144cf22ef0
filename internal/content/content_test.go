package content

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type services struct {
	store     *repositories.MemoryStore
	videos    *Videos
	playlists *Playlists
	comments  *Comments
}

const (
	alice models.UserID = "user-alice"
	bob   models.UserID = "user-bob"
)

func newServices(t *testing.T) services {
	t.Helper()
	store := repositories.NewMemoryStore()
	for _, id := range []models.UserID{alice, bob} {
		require.NoError(t, store.Users().Create(context.Background(), models.User{
			ID:     id,
			Handle: string(id),
			Email:  string(id) + "@example.com",
		}))
	}
	return services{
		store:     store,
		videos:    NewVideos(store.Videos(), store.Users(), 3),
		playlists: NewPlaylists(store.Playlists(), store.Videos()),
		comments:  NewComments(store.Comments(), store.Videos()),
	}
}

func ptr[T any](v T) *T { return &v }

func TestVideosCreateValidation(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   VideoInput
	}{
		{name: "missing title", in: VideoInput{VideoURL: "https://cdn/v.mp4"}},
		{name: "blank title", in: VideoInput{Title: "  ", VideoURL: "https://cdn/v.mp4"}},
		{name: "missing url", in: VideoInput{Title: "Hello"}},
		{name: "negative duration", in: VideoInput{Title: "Hello", VideoURL: "https://cdn/v.mp4", Duration: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.videos.Create(ctx, alice, tt.in)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
}

func TestVideosGetCountsViewsAndRecordsHistory(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	var ids []models.VideoID
	for _, title := range []string{"one", "two", "three", "four"} {
		v, err := s.videos.Create(ctx, alice, VideoInput{Title: title, VideoURL: "https://cdn/" + title})
		require.NoError(t, err)
		ids = append(ids, v.ID)
	}

	for _, id := range ids {
		_, err := s.videos.Get(ctx, bob, id)
		require.NoError(t, err)
	}
	summary, err := s.videos.Get(ctx, bob, ids[1])
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.Views)
	assert.Equal(t, alice, summary.Owner.ID)

	user, err := s.store.Users().FindByID(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, []models.VideoID{ids[1], ids[3], ids[2]}, user.WatchHistory)

	// Anonymous views count but record nothing.
	summary, err = s.videos.Get(ctx, "", ids[0])
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.Views)
}

func TestVideosUnpublishedVisibleOnlyToOwner(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	v, err := s.videos.Create(ctx, alice, VideoInput{Title: "draft", VideoURL: "https://cdn/d", IsPublished: ptr(false)})
	require.NoError(t, err)

	_, err = s.videos.Get(ctx, bob, v.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = s.videos.Get(ctx, alice, v.ID)
	assert.NoError(t, err)
}

func TestNonOwnerMutationsAreForbiddenAndLeaveStateUnchanged(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	video, err := s.videos.Create(ctx, alice, VideoInput{Title: "mine", VideoURL: "https://cdn/m"})
	require.NoError(t, err)
	playlist, err := s.playlists.Create(ctx, alice, "Favorites", "")
	require.NoError(t, err)
	comment, err := s.comments.Add(ctx, alice, video.ID, "first!")
	require.NoError(t, err)

	patches := []VideoPatch{
		{},
		{Title: ptr("stolen")},
		{Description: ptr("x"), IsPublished: ptr(false)},
		{ThumbnailURL: ptr("https://evil/thumb.png")},
	}
	for _, patch := range patches {
		_, err := s.videos.Update(ctx, bob, video.ID, patch)
		assert.True(t, apperr.Is(err, apperr.KindAuthorization), "got %v", err)
	}
	assert.True(t, apperr.Is(s.videos.Delete(ctx, bob, video.ID), apperr.KindAuthorization))

	playlistPatches := []PlaylistPatch{{}, {Name: ptr("Mine now")}, {Description: ptr("x")}}
	for _, patch := range playlistPatches {
		_, err := s.playlists.Update(ctx, bob, playlist.ID, patch)
		assert.True(t, apperr.Is(err, apperr.KindAuthorization), "got %v", err)
	}
	_, err = s.playlists.AddVideo(ctx, bob, playlist.ID, video.ID)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	_, err = s.playlists.RemoveVideo(ctx, bob, playlist.ID, video.ID)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	assert.True(t, apperr.Is(s.playlists.Delete(ctx, bob, playlist.ID), apperr.KindAuthorization))

	_, err = s.comments.Update(ctx, bob, comment.ID, "edited")
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	assert.True(t, apperr.Is(s.comments.Delete(ctx, bob, comment.ID), apperr.KindAuthorization))

	storedVideo, err := s.store.Videos().FindByID(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, video, storedVideo)

	storedPlaylist, err := s.store.Playlists().FindByID(ctx, playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, playlist, storedPlaylist)

	storedComment, err := s.store.Comments().FindByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, comment, storedComment)
}

func TestMutationsOnMissingAggregatesAreNotFound(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	_, err := s.videos.Update(ctx, alice, "missing", VideoPatch{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = s.playlists.Update(ctx, alice, "missing", PlaylistPatch{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = s.comments.Update(ctx, alice, "missing", "x")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = s.comments.Add(ctx, alice, "missing", "x")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPlaylistAddRemoveRoundTrip(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	video, err := s.videos.Create(ctx, bob, VideoInput{Title: "clip", VideoURL: "https://cdn/c"})
	require.NoError(t, err)
	playlist, err := s.playlists.Create(ctx, alice, "Watch later", "")
	require.NoError(t, err)
	before := playlist.VideoIDs

	added, err := s.playlists.AddVideo(ctx, alice, playlist.ID, video.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.VideoID{video.ID}, added.VideoIDs)

	_, err = s.playlists.AddVideo(ctx, alice, playlist.ID, video.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	removed, err := s.playlists.RemoveVideo(ctx, alice, playlist.ID, video.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, before, removed.VideoIDs)

	_, err = s.playlists.RemoveVideo(ctx, alice, playlist.ID, video.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = s.playlists.AddVideo(ctx, alice, playlist.ID, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPlaylistNamesAreUniquePerOwner(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	_, err := s.playlists.Create(ctx, alice, "Favorites", "")
	require.NoError(t, err)

	_, err = s.playlists.Create(ctx, alice, "Favorites", "again")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = s.playlists.Create(ctx, bob, "Favorites", "")
	assert.NoError(t, err, "another owner may reuse the name")

	other, err := s.playlists.Create(ctx, alice, "Later", "")
	require.NoError(t, err)
	_, err = s.playlists.Update(ctx, alice, other.ID, PlaylistPatch{Name: ptr("Favorites")})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = s.playlists.Create(ctx, alice, "   ", "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCommentsLifecycle(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	video, err := s.videos.Create(ctx, alice, VideoInput{Title: "clip", VideoURL: "https://cdn/c"})
	require.NoError(t, err)

	_, err = s.comments.Add(ctx, bob, video.ID, "   ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	comment, err := s.comments.Add(ctx, bob, video.ID, "nice")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	updated, err := s.comments.Update(ctx, bob, comment.ID, "very nice")
	require.NoError(t, err)
	assert.Equal(t, "very nice", updated.Content)
	assert.True(t, updated.UpdatedAt.After(comment.UpdatedAt))

	require.NoError(t, s.comments.Delete(ctx, bob, comment.ID))
	_, err = s.store.Comments().FindByID(ctx, comment.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
