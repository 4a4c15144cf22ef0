package views

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/relationships"
	"github.com/clipstream/backend/internal/repositories"
)

type fixture struct {
	store   *repositories.MemoryStore
	builder *Builder
	engine  *relationships.Engine
	alice   models.User
	bob     models.User
	videos  []models.Video
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	newUser := func(handle string) models.User {
		u := models.User{
			ID:          models.UserID("id-" + handle),
			Handle:      handle,
			Email:       handle + "@example.com",
			DisplayName: "Display " + handle,
			AvatarURL:   "https://cdn.example.com/" + handle + ".png",
			CreatedAt:   base,
			UpdatedAt:   base,
		}
		require.NoError(t, store.Users().Create(ctx, u))
		return u
	}

	f := fixture{store: store, alice: newUser("alice"), bob: newUser("bob")}
	for i, title := range []string{"v1", "v2", "v3"} {
		v := models.Video{
			ID:          models.VideoID(title),
			OwnerID:     f.alice.ID,
			Title:       title,
			VideoURL:    "https://cdn.example.com/" + title + ".mp4",
			IsPublished: true,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:   base,
		}
		require.NoError(t, store.Videos().Create(ctx, v))
		f.videos = append(f.videos, v)
	}

	f.builder = NewBuilder(store.Users(), store.Videos(), store.Playlists(), store.Comments(), store.Likes(), store.Subscriptions())
	f.engine = relationships.NewEngine(store.Users(), store.Videos(), store.Comments(), store.Likes(), store.Subscriptions())
	return f
}

func TestChannelProfileSubscriptionScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	result, err := f.engine.ToggleSubscription(ctx, f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	require.True(t, result.Active)

	profile, err := f.builder.ChannelProfile(ctx, f.bob.ID, "alice")
	require.NoError(t, err)
	assert.True(t, profile.IsSubscribed)
	assert.EqualValues(t, 1, profile.SubscribersCount)
	assert.EqualValues(t, 0, profile.SubscribedToCount)

	anonymous, err := f.builder.ChannelProfile(ctx, "", "ALICE")
	require.NoError(t, err)
	assert.False(t, anonymous.IsSubscribed)
	assert.EqualValues(t, 1, anonymous.SubscribersCount)

	bobProfile, err := f.builder.ChannelProfile(ctx, f.alice.ID, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 1, bobProfile.SubscribedToCount)
	assert.False(t, bobProfile.IsSubscribed)

	_, err = f.builder.ChannelProfile(ctx, "", "nobody")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	subscribers, err := f.builder.Subscribers(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, subscribers, 1)
	assert.Equal(t, f.bob.ID, subscribers[0].Channel.ID)

	subscriptions, err := f.builder.Subscriptions(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, subscriptions, 1)
	assert.Equal(t, "alice", subscriptions[0].Channel.Handle)
}

func TestWatchHistorySkipsDeletedVideos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, v := range f.videos {
		require.NoError(t, f.store.Users().PushWatchHistory(ctx, f.bob.ID, v.ID, 10))
	}
	require.NoError(t, f.store.Videos().Delete(ctx, "v2"))

	history, err := f.builder.WatchHistory(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.VideoID("v3"), history[0].ID)
	assert.Equal(t, models.VideoID("v1"), history[1].ID)
	assert.Equal(t, models.OwnerSummary{
		ID:          f.alice.ID,
		Handle:      "alice",
		DisplayName: "Display alice",
		AvatarURL:   "https://cdn.example.com/alice.png",
	}, history[0].Owner)
}

func TestLikedVideosPaginatesWithStableTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, v := range f.videos {
		_, err := f.engine.ToggleLike(ctx, f.bob.ID, models.LikeTarget{Kind: models.TargetVideo, ID: string(v.ID)})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}
	_, err := f.engine.ToggleLike(ctx, f.bob.ID, models.LikeTarget{Kind: models.TargetTweet, ID: "t1"})
	require.NoError(t, err)

	first, err := f.builder.LikedVideos(ctx, f.bob.ID, models.PageRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, first.TotalCount)
	assert.Equal(t, 2, first.TotalPages)
	require.Len(t, first.Videos, 2)
	assert.Equal(t, models.VideoID("v3"), first.Videos[0].ID)

	second, err := f.builder.LikedVideos(ctx, f.bob.ID, models.PageRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, second.Videos, 1)
	assert.Equal(t, models.VideoID("v1"), second.Videos[0].ID)

	require.NoError(t, f.store.Videos().Delete(ctx, "v3"))
	first, err = f.builder.LikedVideos(ctx, f.bob.ID, models.PageRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, first.TotalCount)
	require.Len(t, first.Videos, 1)
	assert.Equal(t, models.VideoID("v2"), first.Videos[0].ID)
}

func TestPlaylistDetailPreservesOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	playlist := models.Playlist{ID: "p1", OwnerID: f.bob.ID, Name: "Mix", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	require.NoError(t, f.store.Playlists().Create(ctx, playlist))
	for _, id := range []models.VideoID{"v3", "v1", "v2"} {
		_, err := f.store.Playlists().AddVideo(ctx, playlist.ID, id)
		require.NoError(t, err)
	}
	require.NoError(t, f.store.Videos().Delete(ctx, "v1"))

	detail, err := f.builder.PlaylistDetail(ctx, "", playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", detail.Owner.Handle)
	require.Len(t, detail.Videos, 2)
	assert.Equal(t, models.VideoID("v3"), detail.Videos[0].ID)
	assert.Equal(t, models.VideoID("v2"), detail.Videos[1].ID)

	_, err = f.builder.PlaylistDetail(ctx, "", "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCommentsPage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	base := time.Now().UTC()
	for i, author := range []models.UserID{f.alice.ID, f.bob.ID, f.bob.ID} {
		require.NoError(t, f.store.Comments().Create(ctx, models.Comment{
			ID:        models.CommentID("c" + string(rune('1'+i))),
			VideoID:   "v1",
			OwnerID:   author,
			Content:   "hello",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base,
		}))
	}

	page, err := f.builder.Comments(ctx, "", "v1", models.PageRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.TotalCount)
	require.Len(t, page.Comments, 2)
	assert.Equal(t, models.CommentID("c3"), page.Comments[0].ID)
	assert.Equal(t, "bob", page.Comments[0].Owner.Handle)

	_, err = f.builder.Comments(ctx, "", "missing", models.PageRequest{Page: 1, Limit: 2})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCommentsOnDraftVisibleOnlyToOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.store.Videos().Create(ctx, models.Video{
		ID:        "draft",
		OwnerID:   f.alice.ID,
		Title:     "draft",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}))
	require.NoError(t, f.store.Comments().Create(ctx, models.Comment{
		ID:        "c-draft",
		VideoID:   "draft",
		OwnerID:   f.alice.ID,
		Content:   "note to self",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}))

	page := models.PageRequest{Page: 1, Limit: 10}
	for _, viewer := range []models.UserID{"", f.bob.ID} {
		_, err := f.builder.Comments(ctx, viewer, "draft", page)
		assert.True(t, apperr.Is(err, apperr.KindNotFound), "viewer %q: %v", viewer, err)
	}

	own, err := f.builder.Comments(ctx, f.alice.ID, "draft", page)
	require.NoError(t, err)
	require.Len(t, own.Comments, 1)
	assert.Equal(t, models.CommentID("c-draft"), own.Comments[0].ID)
}

func TestPublishedVideosHidesDrafts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	draft := f.videos[0]
	draft.IsPublished = false
	require.NoError(t, f.store.Videos().Update(ctx, draft))

	page, err := f.builder.PublishedVideos(ctx, models.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalCount)
	for _, v := range page.Videos {
		assert.NotEqual(t, draft.ID, v.ID)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, totalPages(0, 10))
	assert.Equal(t, 1, totalPages(10, 10))
	assert.Equal(t, 2, totalPages(11, 10))
	assert.Equal(t, 0, totalPages(5, 0))
}
