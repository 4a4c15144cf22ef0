package relationships

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type fixture struct {
	store  *repositories.MemoryStore
	engine *Engine
	alice  models.User
	bob    models.User
	video  models.Video
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	now := time.Now().UTC()

	f := fixture{store: store}
	for _, handle := range []string{"alice", "bob"} {
		user := models.User{
			ID:        models.UserID("id-" + handle),
			Handle:    handle,
			Email:     handle + "@example.com",
			AvatarURL: "https://cdn.example.com/" + handle + ".png",
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, store.Users().Create(ctx, user))
		if handle == "alice" {
			f.alice = user
		} else {
			f.bob = user
		}
	}

	f.video = models.Video{ID: "v1", OwnerID: f.alice.ID, Title: "First", IsPublished: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.Videos().Create(ctx, f.video))

	f.engine = NewEngine(store.Users(), store.Videos(), store.Comments(), store.Likes(), store.Subscriptions())
	return f
}

func TestToggleLikeIsSelfInverse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	target := models.LikeTarget{Kind: models.TargetVideo, ID: string(f.video.ID)}

	first, err := f.engine.ToggleLike(ctx, f.alice.ID, target)
	require.NoError(t, err)
	assert.True(t, first.Active)

	status, err := f.engine.LikeStatus(ctx, f.alice.ID, target)
	require.NoError(t, err)
	assert.Equal(t, models.LikeStatus{IsLiked: true, LikeCount: 1}, status)

	second, err := f.engine.ToggleLike(ctx, f.alice.ID, target)
	require.NoError(t, err)
	assert.False(t, second.Active)

	status, err = f.engine.LikeStatus(ctx, f.alice.ID, target)
	require.NoError(t, err)
	assert.Equal(t, models.LikeStatus{IsLiked: false, LikeCount: 0}, status)
}

func TestToggleLikeTargets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name   string
		target models.LikeTarget
		kind   apperr.Kind
	}{
		{name: "missing video", target: models.LikeTarget{Kind: models.TargetVideo, ID: "nope"}, kind: apperr.KindNotFound},
		{name: "missing comment", target: models.LikeTarget{Kind: models.TargetComment, ID: "nope"}, kind: apperr.KindNotFound},
		{name: "empty id", target: models.LikeTarget{Kind: models.TargetVideo}, kind: apperr.KindValidation},
		{name: "unknown kind", target: models.LikeTarget{Kind: "playlist", ID: "x"}, kind: apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.ToggleLike(ctx, f.alice.ID, tt.target)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}

	// Tweets are opaque references.
	result, err := f.engine.ToggleLike(ctx, f.alice.ID, models.LikeTarget{Kind: models.TargetTweet, ID: "tweet-1"})
	require.NoError(t, err)
	assert.True(t, result.Active)

	// Liking your own video is allowed.
	result, err = f.engine.ToggleLike(ctx, f.alice.ID, models.LikeTarget{Kind: models.TargetVideo, ID: string(f.video.ID)})
	require.NoError(t, err)
	assert.True(t, result.Active)
}

func TestToggleLikeSameIDDifferentKinds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.ToggleLike(ctx, f.bob.ID, models.LikeTarget{Kind: models.TargetVideo, ID: "v1"})
	require.NoError(t, err)
	_, err = f.engine.ToggleLike(ctx, f.bob.ID, models.LikeTarget{Kind: models.TargetTweet, ID: "v1"})
	require.NoError(t, err)

	count, err := f.store.Likes().CountByLiker(ctx, f.bob.ID, models.TargetVideo)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	count, err = f.store.Likes().CountByLiker(ctx, f.bob.ID, models.TargetTweet)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestConcurrentTogglesNeverDuplicateEdges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	target := models.LikeTarget{Kind: models.TargetVideo, ID: string(f.video.ID)}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.engine.ToggleLike(ctx, f.bob.ID, target)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.engine.ToggleSubscription(ctx, f.bob.ID, f.alice.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	likes, err := f.store.Likes().CountForTarget(ctx, target)
	require.NoError(t, err)
	assert.LessOrEqual(t, likes, int64(1))

	subs, err := f.store.Subscriptions().CountSubscribers(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, subs, int64(1))
}

func TestToggleTreatsCreateConflictAsActive(t *testing.T) {
	calls := 0
	result, err := toggle(context.Background(), edgeOps{
		find: func(context.Context) (string, error) { return "", repositories.ErrNotFound },
		create: func(context.Context) error {
			calls++
			return repositories.ErrConflict
		},
		delete: func(context.Context, string) error { t.Fatal("unexpected delete"); return nil },
	})
	require.NoError(t, err)
	assert.True(t, result.Active)
	assert.Equal(t, 1, calls)

	result, err = toggle(context.Background(), edgeOps{
		find:   func(context.Context) (string, error) { return "edge-1", nil },
		create: func(context.Context) error { t.Fatal("unexpected create"); return nil },
		delete: func(context.Context, string) error { return repositories.ErrNotFound },
	})
	require.NoError(t, err)
	assert.False(t, result.Active)
}

func TestToggleSubscription(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	result, err := f.engine.ToggleSubscription(ctx, f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.True(t, result.Active)

	count, err := f.store.Subscriptions().CountSubscribers(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	result, err = f.engine.ToggleSubscription(ctx, f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.False(t, result.Active)

	_, err = f.engine.ToggleSubscription(ctx, f.alice.ID, f.alice.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "self-subscription is rejected")

	_, err = f.engine.ToggleSubscription(ctx, f.bob.ID, "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
