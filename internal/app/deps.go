package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clipstream/backend/internal/accounts"
	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/content"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/relationships"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/storage"
	"github.com/clipstream/backend/internal/views"
)

const memoryMediaBaseURL = "memory://media"

// backend bundles the repositories of one storage driver.
type backend struct {
	users         repositories.UserRepository
	videos        repositories.VideoRepository
	playlists     repositories.PlaylistRepository
	comments      repositories.CommentRepository
	likes         repositories.LikeRepository
	subscriptions repositories.SubscriptionRepository
	health        handlers.Pinger
	close         func()
}

func openBackend(ctx context.Context, cfg config.Config) (backend, error) {
	switch cfg.Database.Driver {
	case "memory":
		slog.Warn("using in-memory storage; data is lost on restart")
		return memoryBackend(), nil
	case "postgres":
		pool, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return backend{}, err
		}
		b := postgresBackend(pool)
		b.health = pool
		return b, nil
	default:
		return backend{}, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func memoryBackend() backend {
	store := repositories.NewMemoryStore()
	return backend{
		users:         store.Users(),
		videos:        store.Videos(),
		playlists:     store.Playlists(),
		comments:      store.Comments(),
		likes:         store.Likes(),
		subscriptions: store.Subscriptions(),
		close:         func() {},
	}
}

func postgresBackend(pool db.Pool) backend {
	return backend{
		users:         repositories.NewPostgresUserRepository(pool),
		videos:        repositories.NewPostgresVideoRepository(pool),
		playlists:     repositories.NewPostgresPlaylistRepository(pool),
		comments:      repositories.NewPostgresCommentRepository(pool),
		likes:         repositories.NewPostgresLikeRepository(pool),
		subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		close:         pool.Close,
	}
}

// newMediaStorage uploads to S3 when a bucket is configured and keeps media in
// memory otherwise.
func newMediaStorage(ctx context.Context, cfg config.Config) (storage.MediaStorage, error) {
	if cfg.ObjectStore.Bucket == "" {
		return storage.NewMemoryStorage(memoryMediaBaseURL), nil
	}
	s3, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return nil, fmt.Errorf("configure object storage: %w", err)
	}
	return s3, nil
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(b backend, media storage.MediaStorage, cfg config.Config, logger *slog.Logger) handlers.Dependencies {
	manager := auth.NewManager(auth.Config{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	}, b.users)

	deps := handlers.Dependencies{
		Logger:        logger,
		Sessions:      manager,
		Accounts:      accounts.NewService(b.users, b.videos, media, manager, cfg.HistoryLimit),
		Relationships: relationships.NewEngine(b.users, b.videos, b.comments, b.likes, b.subscriptions),
		Views:         views.NewBuilder(b.users, b.videos, b.playlists, b.comments, b.likes, b.subscriptions),
		Videos:        content.NewVideos(b.videos, b.users, cfg.HistoryLimit),
		Comments:      content.NewComments(b.comments, b.videos),
		Playlists:     content.NewPlaylists(b.playlists, b.videos),
		Limiter:       middleware.NewIPRateLimiter(cfg.RateLimit),
		SecureCookies: cfg.Auth.SecureCookies,

		TrustForwardedFor: cfg.RateLimit.TrustForwardedFor,
	}
	if b.health != nil {
		deps.Health = b.health
	}
	return deps
}
