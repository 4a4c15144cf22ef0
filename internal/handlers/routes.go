package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clipstream/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Logger        *slog.Logger
	Sessions      SessionManager
	Accounts      AccountService
	Relationships RelationshipEngine
	Views         ViewBuilder
	Videos        VideoService
	Comments      CommentService
	Playlists     PlaylistService
	// Limiter throttles register, login and refresh. Nil disables throttling.
	Limiter middleware.RateLimiter
	// TrustForwardedFor keys the limiter on X-Forwarded-For. Enable only behind a
	// proxy that overwrites the header.
	TrustForwardedFor bool
	Health            Pinger
	SecureCookies     bool
}

// NewRouter wires every endpoint under /api/v1 plus /healthz and /metrics.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authn := Authenticator{Sessions: deps.Sessions}
	health := HealthHandler{DB: deps.Health}
	authH := AuthHandler{Accounts: deps.Accounts, Sessions: deps.Sessions, SecureCookies: deps.SecureCookies}
	rel := RelationshipHandler{Engine: deps.Relationships}
	channels := ChannelHandler{Views: deps.Views}
	me := MeHandler{Accounts: deps.Accounts, Views: deps.Views, SecureCookies: deps.SecureCookies}
	videos := VideoHandler{Videos: deps.Videos, Views: deps.Views}
	comments := CommentHandler{Comments: deps.Comments, Views: deps.Views}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Views: deps.Views}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger), middleware.Metrics)

	r.Get("/healthz", health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.Limit(deps.Limiter, "register", deps.TrustForwardedFor)).Post("/register", authH.Register)
			r.With(middleware.Limit(deps.Limiter, "login", deps.TrustForwardedFor)).Post("/login", authH.Login)
			r.With(middleware.Limit(deps.Limiter, "refresh", deps.TrustForwardedFor)).Post("/refresh", authH.Refresh)
			r.With(authn.RequireAuth).Post("/logout", authH.Logout)
		})

		// Public reads; the caller, when present, affects visibility and flags.
		r.Group(func(r chi.Router) {
			r.Use(authn.OptionalAuth)
			r.Get("/channels/{handle}", channels.Profile)
			r.Get("/channels/{handle}/subscribers", channels.Subscribers)
			r.Get("/relationships/likes/{kind}/{targetId}", rel.LikeStatus)
			r.Get("/videos", videos.List)
			r.Get("/videos/{videoId}", videos.Get)
			r.Get("/videos/{videoId}/comments", comments.List)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn.RequireAuth)

			r.Post("/relationships/subscriptions/{channelId}", rel.ToggleSubscription)
			r.Post("/relationships/likes/{kind}/{targetId}", rel.ToggleLike)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", me.Current)
				r.Patch("/", me.Update)
				r.Post("/password", me.ChangePassword)
				r.Patch("/avatar", me.UpdateAvatar)
				r.Patch("/cover", me.UpdateCover)
				r.Get("/watch-history", me.WatchHistory)
				r.Post("/watch-history", me.RecordWatch)
				r.Get("/liked-videos", me.LikedVideos)
				r.Get("/subscriptions", me.Subscriptions)
			})

			r.Post("/videos", videos.Create)
			r.Patch("/videos/{videoId}", videos.Update)
			r.Delete("/videos/{videoId}", videos.Delete)
			r.Post("/videos/{videoId}/comments", comments.Add)

			r.Patch("/comments/{commentId}", comments.Update)
			r.Delete("/comments/{commentId}", comments.Delete)

			r.Get("/playlists", playlists.Mine)
			r.Get("/playlists/{playlistId}", playlists.Get)
			r.Get("/users/{userId}/playlists", playlists.ForUser)
			r.Post("/playlists", playlists.Create)
			r.Patch("/playlists/{playlistId}", playlists.Update)
			r.Delete("/playlists/{playlistId}", playlists.Delete)
			r.Post("/playlists/{playlistId}/videos/{videoId}", playlists.AddVideo)
			r.Delete("/playlists/{playlistId}/videos/{videoId}", playlists.RemoveVideo)
		})
	})

	return r
}
