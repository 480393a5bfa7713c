package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Verifier      AccessVerifier
	Media         MediaService
	Videos        VideoStore
	Comments      CommentStore
	Likes         LikeStore
	Playlists     PlaylistStore
	Subscriptions SubscriptionStore
	Tweets        TweetStore
	TempDir       string
	BcryptCost    int
	CORSOrigin    string
}

// NewRouter builds the API router. Everything under /api/v1 except
// healthcheck, register, login and refresh-token requires an access token.
func NewRouter(deps Dependencies) http.Handler {
	health := HealthHandler{}
	users := UserHandler{
		Users:      deps.Users,
		Sessions:   deps.Sessions,
		Media:      deps.Media,
		TempDir:    deps.TempDir,
		BcryptCost: deps.BcryptCost,
	}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Media: deps.Media, TempDir: deps.TempDir}
	comments := CommentHandler{Comments: deps.Comments}
	likes := LikeHandler{Likes: deps.Likes}
	playlists := PlaylistHandler{Playlists: deps.Playlists}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions}
	tweets := TweetHandler{Tweets: deps.Tweets}

	requireAuth := RequireAuth(deps.Users, deps.Verifier)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{deps.CORSOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", health.Handle)

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", users.Register)
			r.Post("/login", users.Login)
			r.Post("/refresh-token", users.RefreshToken)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", users.Logout)
				r.Post("/change-password", users.ChangePassword)
				r.Get("/current-user", users.CurrentUser)
				r.Patch("/update-account", users.UpdateAccount)
				r.Patch("/avatar", users.UpdateAvatar)
				r.Patch("/cover-image", users.UpdateCoverImage)
				r.Get("/c/{username}", users.Channel)
				r.Get("/history", users.WatchHistory)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", videos.List)
			r.Post("/", videos.Publish)
			r.Get("/{videoId}", videos.Get)
			r.Patch("/{videoId}", videos.Update)
			r.Delete("/{videoId}", videos.Delete)
			r.Patch("/toggle/publish/{videoId}", videos.TogglePublish)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/{videoId}", comments.List)
			r.Post("/{videoId}", comments.Add)
			r.Patch("/c/{commentId}", comments.Update)
			r.Delete("/c/{commentId}", comments.Delete)
		})

		r.Route("/likes", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/toggle/v/{videoId}", likes.ToggleVideo)
			r.Post("/toggle/c/{commentId}", likes.ToggleComment)
			r.Post("/toggle/t/{tweetId}", likes.ToggleTweet)
			r.Get("/videos", likes.Videos)
		})

		r.Route("/playlists", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", playlists.Create)
			r.Get("/{playlistId}", playlists.Get)
			r.Patch("/{playlistId}", playlists.Update)
			r.Delete("/{playlistId}", playlists.Delete)
			r.Patch("/add/{videoId}/{playlistId}", playlists.AddVideo)
			r.Patch("/remove/{videoId}/{playlistId}", playlists.RemoveVideo)
			r.Get("/user/{userId}", playlists.ListForUser)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/c/{channelId}", subscriptions.Toggle)
			r.Get("/c/{channelId}", subscriptions.Subscribers)
			r.Get("/u/{subscriberId}", subscriptions.SubscribedChannels)
		})

		r.Route("/tweets", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", tweets.Create)
			r.Get("/user/{userId}", tweets.ListForUser)
			r.Patch("/{tweetId}", tweets.Update)
			r.Delete("/{tweetId}", tweets.Delete)
		})
	})

	return r
}
