package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	auth := ActorResolver{Tokens: deps.Tokens, Users: deps.Users}

	health := HealthHandler{}
	users := UserHandler{
		Users:        deps.Users,
		Tokens:       deps.Tokens,
		Social:       deps.Social,
		Storage:      deps.Storage,
		Janitor:      deps.Janitor,
		Auth:         auth,
		LoginLimiter: deps.LoginLimiter,
	}
	videos := VideoHandler{Videos: deps.Videos, Storage: deps.Storage, Janitor: deps.Janitor, Auth: auth}
	comments := CommentHandler{Comments: deps.Comments, Auth: auth}
	likes := LikeHandler{Social: deps.Social, Auth: auth}
	subscriptions := SubscriptionHandler{Social: deps.Social, Auth: auth}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Auth: auth}
	tweets := TweetHandler{Tweets: deps.Tweets, Auth: auth}

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("/api/v1/users/register", users.Register)
	mux.HandleFunc("/api/v1/users/login", users.Login)
	mux.HandleFunc("/api/v1/users/logout", users.Logout)
	mux.HandleFunc("/api/v1/users/refresh-token", users.Refresh)
	mux.HandleFunc("/api/v1/users/change-password", users.ChangePassword)
	mux.HandleFunc("/api/v1/users/me", users.Account)
	mux.HandleFunc("/api/v1/users/me/avatar", users.Avatar)
	mux.HandleFunc("/api/v1/users/me/cover-image", users.CoverImage)
	mux.HandleFunc("/api/v1/users/history", users.History)
	mux.HandleFunc("/api/v1/users/c/{username}", users.Channel)

	mux.HandleFunc("/api/v1/videos", videos.Collection)
	mux.HandleFunc("/api/v1/videos/{id}", videos.Item)
	mux.HandleFunc("/api/v1/videos/{id}/toggle-publish", videos.TogglePublish)

	mux.HandleFunc("/api/v1/videos/{id}/comments", comments.VideoThread)
	mux.HandleFunc("/api/v1/comments/{id}", comments.Item)
	mux.HandleFunc("/api/v1/comments/{id}/replies", comments.Reply)

	mux.HandleFunc("/api/v1/likes/toggle/v/{id}", likes.ToggleVideo)
	mux.HandleFunc("/api/v1/likes/toggle/c/{id}", likes.ToggleComment)
	mux.HandleFunc("/api/v1/likes/toggle/t/{id}", likes.ToggleTweet)
	mux.HandleFunc("/api/v1/likes/videos", likes.LikedVideos)
	mux.HandleFunc("/api/v1/likes/tweets", likes.LikedTweets)

	mux.HandleFunc("/api/v1/subscriptions", subscriptions.Subscribed)
	mux.HandleFunc("/api/v1/subscriptions/{channelId}", subscriptions.Channel)
	mux.HandleFunc("/api/v1/subscriptions/{channelId}/subscribers", subscriptions.Subscribers)

	mux.HandleFunc("/api/v1/playlists", playlists.Collection)
	mux.HandleFunc("/api/v1/playlists/{id}", playlists.Item)
	mux.HandleFunc("/api/v1/playlists/{id}/videos/{videoId}", playlists.Video)

	mux.HandleFunc("/api/v1/tweets", tweets.Collection)
	mux.HandleFunc("/api/v1/tweets/{id}", tweets.Item)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users        UserStore
	Tokens       TokenManager
	Videos       VideoStore
	Comments     CommentService
	Social       SocialReader
	Playlists    PlaylistStore
	Tweets       TweetStore
	Storage      AssetStorage
	Janitor      AssetJanitor
	LoginLimiter RateLimiter
}
