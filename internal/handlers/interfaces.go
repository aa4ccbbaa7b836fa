package handlers

import (
	"context"
	"io"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/comments"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/social"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, usernameOrEmail string) (models.User, error)
	UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRefreshToken(ctx context.Context, id, refreshToken string) error
	UpdateAvatar(ctx context.Context, id string, avatar models.MediaAsset) (models.User, error)
	UpdateCoverImage(ctx context.Context, id string, cover models.MediaAsset) (models.User, error)
	AppendWatchHistory(ctx context.Context, id, videoID string) error
}

// TokenManager issues and verifies the bearer credentials used by the API.
type TokenManager interface {
	Issue(user models.User) (models.TokenPair, error)
	VerifyAccess(token string) (auth.AccessClaims, error)
	VerifyRefresh(token string) (string, error)
}

// VideoStore captures persistence for uploaded videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	Find(ctx context.Context, id string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	UpdateDetails(ctx context.Context, id, title, description string, thumbnail *models.MediaAsset) (models.Video, error)
	TogglePublished(ctx context.Context, id string) (models.Video, error)
	Delete(ctx context.Context, id string) (models.Video, error)
}

// CommentService manages comment trees on videos.
type CommentService interface {
	Post(ctx context.Context, videoID, authorID, content string) (models.Comment, error)
	Reply(ctx context.Context, parentID, authorID, content string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Thread(ctx context.Context, videoID string) ([]comments.Node, error)
	Delete(ctx context.Context, id string) (int, error)
}

// SocialReader answers like, subscription, and watch-history queries.
type SocialReader interface {
	ToggleLike(ctx context.Context, actorID string, target models.LikeTarget) (models.Like, error)
	LikedVideos(ctx context.Context, actorID string) ([]social.LikedVideo, error)
	LikedTweets(ctx context.Context, actorID string) ([]social.LikedTweet, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (social.ChannelProfile, error)
	WatchHistory(ctx context.Context, actorID string) ([]models.WatchHistoryEntry, error)
	Subscribe(ctx context.Context, subscriberID, channelID string) (models.Subscription, error)
	Unsubscribe(ctx context.Context, subscriberID, channelID string) error
	Subscribers(ctx context.Context, channelID string) ([]social.SubscriberInfo, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.Subscription, error)
}

// PlaylistStore captures persistence for playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	Find(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, playlist models.Playlist) (models.Playlist, error)
	AddVideos(ctx context.Context, id string, videoIDs []string) (models.Playlist, error)
	RemoveVideo(ctx context.Context, id, videoID string) (models.Playlist, error)
	Delete(ctx context.Context, id string) (models.Playlist, error)
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	Find(ctx context.Context, id string) (models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string) (models.Tweet, error)
	Delete(ctx context.Context, id string) (models.Tweet, error)
}

// AssetStorage uploads media files to the object store.
type AssetStorage interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (models.MediaAsset, error)
}

// AssetJanitor schedules background deletion of replaced media assets.
type AssetJanitor interface {
	Enqueue(ctx context.Context, key string) error
}
