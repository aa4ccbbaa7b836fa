// Package social answers derived social-graph questions (subscriber
// counts, liked-item lists, channel profiles, watch history) by
// joining normalized collections at read time. No denormalized
// counters are maintained anywhere.
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
)

var (
	// ErrMissingActor indicates an operation invoked without an actor id.
	ErrMissingActor = errors.New("actor id is required")
	// ErrMissingTarget indicates an operation invoked without its target.
	ErrMissingTarget = errors.New("target is required")
	// ErrInvalidTargetKind indicates a like against an unknown target kind.
	ErrInvalidTargetKind = errors.New("invalid like target kind")
)

// LikeStore captures like persistence as needed by the reader.
type LikeStore interface {
	Toggle(ctx context.Context, actorID string, target models.LikeTarget) (models.Like, error)
	ListByActor(ctx context.Context, actorID string, kind models.LikeTargetKind) ([]models.Like, error)
}

// SubscriptionStore captures subscription-edge persistence.
type SubscriptionStore interface {
	Create(ctx context.Context, sub models.Subscription) error
	DeleteByPair(ctx context.Context, subscriberID, channelID string) error
	ListByChannel(ctx context.Context, channelID string) ([]models.Subscription, error)
	ListBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error)
}

// UserStore captures the user lookups the reader performs.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	Summaries(ctx context.Context, ids []string) (map[string]models.OwnerSummary, error)
	WatchHistory(ctx context.Context, id string) ([]models.WatchHistoryEntry, error)
}

// VideoStore resolves video ids into documents.
type VideoStore interface {
	FindMany(ctx context.Context, ids []string) ([]models.Video, error)
}

// TweetStore resolves tweet ids into documents.
type TweetStore interface {
	FindMany(ctx context.Context, ids []string) ([]models.Tweet, error)
}

// ChannelProfile is the point-in-time projection of a channel as seen
// by an optional viewer.
type ChannelProfile struct {
	ID                   string `json:"id"`
	Username             string `json:"username"`
	FullName             string `json:"fullName"`
	Avatar               string `json:"avatar"`
	CoverImage           string `json:"coverImage"`
	SubscribersCount     int    `json:"subscribersCount"`
	ChannelsSubscribedTo int    `json:"channelsSubscribedTo"`
	IsSubscribed         bool   `json:"isSubscribed"`
}

// LikedVideo pairs a like row with its resolved video.
type LikedVideo struct {
	LikeID string       `json:"likeId"`
	Video  models.Video `json:"video"`
}

// LikedTweet pairs a like row with its resolved tweet.
type LikedTweet struct {
	LikeID string       `json:"likeId"`
	Tweet  models.Tweet `json:"tweet"`
}

// SubscriberInfo is a subscription edge with the subscriber resolved to
// a display projection.
type SubscriberInfo struct {
	SubscriptionID string              `json:"subscriptionId"`
	Subscriber     models.OwnerSummary `json:"subscriber"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// Reader computes social-graph facts for the platform.
type Reader struct {
	likes  LikeStore
	subs   SubscriptionStore
	users  UserStore
	videos VideoStore
	tweets TweetStore

	nowFunc func() time.Time
}

// NewReader constructs a Reader over the given stores.
func NewReader(likes LikeStore, subs SubscriptionStore, users UserStore, videos VideoStore, tweets TweetStore) *Reader {
	return &Reader{
		likes:   likes,
		subs:    subs,
		users:   users,
		videos:  videos,
		tweets:  tweets,
		nowFunc: time.Now,
	}
}

// ToggleLike flips the actor's like state for one target. The first
// toggle creates a liked row; subsequent toggles negate it in place, so
// an unliked target keeps a row with IsLiked=false.
func (r *Reader) ToggleLike(ctx context.Context, actorID string, target models.LikeTarget) (models.Like, error) {
	if strings.TrimSpace(actorID) == "" {
		return models.Like{}, ErrMissingActor
	}
	if strings.TrimSpace(target.ID) == "" {
		return models.Like{}, ErrMissingTarget
	}
	if !target.Kind.Valid() {
		return models.Like{}, ErrInvalidTargetKind
	}

	like, err := r.likes.Toggle(ctx, actorID, target)
	if err != nil {
		return models.Like{}, fmt.Errorf("toggle like: %w", err)
	}

	return like, nil
}

// LikedVideos returns the videos the actor has like rows for, resolved
// at read time. Rows whose state was toggled back to unliked are still
// listed; whether they should be is an open product question, so the
// stored behavior is preserved as-is.
func (r *Reader) LikedVideos(ctx context.Context, actorID string) ([]LikedVideo, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, ErrMissingActor
	}

	likes, err := r.likes.ListByActor(ctx, actorID, models.LikeTargetVideo)
	if err != nil {
		return nil, fmt.Errorf("list video likes: %w", err)
	}

	ids := make([]string, 0, len(likes))
	for _, like := range likes {
		ids = append(ids, like.Target.ID)
	}

	videos, err := r.videos.FindMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve liked videos: %w", err)
	}

	byID := make(map[string]models.Video, len(videos))
	for _, video := range videos {
		byID[video.ID] = video
	}

	liked := make([]LikedVideo, 0, len(likes))
	for _, like := range likes {
		video, ok := byID[like.Target.ID]
		if !ok {
			continue
		}
		liked = append(liked, LikedVideo{LikeID: like.ID, Video: video})
	}

	return liked, nil
}

// LikedTweets returns the tweets the actor has like rows for, with the
// same retained-tombstone semantics as LikedVideos.
func (r *Reader) LikedTweets(ctx context.Context, actorID string) ([]LikedTweet, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, ErrMissingActor
	}

	likes, err := r.likes.ListByActor(ctx, actorID, models.LikeTargetTweet)
	if err != nil {
		return nil, fmt.Errorf("list tweet likes: %w", err)
	}

	ids := make([]string, 0, len(likes))
	for _, like := range likes {
		ids = append(ids, like.Target.ID)
	}

	tweets, err := r.tweets.FindMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve liked tweets: %w", err)
	}

	byID := make(map[string]models.Tweet, len(tweets))
	for _, tweet := range tweets {
		byID[tweet.ID] = tweet
	}

	liked := make([]LikedTweet, 0, len(likes))
	for _, like := range likes {
		tweet, ok := byID[like.Target.ID]
		if !ok {
			continue
		}
		liked = append(liked, LikedTweet{LikeID: like.ID, Tweet: tweet})
	}

	return liked, nil
}

// ChannelProfile resolves a channel by username and derives its
// subscriber count, how many channels it subscribes to, and whether the
// viewer (optional, empty id means anonymous) is among its subscribers.
// All figures are computed from the edge collection at read time.
func (r *Reader) ChannelProfile(ctx context.Context, username, viewerID string) (ChannelProfile, error) {
	if strings.TrimSpace(username) == "" {
		return ChannelProfile{}, ErrMissingTarget
	}

	channel, err := r.users.FindByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return ChannelProfile{}, err
	}

	subscribers, err := r.subs.ListByChannel(ctx, channel.ID)
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("list channel subscribers: %w", err)
	}

	subscribedTo, err := r.subs.ListBySubscriber(ctx, channel.ID)
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("list subscribed channels: %w", err)
	}

	isSubscribed := false
	if viewerID != "" {
		for _, edge := range subscribers {
			if edge.SubscriberID == viewerID {
				isSubscribed = true
				break
			}
		}
	}

	return ChannelProfile{
		ID:                   channel.ID,
		Username:             channel.Username,
		FullName:             channel.FullName,
		Avatar:               channel.Avatar.URL,
		CoverImage:           channel.CoverImage.URL,
		SubscribersCount:     len(subscribers),
		ChannelsSubscribedTo: len(subscribedTo),
		IsSubscribed:         isSubscribed,
	}, nil
}

// WatchHistory resolves the actor's watch history into videos with
// embedded owner projections, in stored sequence order. When and how
// entries are appended is the caller's concern.
func (r *Reader) WatchHistory(ctx context.Context, actorID string) ([]models.WatchHistoryEntry, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, ErrMissingActor
	}

	entries, err := r.users.WatchHistory(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("resolve watch history: %w", err)
	}

	return entries, nil
}

// Subscribe creates a subscriber -> channel edge. Duplicate subscribes
// surface the store's conflict error rather than inserting a second edge.
func (r *Reader) Subscribe(ctx context.Context, subscriberID, channelID string) (models.Subscription, error) {
	if strings.TrimSpace(subscriberID) == "" {
		return models.Subscription{}, ErrMissingActor
	}
	if strings.TrimSpace(channelID) == "" {
		return models.Subscription{}, ErrMissingTarget
	}

	sub := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    r.nowFunc().UTC(),
	}

	if err := r.subs.Create(ctx, sub); err != nil {
		return models.Subscription{}, err
	}

	return sub, nil
}

// Unsubscribe removes the (subscriber, channel) edge.
func (r *Reader) Unsubscribe(ctx context.Context, subscriberID, channelID string) error {
	if strings.TrimSpace(subscriberID) == "" {
		return ErrMissingActor
	}
	if strings.TrimSpace(channelID) == "" {
		return ErrMissingTarget
	}

	return r.subs.DeleteByPair(ctx, subscriberID, channelID)
}

// Subscribers lists a channel's subscription edges with each subscriber
// resolved to a display projection.
func (r *Reader) Subscribers(ctx context.Context, channelID string) ([]SubscriberInfo, error) {
	if strings.TrimSpace(channelID) == "" {
		return nil, ErrMissingTarget
	}

	edges, err := r.subs.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("list channel subscribers: %w", err)
	}

	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		ids = append(ids, edge.SubscriberID)
	}

	summaries, err := r.users.Summaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve subscribers: %w", err)
	}

	infos := make([]SubscriberInfo, 0, len(edges))
	for _, edge := range edges {
		infos = append(infos, SubscriberInfo{
			SubscriptionID: edge.ID,
			Subscriber:     summaries[edge.SubscriberID],
			CreatedAt:      edge.CreatedAt,
		})
	}

	return infos, nil
}

// SubscribedChannels lists the raw subscription edges originating from
// a user.
func (r *Reader) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.Subscription, error) {
	if strings.TrimSpace(subscriberID) == "" {
		return nil, ErrMissingActor
	}

	return r.subs.ListBySubscriber(ctx, subscriberID)
}
