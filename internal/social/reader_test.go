package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type likeStoreStub struct {
	rows map[string]models.Like
}

func newLikeStoreStub() *likeStoreStub {
	return &likeStoreStub{rows: make(map[string]models.Like)}
}

func (s *likeStoreStub) key(actorID string, target models.LikeTarget) string {
	return actorID + "|" + string(target.Kind) + "|" + target.ID
}

func (s *likeStoreStub) Toggle(ctx context.Context, actorID string, target models.LikeTarget) (models.Like, error) {
	_ = ctx
	key := s.key(actorID, target)
	if like, ok := s.rows[key]; ok {
		like.IsLiked = !like.IsLiked
		s.rows[key] = like
		return like, nil
	}
	like := models.Like{ID: uuid.NewString(), LikedBy: actorID, Target: target, IsLiked: true}
	s.rows[key] = like
	return like, nil
}

func (s *likeStoreStub) ListByActor(ctx context.Context, actorID string, kind models.LikeTargetKind) ([]models.Like, error) {
	_ = ctx
	var likes []models.Like
	for _, like := range s.rows {
		if like.LikedBy == actorID && like.Target.Kind == kind {
			likes = append(likes, like)
		}
	}
	return likes, nil
}

type subscriptionStoreStub struct {
	edges []models.Subscription
}

func (s *subscriptionStoreStub) Create(ctx context.Context, sub models.Subscription) error {
	_ = ctx
	for _, edge := range s.edges {
		if edge.SubscriberID == sub.SubscriberID && edge.ChannelID == sub.ChannelID {
			return repositories.ErrConflict
		}
	}
	s.edges = append(s.edges, sub)
	return nil
}

func (s *subscriptionStoreStub) DeleteByPair(ctx context.Context, subscriberID, channelID string) error {
	_ = ctx
	for i, edge := range s.edges {
		if edge.SubscriberID == subscriberID && edge.ChannelID == channelID {
			s.edges = append(s.edges[:i], s.edges[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *subscriptionStoreStub) ListByChannel(ctx context.Context, channelID string) ([]models.Subscription, error) {
	_ = ctx
	var out []models.Subscription
	for _, edge := range s.edges {
		if edge.ChannelID == channelID {
			out = append(out, edge)
		}
	}
	return out, nil
}

func (s *subscriptionStoreStub) ListBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error) {
	_ = ctx
	var out []models.Subscription
	for _, edge := range s.edges {
		if edge.SubscriberID == subscriberID {
			out = append(out, edge)
		}
	}
	return out, nil
}

type userStoreStub struct {
	users   map[string]models.User
	history map[string][]models.WatchHistoryEntry
}

func (s *userStoreStub) FindByUsername(ctx context.Context, username string) (models.User, error) {
	_ = ctx
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *userStoreStub) Summaries(ctx context.Context, ids []string) (map[string]models.OwnerSummary, error) {
	_ = ctx
	out := make(map[string]models.OwnerSummary)
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			out[id] = user.Summary()
		}
	}
	return out, nil
}

func (s *userStoreStub) WatchHistory(ctx context.Context, id string) ([]models.WatchHistoryEntry, error) {
	_ = ctx
	return s.history[id], nil
}

type videoStoreStub struct {
	videos map[string]models.Video
}

func (s *videoStoreStub) FindMany(ctx context.Context, ids []string) ([]models.Video, error) {
	_ = ctx
	var out []models.Video
	for _, id := range ids {
		if video, ok := s.videos[id]; ok {
			out = append(out, video)
		}
	}
	return out, nil
}

type tweetStoreStub struct {
	tweets map[string]models.Tweet
}

func (s *tweetStoreStub) FindMany(ctx context.Context, ids []string) ([]models.Tweet, error) {
	_ = ctx
	var out []models.Tweet
	for _, id := range ids {
		if tweet, ok := s.tweets[id]; ok {
			out = append(out, tweet)
		}
	}
	return out, nil
}

func newTestReader() (*Reader, *likeStoreStub, *subscriptionStoreStub, *userStoreStub, *videoStoreStub, *tweetStoreStub) {
	likes := newLikeStoreStub()
	subs := &subscriptionStoreStub{}
	users := &userStoreStub{
		users: map[string]models.User{
			"user-a": {ID: "user-a", Username: "alice", FullName: "Alice"},
			"user-b": {ID: "user-b", Username: "bob", FullName: "Bob"},
			"user-c": {ID: "user-c", Username: "carol", FullName: "Carol"},
			"user-d": {ID: "user-d", Username: "dave", FullName: "Dave"},
		},
		history: make(map[string][]models.WatchHistoryEntry),
	}
	videos := &videoStoreStub{videos: map[string]models.Video{
		"video-1": {ID: "video-1", Title: "One"},
		"video-2": {ID: "video-2", Title: "Two"},
	}}
	tweets := &tweetStoreStub{tweets: map[string]models.Tweet{
		"tweet-1": {ID: "tweet-1", Content: "hi"},
	}}

	reader := NewReader(likes, subs, users, videos, tweets)
	reader.nowFunc = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return reader, likes, subs, users, videos, tweets
}

func TestToggleLikeFlipsInPlace(t *testing.T) {
	reader, _, _, _, _, _ := newTestReader()
	ctx := context.Background()
	target := models.LikeTarget{Kind: models.LikeTargetVideo, ID: "video-1"}

	first, err := reader.ToggleLike(ctx, "user-a", target)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !first.IsLiked {
		t.Fatalf("first toggle should like")
	}

	second, err := reader.ToggleLike(ctx, "user-a", target)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if second.IsLiked {
		t.Fatalf("second toggle should unlike")
	}
	if second.ID != first.ID {
		t.Fatalf("toggle should reuse the row, got %s then %s", first.ID, second.ID)
	}

	third, err := reader.ToggleLike(ctx, "user-a", target)
	if err != nil {
		t.Fatalf("third toggle: %v", err)
	}
	if !third.IsLiked {
		t.Fatalf("third toggle should like again")
	}
}

func TestToggleLikeValidation(t *testing.T) {
	reader, _, _, _, _, _ := newTestReader()
	ctx := context.Background()

	if _, err := reader.ToggleLike(ctx, "", models.LikeTarget{Kind: models.LikeTargetVideo, ID: "video-1"}); !errors.Is(err, ErrMissingActor) {
		t.Fatalf("expected ErrMissingActor, got %v", err)
	}
	if _, err := reader.ToggleLike(ctx, "user-a", models.LikeTarget{Kind: models.LikeTargetVideo}); !errors.Is(err, ErrMissingTarget) {
		t.Fatalf("expected ErrMissingTarget, got %v", err)
	}
	if _, err := reader.ToggleLike(ctx, "user-a", models.LikeTarget{Kind: "playlist", ID: "x"}); !errors.Is(err, ErrInvalidTargetKind) {
		t.Fatalf("expected ErrInvalidTargetKind, got %v", err)
	}
}

func TestLikedVideosRetainsToggledOffRows(t *testing.T) {
	reader, _, _, _, _, _ := newTestReader()
	ctx := context.Background()

	if _, err := reader.ToggleLike(ctx, "user-a", models.LikeTarget{Kind: models.LikeTargetVideo, ID: "video-1"}); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := reader.ToggleLike(ctx, "user-a", models.LikeTarget{Kind: models.LikeTargetVideo, ID: "video-2"}); err != nil {
			t.Fatalf("toggle video-2: %v", err)
		}
	}

	liked, err := reader.LikedVideos(ctx, "user-a")
	if err != nil {
		t.Fatalf("liked videos: %v", err)
	}

	// video-2 was toggled back off but its row remains, so both videos
	// appear in the list. This mirrors how the stored rows behave.
	if len(liked) != 2 {
		t.Fatalf("expected 2 liked rows including the unliked one, got %d", len(liked))
	}
}

func TestLikedVideosSkipsDeletedVideos(t *testing.T) {
	reader, _, _, _, videos, _ := newTestReader()
	ctx := context.Background()

	if _, err := reader.ToggleLike(ctx, "user-a", models.LikeTarget{Kind: models.LikeTargetVideo, ID: "video-1"}); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	delete(videos.videos, "video-1")

	liked, err := reader.LikedVideos(ctx, "user-a")
	if err != nil {
		t.Fatalf("liked videos: %v", err)
	}
	if len(liked) != 0 {
		t.Fatalf("expected deleted video to be dropped, got %d rows", len(liked))
	}
}

func TestChannelProfileCounts(t *testing.T) {
	reader, _, _, _, _, _ := newTestReader()
	ctx := context.Background()

	// alice's channel: bob and carol subscribe to her, she subscribes to dave.
	for _, subscriber := range []string{"user-b", "user-c"} {
		if _, err := reader.Subscribe(ctx, subscriber, "user-a"); err != nil {
			t.Fatalf("subscribe %s: %v", subscriber, err)
		}
	}
	if _, err := reader.Subscribe(ctx, "user-a", "user-d"); err != nil {
		t.Fatalf("subscribe alice: %v", err)
	}

	profile, err := reader.ChannelProfile(ctx, "alice", "user-b")
	if err != nil {
		t.Fatalf("channel profile: %v", err)
	}
	if profile.SubscribersCount != 2 {
		t.Fatalf("expected 2 subscribers, got %d", profile.SubscribersCount)
	}
	if profile.ChannelsSubscribedTo != 1 {
		t.Fatalf("expected 1 subscribed channel, got %d", profile.ChannelsSubscribedTo)
	}
	if !profile.IsSubscribed {
		t.Fatalf("bob should be reported as subscribed")
	}

	asDave, err := reader.ChannelProfile(ctx, "alice", "user-d")
	if err != nil {
		t.Fatalf("channel profile as dave: %v", err)
	}
	if asDave.IsSubscribed {
		t.Fatalf("dave should not be reported as subscribed")
	}

	anonymous, err := reader.ChannelProfile(ctx, "ALICE", "")
	if err != nil {
		t.Fatalf("channel profile case-folded: %v", err)
	}
	if anonymous.IsSubscribed {
		t.Fatalf("anonymous viewer is never subscribed")
	}
	if anonymous.Username != "alice" {
		t.Fatalf("expected case-folded lookup to find alice, got %q", anonymous.Username)
	}
}

func TestChannelProfileUnknownUser(t *testing.T) {
	reader, _, _, _, _, _ := newTestReader()

	_, err := reader.ChannelProfile(context.Background(), "nobody", "")
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubscribeDuplicate(t *testing.T) {
	reader, _, _, _, _, _ := newTestReader()
	ctx := context.Background()

	if _, err := reader.Subscribe(ctx, "user-b", "user-a"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := reader.Subscribe(ctx, "user-b", "user-a"); !errors.Is(err, repositories.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate subscribe, got %v", err)
	}
}

func TestUnsubscribe(t *testing.T) {
	reader, _, subs, _, _, _ := newTestReader()
	ctx := context.Background()

	if _, err := reader.Subscribe(ctx, "user-b", "user-a"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := reader.Unsubscribe(ctx, "user-b", "user-a"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if len(subs.edges) != 0 {
		t.Fatalf("expected edge removed, %d remain", len(subs.edges))
	}
	if err := reader.Unsubscribe(ctx, "user-b", "user-a"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for repeat unsubscribe, got %v", err)
	}
}

func TestSubscribersResolved(t *testing.T) {
	reader, _, _, _, _, _ := newTestReader()
	ctx := context.Background()

	if _, err := reader.Subscribe(ctx, "user-b", "user-a"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	infos, err := reader.Subscribers(ctx, "user-a")
	if err != nil {
		t.Fatalf("subscribers: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", len(infos))
	}
	if infos[0].Subscriber.Username != "bob" {
		t.Fatalf("expected bob resolved, got %+v", infos[0].Subscriber)
	}
}

func TestWatchHistoryOrderPreserved(t *testing.T) {
	reader, _, _, users, _, _ := newTestReader()

	users.history["user-a"] = []models.WatchHistoryEntry{
		{Video: models.Video{ID: "video-2"}},
		{Video: models.Video{ID: "video-1"}},
		{Video: models.Video{ID: "video-2"}},
	}

	entries, err := reader.WatchHistory(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	want := []string{"video-2", "video-1", "video-2"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, id := range want {
		if entries[i].Video.ID != id {
			t.Fatalf("entry %d: expected %s, got %s", i, id, entries[i].Video.ID)
		}
	}
}
