package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/social"
)

type socialReaderStub struct {
	toggled []models.LikeTarget
	liked   bool
	videos  []social.LikedVideo
	tweets  []social.LikedTweet
}

func (s *socialReaderStub) ToggleLike(_ context.Context, actorID string, target models.LikeTarget) (models.Like, error) {
	s.toggled = append(s.toggled, target)
	s.liked = !s.liked
	return models.Like{ID: "like-1", LikedBy: actorID, Target: target, IsLiked: s.liked}, nil
}

func (s *socialReaderStub) LikedVideos(_ context.Context, _ string) ([]social.LikedVideo, error) {
	return s.videos, nil
}

func (s *socialReaderStub) LikedTweets(_ context.Context, _ string) ([]social.LikedTweet, error) {
	return s.tweets, nil
}

func (s *socialReaderStub) ChannelProfile(_ context.Context, _, _ string) (social.ChannelProfile, error) {
	return social.ChannelProfile{}, nil
}

func (s *socialReaderStub) WatchHistory(_ context.Context, _ string) ([]models.WatchHistoryEntry, error) {
	return nil, nil
}

func (s *socialReaderStub) Subscribe(_ context.Context, subscriberID, channelID string) (models.Subscription, error) {
	return models.Subscription{ID: "sub-1", SubscriberID: subscriberID, ChannelID: channelID}, nil
}

func (s *socialReaderStub) Unsubscribe(_ context.Context, _, _ string) error { return nil }

func (s *socialReaderStub) Subscribers(_ context.Context, _ string) ([]social.SubscriberInfo, error) {
	return nil, nil
}

func (s *socialReaderStub) SubscribedChannels(_ context.Context, _ string) ([]models.Subscription, error) {
	return nil, nil
}

func TestLikeHandlerToggleVideo(t *testing.T) {
	store := newInMemoryUserStore()
	tokens := newTestTokenManager()
	user := seedUser(t, store, "password123")
	stub := &socialReaderStub{}
	handler := LikeHandler{Social: stub, Auth: ActorResolver{Tokens: tokens, Users: store}}

	pair, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/v/video-1", nil)
	req.SetPathValue("id", "video-1")
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.ToggleVideo(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if len(stub.toggled) != 1 || stub.toggled[0].Kind != models.LikeTargetVideo || stub.toggled[0].ID != "video-1" {
		t.Fatalf("unexpected toggle target: %+v", stub.toggled)
	}

	var envelope struct {
		Message string      `json:"message"`
		Data    models.Like `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Message != "liked" || !envelope.Data.IsLiked {
		t.Fatalf("expected liked response, got %+v", envelope)
	}
}

func TestLikeHandlerToggleRequiresAuth(t *testing.T) {
	store := newInMemoryUserStore()
	tokens := newTestTokenManager()
	handler := LikeHandler{Social: &socialReaderStub{}, Auth: ActorResolver{Tokens: tokens, Users: store}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/v/video-1", nil)
	req.SetPathValue("id", "video-1")
	rec := httptest.NewRecorder()

	handler.ToggleVideo(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestLikeHandlerLikedVideos(t *testing.T) {
	store := newInMemoryUserStore()
	tokens := newTestTokenManager()
	user := seedUser(t, store, "password123")
	stub := &socialReaderStub{videos: []social.LikedVideo{
		{LikeID: "like-1", Video: models.Video{ID: "video-1", Title: "One"}},
	}}
	handler := LikeHandler{Social: stub, Auth: ActorResolver{Tokens: tokens, Users: store}}

	pair, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/likes/videos", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.LikedVideos(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data []social.LikedVideo `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Video.ID != "video-1" {
		t.Fatalf("unexpected liked videos: %+v", envelope.Data)
	}
}
