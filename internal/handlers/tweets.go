package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// TweetHandler implements tweet endpoints.
type TweetHandler struct {
	Tweets  TweetStore
	Auth    ActorResolver
	NowFunc func() time.Time
}

// Collection handles POST and GET /api/v1/tweets requests.
func (h TweetHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.listByOwner(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h TweetHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid tweet payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	now := h.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   actor.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		logger.Error("tweet create failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to post tweet")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, "tweet posted", tweet)
}

func (h TweetHandler) listByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID := strings.TrimSpace(r.URL.Query().Get("owner"))
	if ownerID == "" {
		actor, ok := h.Auth.requireActor(w, r)
		if !ok {
			return
		}
		ownerID = actor.ID
	}

	tweets, err := h.Tweets.ListByOwner(ctx, ownerID)
	if err != nil {
		logging.FromContext(ctx).Error("tweet list failed", "error", err, "ownerId", ownerID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list tweets")
		return
	}
	if tweets == nil {
		tweets = []models.Tweet{}
	}

	respondJSON(ctx, w, http.StatusOK, "tweets", tweets)
}

// Item handles PATCH and DELETE /api/v1/tweets/{id} requests.
func (h TweetHandler) Item(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPatch:
		h.update(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h TweetHandler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	existing, ok := h.requireOwned(w, r, actor.ID)
	if !ok {
		return
	}

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid tweet update payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	tweet, err := h.Tweets.UpdateContent(ctx, existing.ID, content)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "tweet not found")
			return
		}
		logger.Error("tweet update failed", "error", err, "tweetId", existing.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update tweet")
		return
	}

	respondJSON(ctx, w, http.StatusOK, "tweet updated", tweet)
}

func (h TweetHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	existing, ok := h.requireOwned(w, r, actor.ID)
	if !ok {
		return
	}

	tweet, err := h.Tweets.Delete(ctx, existing.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "tweet not found")
			return
		}
		logger.Error("tweet delete failed", "error", err, "tweetId", existing.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete tweet")
		return
	}

	respondJSON(ctx, w, http.StatusOK, "tweet deleted", tweet)
}

func (h TweetHandler) requireOwned(w http.ResponseWriter, r *http.Request, actorID string) (models.Tweet, bool) {
	ctx := r.Context()

	tweet, err := h.Tweets.Find(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "tweet not found")
			return models.Tweet{}, false
		}
		logging.FromContext(ctx).Error("tweet lookup failed", "error", err, "tweetId", r.PathValue("id"))
		respondError(ctx, w, http.StatusInternalServerError, "failed to load tweet")
		return models.Tweet{}, false
	}

	if tweet.OwnerID != actorID {
		respondError(ctx, w, http.StatusForbidden, "only the owner may modify this tweet")
		return models.Tweet{}, false
	}

	return tweet, true
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type tweetRequest struct {
	Content string `json:"content"`
}
