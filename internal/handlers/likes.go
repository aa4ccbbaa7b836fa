package handlers

import (
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/social"
)

// LikeHandler implements like toggle and liked-list endpoints.
type LikeHandler struct {
	Social SocialReader
	Auth   ActorResolver
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{id} requests.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetVideo)
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{id} requests.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetComment)
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{id} requests.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetTweet)
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind models.LikeTargetKind) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	target := models.LikeTarget{Kind: kind, ID: r.PathValue("id")}
	like, err := h.Social.ToggleLike(ctx, actor.ID, target)
	if err != nil {
		switch {
		case errors.Is(err, social.ErrMissingTarget), errors.Is(err, social.ErrInvalidTargetKind):
			respondError(ctx, w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "target not found")
		default:
			logger.Error("like toggle failed", "error", err, "kind", kind, "targetId", target.ID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to toggle like")
		}
		return
	}

	message := "unliked"
	if like.IsLiked {
		message = "liked"
	}
	respondJSON(ctx, w, http.StatusOK, message, like)
}

// LikedVideos handles GET /api/v1/likes/videos requests.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	liked, err := h.Social.LikedVideos(ctx, actor.ID)
	if err != nil {
		logging.FromContext(ctx).Error("liked videos lookup failed", "error", err, "userId", actor.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load liked videos")
		return
	}
	if liked == nil {
		liked = []social.LikedVideo{}
	}

	respondJSON(ctx, w, http.StatusOK, "liked videos", liked)
}

// LikedTweets handles GET /api/v1/likes/tweets requests.
func (h LikeHandler) LikedTweets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	liked, err := h.Social.LikedTweets(ctx, actor.ID)
	if err != nil {
		logging.FromContext(ctx).Error("liked tweets lookup failed", "error", err, "userId", actor.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load liked tweets")
		return
	}
	if liked == nil {
		liked = []social.LikedTweet{}
	}

	respondJSON(ctx, w, http.StatusOK, "liked tweets", liked)
}
