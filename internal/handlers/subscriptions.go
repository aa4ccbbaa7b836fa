package handlers

import (
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/social"
)

// SubscriptionHandler implements subscription edge endpoints.
type SubscriptionHandler struct {
	Social SocialReader
	Auth   ActorResolver
}

// Channel handles POST and DELETE /api/v1/subscriptions/{channelId}
// requests: POST subscribes the actor, DELETE unsubscribes them.
func (h SubscriptionHandler) Channel(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.subscribe(w, r)
	case http.MethodDelete:
		h.unsubscribe(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h SubscriptionHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	channelID := r.PathValue("channelId")
	if channelID == actor.ID {
		respondError(ctx, w, http.StatusBadRequest, "cannot subscribe to yourself")
		return
	}

	sub, err := h.Social.Subscribe(ctx, actor.ID, channelID)
	if err != nil {
		switch {
		case errors.Is(err, social.ErrMissingTarget):
			respondError(ctx, w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repositories.ErrConflict):
			respondError(ctx, w, http.StatusConflict, "already subscribed")
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "channel not found")
		default:
			logger.Error("subscribe failed", "error", err, "channelId", channelID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to subscribe")
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, "subscribed", sub)
}

func (h SubscriptionHandler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	channelID := r.PathValue("channelId")
	if err := h.Social.Unsubscribe(ctx, actor.ID, channelID); err != nil {
		switch {
		case errors.Is(err, social.ErrMissingTarget):
			respondError(ctx, w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "not subscribed")
		default:
			logger.Error("unsubscribe failed", "error", err, "channelId", channelID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to unsubscribe")
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, "unsubscribed", nil)
}

// Subscribers handles GET /api/v1/subscriptions/{channelId}/subscribers requests.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	channelID := r.PathValue("channelId")

	subscribers, err := h.Social.Subscribers(ctx, channelID)
	if err != nil {
		if errors.Is(err, social.ErrMissingTarget) {
			respondError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		logging.FromContext(ctx).Error("subscriber list failed", "error", err, "channelId", channelID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list subscribers")
		return
	}
	if subscribers == nil {
		subscribers = []social.SubscriberInfo{}
	}

	respondJSON(ctx, w, http.StatusOK, "subscribers", subscribers)
}

// Subscribed handles GET /api/v1/subscriptions requests, listing the
// channels the actor subscribes to.
func (h SubscriptionHandler) Subscribed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	subs, err := h.Social.SubscribedChannels(ctx, actor.ID)
	if err != nil {
		logging.FromContext(ctx).Error("subscribed channels lookup failed", "error", err, "userId", actor.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	if subs == nil {
		subs = []models.Subscription{}
	}

	respondJSON(ctx, w, http.StatusOK, "subscribed channels", subs)
}
