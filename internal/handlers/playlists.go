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

// PlaylistHandler implements playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Auth      ActorResolver
	NowFunc   func() time.Time
}

// Collection handles POST and GET /api/v1/playlists requests.
func (h PlaylistHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.listByOwner(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h PlaylistHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid playlist payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		OwnerID:     actor.ID,
		Videos:      []string{},
		IsPrivate:   req.IsPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		logger.Error("playlist create failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create playlist")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, "playlist created", playlist)
}

func (h PlaylistHandler) listByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID := strings.TrimSpace(r.URL.Query().Get("owner"))
	if ownerID == "" {
		actor, ok := h.Auth.requireActor(w, r)
		if !ok {
			return
		}
		ownerID = actor.ID
	}

	playlists, err := h.Playlists.ListByOwner(ctx, ownerID)
	if err != nil {
		logging.FromContext(ctx).Error("playlist list failed", "error", err, "ownerId", ownerID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list playlists")
		return
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}

	respondJSON(ctx, w, http.StatusOK, "playlists", playlists)
}

// Item handles GET, PATCH, and DELETE /api/v1/playlists/{id} requests.
func (h PlaylistHandler) Item(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPatch:
		h.update(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h PlaylistHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, err := h.Playlists.Find(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "playlist not found")
			return
		}
		logging.FromContext(ctx).Error("playlist lookup failed", "error", err, "playlistId", r.PathValue("id"))
		respondError(ctx, w, http.StatusInternalServerError, "failed to load playlist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, "playlist", playlist)
}

func (h PlaylistHandler) update(w http.ResponseWriter, r *http.Request) {
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

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid playlist update payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		existing.Name = name
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		existing.Description = desc
	}
	existing.IsPrivate = req.IsPrivate

	playlist, err := h.Playlists.Update(ctx, existing)
	if err != nil {
		logger.Error("playlist update failed", "error", err, "playlistId", existing.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update playlist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, "playlist updated", playlist)
}

func (h PlaylistHandler) delete(w http.ResponseWriter, r *http.Request) {
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

	playlist, err := h.Playlists.Delete(ctx, existing.ID)
	if err != nil {
		logger.Error("playlist delete failed", "error", err, "playlistId", existing.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete playlist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, "playlist deleted", playlist)
}

// Video handles PATCH and DELETE /api/v1/playlists/{id}/videos/{videoId}
// requests: PATCH adds the video, DELETE removes it.
func (h PlaylistHandler) Video(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch && r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

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

	videoID := r.PathValue("videoId")

	var playlist models.Playlist
	var err error
	if r.Method == http.MethodPatch {
		playlist, err = h.Playlists.AddVideos(ctx, existing.ID, []string{videoID})
	} else {
		playlist, err = h.Playlists.RemoveVideo(ctx, existing.ID, videoID)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "playlist not found")
			return
		}
		logger.Error("playlist video change failed", "error", err, "playlistId", existing.ID, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to modify playlist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, "playlist updated", playlist)
}

func (h PlaylistHandler) requireOwned(w http.ResponseWriter, r *http.Request, actorID string) (models.Playlist, bool) {
	ctx := r.Context()

	playlist, err := h.Playlists.Find(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "playlist not found")
			return models.Playlist{}, false
		}
		logging.FromContext(ctx).Error("playlist lookup failed", "error", err, "playlistId", r.PathValue("id"))
		respondError(ctx, w, http.StatusInternalServerError, "failed to load playlist")
		return models.Playlist{}, false
	}

	if playlist.OwnerID != actorID {
		respondError(ctx, w, http.StatusForbidden, "only the owner may modify this playlist")
		return models.Playlist{}, false
	}

	return playlist, true
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
}
