package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// VideoHandler implements video upload and management endpoints.
type VideoHandler struct {
	Videos  VideoStore
	Storage AssetStorage
	Janitor AssetJanitor
	Auth    ActorResolver
	NowFunc func() time.Time
}

// Collection handles POST and GET /api/v1/videos requests. POST uploads
// a new video; GET lists videos for the owner named in the query.
func (h VideoHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.upload(w, r)
	case http.MethodGet:
		h.listByOwner(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	if h.Storage == nil {
		logger.Error("video storage unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "video storage unavailable")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid video payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	videoID := uuid.NewString()

	videoAsset, found, err := h.storeFormFile(r, "videoFile", fmt.Sprintf("videos/%s", videoID))
	if err != nil {
		logger.Error("video upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store video")
		return
	}
	if !found {
		respondError(ctx, w, http.StatusBadRequest, "videoFile is required")
		return
	}

	thumbAsset, found, err := h.storeFormFile(r, "thumbnail", fmt.Sprintf("thumbnails/%s", videoID))
	if err != nil {
		logger.Error("thumbnail upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
		return
	}
	if !found {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail is required")
		return
	}

	// The object store does not probe media, so duration comes from the
	// client alongside the file.
	duration, _ := strconv.ParseFloat(r.FormValue("duration"), 64)
	videoAsset.Duration = duration

	now := h.now()
	video := models.Video{
		ID:          videoID,
		OwnerID:     actor.ID,
		VideoFile:   videoAsset,
		Thumbnail:   thumbAsset,
		Title:       title,
		Description: description,
		IsPublished: true,
		Duration:    duration,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("video create failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to publish video")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, "video published", video)
}

func (h VideoHandler) listByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	ownerID := strings.TrimSpace(r.URL.Query().Get("owner"))
	if ownerID == "" {
		actor, ok := h.Auth.requireActor(w, r)
		if !ok {
			return
		}
		ownerID = actor.ID
	}

	videos, err := h.Videos.ListByOwner(ctx, ownerID)
	if err != nil {
		logger.Error("video list failed", "error", err, "ownerId", ownerID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to list videos")
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}

	respondJSON(ctx, w, http.StatusOK, "videos", videos)
}

// Item handles GET, PATCH, and DELETE /api/v1/videos/{id} requests.
func (h VideoHandler) Item(w http.ResponseWriter, r *http.Request) {
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

func (h VideoHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, err := h.Videos.Find(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logging.FromContext(ctx).Error("video lookup failed", "error", err, "videoId", r.PathValue("id"))
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, "video", video)
}

func (h VideoHandler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	existing, err := h.Videos.Find(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("video lookup failed", "error", err, "videoId", id)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}
	if existing.OwnerID != actor.ID {
		respondError(ctx, w, http.StatusForbidden, "only the owner may modify this video")
		return
	}

	var title, description string
	var thumbnail *models.MediaAsset

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			logger.Warn("invalid video update payload", "error", err)
			respondError(ctx, w, http.StatusBadRequest, "invalid multipart payload")
			return
		}
		title = strings.TrimSpace(r.FormValue("title"))
		description = strings.TrimSpace(r.FormValue("description"))

		asset, found, err := h.storeFormFile(r, "thumbnail", fmt.Sprintf("thumbnails/%s", id))
		if err != nil {
			logger.Error("thumbnail upload failed", "error", err, "videoId", id)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
			return
		}
		if found {
			thumbnail = &asset
		}
	} else {
		var req updateVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Warn("invalid video update payload", "error", err)
			respondError(ctx, w, http.StatusBadRequest, "invalid request body")
			return
		}
		title = strings.TrimSpace(req.Title)
		description = strings.TrimSpace(req.Description)
	}

	if title == "" && description == "" && thumbnail == nil {
		respondError(ctx, w, http.StatusBadRequest, "nothing to update")
		return
	}

	video, err := h.Videos.UpdateDetails(ctx, id, title, description, thumbnail)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("video update failed", "error", err, "videoId", id)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update video")
		return
	}

	if thumbnail != nil && existing.Thumbnail.Key != "" && h.Janitor != nil {
		if err := h.Janitor.Enqueue(ctx, existing.Thumbnail.Key); err != nil {
			logger.Warn("failed to schedule old thumbnail cleanup", "key", existing.Thumbnail.Key, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, "video updated", video)
}

func (h VideoHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	existing, err := h.Videos.Find(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("video lookup failed", "error", err, "videoId", id)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}
	if existing.OwnerID != actor.ID {
		respondError(ctx, w, http.StatusForbidden, "only the owner may delete this video")
		return
	}

	video, err := h.Videos.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("video delete failed", "error", err, "videoId", id)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete video")
		return
	}

	if h.Janitor != nil {
		for _, key := range []string{video.VideoFile.Key, video.Thumbnail.Key} {
			if key == "" {
				continue
			}
			if err := h.Janitor.Enqueue(ctx, key); err != nil {
				logger.Warn("failed to schedule asset cleanup", "key", key, "error", err)
			}
		}
	}

	respondJSON(ctx, w, http.StatusOK, "video deleted", video)
}

// TogglePublish handles PATCH /api/v1/videos/{id}/toggle-publish requests.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	existing, err := h.Videos.Find(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("video lookup failed", "error", err, "videoId", id)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}
	if existing.OwnerID != actor.ID {
		respondError(ctx, w, http.StatusForbidden, "only the owner may modify this video")
		return
	}

	video, err := h.Videos.TogglePublished(ctx, id)
	if err != nil {
		logger.Error("video publish toggle failed", "error", err, "videoId", id)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle publish state")
		return
	}

	respondJSON(ctx, w, http.StatusOK, "publish state toggled", video)
}

func (h VideoHandler) storeFormFile(r *http.Request, field, keyPrefix string) (models.MediaAsset, bool, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return models.MediaAsset{}, false, nil
		}
		return models.MediaAsset{}, false, err
	}
	defer file.Close()

	key := fmt.Sprintf("%s%s", keyPrefix, path.Ext(header.Filename))
	asset, err := h.Storage.Upload(r.Context(), key, header.Header.Get("Content-Type"), file)
	if err != nil {
		return models.MediaAsset{}, false, err
	}

	return asset, true, nil
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type updateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
