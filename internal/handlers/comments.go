package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/comments"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/repositories"
)

// CommentHandler implements comment thread endpoints.
type CommentHandler struct {
	Comments CommentService
	Auth     ActorResolver
}

// VideoThread handles GET and POST /api/v1/videos/{id}/comments
// requests. GET returns the populated thread; POST adds a root comment.
func (h CommentHandler) VideoThread(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.thread(w, r)
	case http.MethodPost:
		h.post(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h CommentHandler) thread(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := r.PathValue("id")

	nodes, err := h.Comments.Thread(ctx, videoID)
	if err != nil {
		logging.FromContext(ctx).Error("comment thread load failed", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load comments")
		return
	}
	if nodes == nil {
		nodes = []comments.Node{}
	}

	respondJSON(ctx, w, http.StatusOK, "comments", nodes)
}

func (h CommentHandler) post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actor, ok := h.Auth.requireActor(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := h.Comments.Post(ctx, r.PathValue("id"), actor.ID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, comments.ErrEmptyContent), errors.Is(err, comments.ErrMissingTarget):
			respondError(ctx, w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "video not found")
		default:
			logger.Error("comment create failed", "error", err, "videoId", r.PathValue("id"))
			respondError(ctx, w, http.StatusInternalServerError, "failed to post comment")
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, "comment posted", comment)
}

// Reply handles POST /api/v1/comments/{id}/replies requests.
func (h CommentHandler) Reply(w http.ResponseWriter, r *http.Request) {
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

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reply payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.Comments.Reply(ctx, r.PathValue("id"), actor.ID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, comments.ErrEmptyContent), errors.Is(err, comments.ErrMissingTarget):
			respondError(ctx, w, http.StatusBadRequest, err.Error())
		case errors.Is(err, comments.ErrReplyNotAttached):
			respondError(ctx, w, http.StatusNotFound, err.Error())
		default:
			logger.Error("reply create failed", "error", err, "parentId", r.PathValue("id"))
			respondError(ctx, w, http.StatusInternalServerError, "failed to post reply")
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, "reply posted", reply)
}

// Item handles PATCH and DELETE /api/v1/comments/{id} requests.
func (h CommentHandler) Item(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPatch:
		h.update(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h CommentHandler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if _, ok := h.Auth.requireActor(w, r); !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment update payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := h.Comments.UpdateContent(ctx, r.PathValue("id"), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, comments.ErrEmptyContent), errors.Is(err, comments.ErrMissingTarget):
			respondError(ctx, w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "comment not found")
		default:
			logger.Error("comment update failed", "error", err, "commentId", r.PathValue("id"))
			respondError(ctx, w, http.StatusInternalServerError, "failed to update comment")
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, "comment updated", comment)
}

func (h CommentHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if _, ok := h.Auth.requireActor(w, r); !ok {
		return
	}

	deleted, err := h.Comments.Delete(ctx, r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, comments.ErrMissingTarget):
			respondError(ctx, w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "comment not found")
		default:
			logger.Error("comment delete failed", "error", err, "commentId", r.PathValue("id"))
			respondError(ctx, w, http.StatusInternalServerError, "failed to delete comment")
		}
		return
	}

	respondJSON(ctx, w, http.StatusOK, "comment deleted", map[string]int{"deleted": deleted})
}

type commentRequest struct {
	Content string `json:"content"`
}
