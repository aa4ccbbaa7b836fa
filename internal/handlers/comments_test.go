package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/comments"
	"github.com/clipstream/backend/internal/models"
)

type commentServiceStub struct {
	thread    []comments.Node
	posted    []models.Comment
	replyErr  error
	deleteErr error
	deleted   int
}

func (s *commentServiceStub) Post(_ context.Context, videoID, authorID, content string) (models.Comment, error) {
	if content == "" {
		return models.Comment{}, comments.ErrEmptyContent
	}
	comment := models.Comment{ID: "comment-1", CommentedBy: authorID, VideoID: videoID, Content: content}
	s.posted = append(s.posted, comment)
	return comment, nil
}

func (s *commentServiceStub) Reply(_ context.Context, parentID, authorID, content string) (models.Comment, error) {
	if s.replyErr != nil {
		return models.Comment{}, s.replyErr
	}
	return models.Comment{ID: "reply-1", CommentedBy: authorID, Content: content}, nil
}

func (s *commentServiceStub) UpdateContent(_ context.Context, id, content string) (models.Comment, error) {
	return models.Comment{ID: id, Content: content}, nil
}

func (s *commentServiceStub) Thread(_ context.Context, videoID string) ([]comments.Node, error) {
	_ = videoID
	return s.thread, nil
}

func (s *commentServiceStub) Delete(_ context.Context, id string) (int, error) {
	_ = id
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	return s.deleted, nil
}

func authedCommentHandler(t *testing.T, svc CommentService) (CommentHandler, *auth.TokenManager, models.User) {
	t.Helper()
	store := newInMemoryUserStore()
	tokens := newTestTokenManager()
	user := seedUser(t, store, "password123")
	handler := CommentHandler{
		Comments: svc,
		Auth:     ActorResolver{Tokens: tokens, Users: store},
	}
	return handler, tokens, user
}

func TestCommentHandlerThread(t *testing.T) {
	stub := &commentServiceStub{thread: []comments.Node{
		{ID: "c1", Content: "root", Replies: []comments.Node{{ID: "r1", Content: "reply"}}},
	}}
	handler, _, _ := authedCommentHandler(t, stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/video-1/comments", nil)
	req.SetPathValue("id", "video-1")
	rec := httptest.NewRecorder()

	handler.VideoThread(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var envelope struct {
		Data []comments.Node `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || len(envelope.Data[0].Replies) != 1 {
		t.Fatalf("unexpected thread shape: %+v", envelope.Data)
	}
}

func TestCommentHandlerPostRequiresAuth(t *testing.T) {
	handler, _, _ := authedCommentHandler(t, &commentServiceStub{})

	body, _ := json.Marshal(commentRequest{Content: "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/video-1/comments", bytes.NewReader(body))
	req.SetPathValue("id", "video-1")
	rec := httptest.NewRecorder()

	handler.VideoThread(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestCommentHandlerPost(t *testing.T) {
	stub := &commentServiceStub{}
	handler, tokens, user := authedCommentHandler(t, stub)

	pair, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	body, _ := json.Marshal(commentRequest{Content: "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/video-1/comments", bytes.NewReader(body))
	req.SetPathValue("id", "video-1")
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.VideoThread(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if len(stub.posted) != 1 || stub.posted[0].CommentedBy != user.ID {
		t.Fatalf("expected comment posted by %s, got %+v", user.ID, stub.posted)
	}
}

func TestCommentHandlerReplyMissingParent(t *testing.T) {
	stub := &commentServiceStub{replyErr: comments.ErrReplyNotAttached}
	handler, tokens, user := authedCommentHandler(t, stub)

	pair, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	body, _ := json.Marshal(commentRequest{Content: "orphan"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments/missing/replies", bytes.NewReader(body))
	req.SetPathValue("id", "missing")
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.Reply(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestCommentHandlerDelete(t *testing.T) {
	stub := &commentServiceStub{deleted: 3}
	handler, tokens, user := authedCommentHandler(t, stub)

	pair, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/comments/comment-1", nil)
	req.SetPathValue("id", "comment-1")
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.Item(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data map[string]int `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["deleted"] != 3 {
		t.Fatalf("expected 3 deleted, got %+v", envelope.Data)
	}
}
