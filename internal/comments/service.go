// Package comments maintains the forest of comment trees attached to
// videos: creation, bounded-depth population for reads, and cascading
// deletion of entire subtrees.
package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// DefaultThreadDepth is how many comment levels a thread read expands
// when no explicit depth is configured.
const DefaultThreadDepth = 6

var (
	// ErrEmptyContent indicates a comment write without content.
	ErrEmptyContent = errors.New("comment content is required")
	// ErrMissingTarget indicates a comment write without its video or parent id.
	ErrMissingTarget = errors.New("comment target is required")
	// ErrReplyNotAttached indicates the parent comment vanished before the
	// reply could be attached to it.
	ErrReplyNotAttached = errors.New("failed to post reply")
)

// CommentStore captures the persistence operations the tree manager needs.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	CreateReply(ctx context.Context, reply models.Comment, parentID string) error
	FindMany(ctx context.Context, ids []string) ([]models.Comment, error)
	ListByVideo(ctx context.Context, videoID string) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	DeleteReturningReplies(ctx context.Context, id string) ([]string, error)
}

// AuthorStore resolves user ids into display projections.
type AuthorStore interface {
	Summaries(ctx context.Context, ids []string) (map[string]models.OwnerSummary, error)
}

// Node is one resolved comment in a populated thread. Replies is nil at
// the expansion boundary and for leaves.
type Node struct {
	ID        string              `json:"id"`
	Content   string              `json:"content"`
	VideoID   string              `json:"videoId,omitempty"`
	Author    models.OwnerSummary `json:"commentedBy"`
	Replies   []Node              `json:"replies,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

// Service is the comment tree manager.
type Service struct {
	comments CommentStore
	authors  AuthorStore
	depth    int
	logger   *slog.Logger

	nowFunc func() time.Time
}

// NewService constructs the tree manager. depth bounds thread reads;
// values below one fall back to DefaultThreadDepth.
func NewService(comments CommentStore, authors AuthorStore, depth int, logger *slog.Logger) *Service {
	if depth < 1 {
		depth = DefaultThreadDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		comments: comments,
		authors:  authors,
		depth:    depth,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// Post creates a root comment on a video.
func (s *Service) Post(ctx context.Context, videoID, authorID, content string) (models.Comment, error) {
	if strings.TrimSpace(videoID) == "" {
		return models.Comment{}, ErrMissingTarget
	}
	if strings.TrimSpace(content) == "" {
		return models.Comment{}, ErrEmptyContent
	}

	now := s.nowFunc().UTC()
	comment := models.Comment{
		ID:          uuid.NewString(),
		CommentedBy: authorID,
		VideoID:     videoID,
		Content:     content,
		Replies:     []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return models.Comment{}, fmt.Errorf("post comment: %w", err)
	}

	return comment, nil
}

// Reply creates a reply comment and attaches it to the parent. A parent
// that disappeared before the attach surfaces ErrReplyNotAttached.
func (s *Service) Reply(ctx context.Context, parentID, authorID, content string) (models.Comment, error) {
	if strings.TrimSpace(parentID) == "" {
		return models.Comment{}, ErrMissingTarget
	}
	if strings.TrimSpace(content) == "" {
		return models.Comment{}, ErrEmptyContent
	}

	now := s.nowFunc().UTC()
	reply := models.Comment{
		ID:          uuid.NewString(),
		CommentedBy: authorID,
		Content:     content,
		Replies:     []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.comments.CreateReply(ctx, reply, parentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, ErrReplyNotAttached
		}
		return models.Comment{}, fmt.Errorf("post reply: %w", err)
	}

	return reply, nil
}

// UpdateContent replaces a comment's content in place.
func (s *Service) UpdateContent(ctx context.Context, id, content string) (models.Comment, error) {
	if strings.TrimSpace(id) == "" {
		return models.Comment{}, ErrMissingTarget
	}
	if strings.TrimSpace(content) == "" {
		return models.Comment{}, ErrEmptyContent
	}

	comment, err := s.comments.UpdateContent(ctx, id, content)
	if err != nil {
		return models.Comment{}, err
	}

	return comment, nil
}

// Thread returns every root comment for the video with reply chains
// expanded to the configured depth. The walk is iterative, one storage
// round trip per level: the depth limit is data, not recursion. Nodes
// at the boundary level carry author info but no expanded replies, and
// reply ids whose documents have been deleted are dropped silently.
func (s *Service) Thread(ctx context.Context, videoID string) ([]Node, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, ErrMissingTarget
	}

	ctx, span := logging.StartSpan(ctx, "comments.thread")
	defer span.End()

	roots, err := s.comments.ListByVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("list root comments: %w", err)
	}

	// Each frame pins one node in its parent's slice together with the
	// author and reply ids still to resolve. Reply slices are allocated
	// with full capacity up front so node pointers stay valid while
	// siblings are appended.
	type frame struct {
		node    *Node
		author  string
		replies []string
	}

	nodes := make([]Node, len(roots))
	level := make([]frame, len(roots))
	for i, root := range roots {
		nodes[i] = Node{
			ID:        root.ID,
			Content:   root.Content,
			VideoID:   root.VideoID,
			CreatedAt: root.CreatedAt,
		}
		level[i] = frame{node: &nodes[i], author: root.CommentedBy, replies: root.Replies}
	}

	for remaining := s.depth; len(level) > 0; remaining-- {
		ids := make([]string, 0, len(level))
		for _, f := range level {
			ids = append(ids, f.author)
		}
		summaries, err := s.authors.Summaries(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve comment authors: %w", err)
		}
		for _, f := range level {
			f.node.Author = summaries[f.author]
		}

		// The deepest level gets author info only, no reply expansion.
		if remaining <= 1 {
			break
		}

		var replyIDs []string
		for _, f := range level {
			replyIDs = append(replyIDs, f.replies...)
		}
		if len(replyIDs) == 0 {
			break
		}

		children, err := s.comments.FindMany(ctx, replyIDs)
		if err != nil {
			return nil, fmt.Errorf("expand replies: %w", err)
		}

		byID := make(map[string]models.Comment, len(children))
		for _, child := range children {
			byID[child.ID] = child
		}

		next := make([]frame, 0, len(children))
		for _, f := range level {
			f.node.Replies = make([]Node, 0, len(f.replies))
			for _, id := range f.replies {
				child, ok := byID[id]
				if !ok {
					continue
				}
				f.node.Replies = append(f.node.Replies, Node{
					ID:        child.ID,
					Content:   child.Content,
					CreatedAt: child.CreatedAt,
				})
				childNode := &f.node.Replies[len(f.node.Replies)-1]
				next = append(next, frame{node: childNode, author: child.CommentedBy, replies: child.Replies})
			}
			if len(f.node.Replies) == 0 {
				f.node.Replies = nil
			}
		}

		level = next
	}

	return nodes, nil
}

// Delete removes the comment and every descendant reachable through
// reply references. The cascade is an explicit depth-first worklist
// with a visited set, so reference cycles cannot loop it, and unlike
// thread reads it has no depth ceiling. It returns how many comments
// were removed, and ErrNotFound when the target itself is absent.
func (s *Service) Delete(ctx context.Context, id string) (int, error) {
	if strings.TrimSpace(id) == "" {
		return 0, ErrMissingTarget
	}

	ctx, span := logging.StartSpan(ctx, "comments.delete")
	defer span.End()

	replies, err := s.comments.DeleteReturningReplies(ctx, id)
	if err != nil {
		return 0, err
	}

	deleted := 1
	visited := map[string]struct{}{id: {}}
	stack := append([]string(nil), replies...)

	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[next]; seen {
			continue
		}
		visited[next] = struct{}{}

		children, err := s.comments.DeleteReturningReplies(ctx, next)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				// Already gone; dangling reference from a previous partial cascade.
				continue
			}
			return deleted, fmt.Errorf("cascade delete comment %s: %w", next, err)
		}

		deleted++
		stack = append(stack, children...)
	}

	s.logger.Debug("comment subtree deleted", "rootId", id, "deleted", deleted)

	return deleted, nil
}
