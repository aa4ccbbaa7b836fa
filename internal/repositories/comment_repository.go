package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// CommentRepository exposes data access for comment tree nodes.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	// CreateReply atomically inserts the reply and appends its id to the
	// parent's replies sequence. It returns ErrNotFound when the parent
	// no longer exists, in which case nothing is persisted.
	CreateReply(ctx context.Context, reply models.Comment, parentID string) error
	Find(ctx context.Context, id string) (models.Comment, error)
	FindMany(ctx context.Context, ids []string) ([]models.Comment, error)
	ListByVideo(ctx context.Context, videoID string) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	// DeleteReturningReplies removes one comment document and reports the
	// reply ids it held so callers can continue a cascade.
	DeleteReturningReplies(ctx context.Context, id string) ([]string, error)
}
