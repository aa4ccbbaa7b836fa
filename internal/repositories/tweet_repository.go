package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// TweetRepository exposes data access for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	Find(ctx context.Context, id string) (models.Tweet, error)
	FindMany(ctx context.Context, ids []string) ([]models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string) (models.Tweet, error)
	Delete(ctx context.Context, id string) (models.Tweet, error)
}
