package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// SubscriptionRepository exposes data access for subscription edges.
type SubscriptionRepository interface {
	// Create inserts a subscriber -> channel edge. ErrConflict is
	// returned when the edge already exists.
	Create(ctx context.Context, sub models.Subscription) error
	// DeleteByPair removes the edge matching (subscriber, channel) and
	// returns ErrNotFound when no such edge exists.
	DeleteByPair(ctx context.Context, subscriberID, channelID string) error
	ListByChannel(ctx context.Context, channelID string) ([]models.Subscription, error)
	ListBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error)
}
