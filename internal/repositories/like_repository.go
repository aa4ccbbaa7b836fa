package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// LikeRepository exposes data access for like records.
type LikeRepository interface {
	// Toggle flips the like state for (actor, target) in one atomic
	// write: it inserts a liked row when none exists, otherwise negates
	// the existing row's state. The resulting row is returned.
	Toggle(ctx context.Context, actorID string, target models.LikeTarget) (models.Like, error)
	// ListByActor returns the actor's like rows pointing at targets of
	// the given kind, regardless of their current liked state.
	ListByActor(ctx context.Context, actorID string, kind models.LikeTargetKind) ([]models.Like, error)
}
