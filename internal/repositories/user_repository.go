package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByLogin(ctx context.Context, usernameOrEmail string) (models.User, error)
	UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRefreshToken(ctx context.Context, id, refreshToken string) error
	UpdateAvatar(ctx context.Context, id string, avatar models.MediaAsset) (models.User, error)
	UpdateCoverImage(ctx context.Context, id string, cover models.MediaAsset) (models.User, error)
	AppendWatchHistory(ctx context.Context, id, videoID string) error
	Summaries(ctx context.Context, ids []string) (map[string]models.OwnerSummary, error)
	WatchHistory(ctx context.Context, id string) ([]models.WatchHistoryEntry, error)
}
