package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// PlaylistRepository exposes data access for playlists.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	Find(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, playlist models.Playlist) (models.Playlist, error)
	// AddVideos appends the given video ids, skipping any already
	// present, in one atomic update.
	AddVideos(ctx context.Context, id string, videoIDs []string) (models.Playlist, error)
	RemoveVideo(ctx context.Context, id, videoID string) (models.Playlist, error)
	Delete(ctx context.Context, id string) (models.Playlist, error)
}
