package app

import (
	"context"
	"log/slog"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/comments"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/social"
	"github.com/clipstream/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the
// HTTP handlers. The returned janitor must be shut down by the caller.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, *media.Janitor, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	commentRepo := repositories.NewPostgresCommentRepository(pool)
	likes := repositories.NewPostgresLikeRepository(pool)
	playlists := repositories.NewPostgresPlaylistRepository(pool)
	tweets := repositories.NewPostgresTweetRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)

	var assetStorage handlers.AssetStorage
	var janitor *media.Janitor
	if cfg.ObjectStore.Bucket != "" {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		assetStorage = s3Storage
		janitor = media.NewJanitor(s3Storage, media.JanitorConfig{
			QueueSize: cfg.JanitorQueueSize,
			Workers:   cfg.JanitorWorkers,
		}, logger)
	}

	deps := handlers.Dependencies{
		Users:     users,
		Tokens:    auth.NewTokenManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Videos:    videos,
		Comments:  comments.NewService(commentRepo, users, cfg.CommentThreadDepth, logger),
		Social:    social.NewReader(likes, subscriptions, users, videos, tweets),
		Playlists: playlists,
		Tweets:    tweets,
		Storage:   assetStorage,
		LoginLimiter: middleware.NewIPRateLimiter(
			cfg.AuthRateLimit,
			cfg.AuthRateWindow,
			cfg.AuthRateBurst,
			0,
		),
	}
	if janitor != nil {
		deps.Janitor = janitor
	}

	return deps, janitor, nil
}
