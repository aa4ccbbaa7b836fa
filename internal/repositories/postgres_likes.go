package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const likeColumns = `id, liked_by, target_kind, target_id, is_liked, created_at, updated_at`

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

func scanLike(row rowScanner) (models.Like, error) {
	var like models.Like
	err := row.Scan(&like.ID, &like.LikedBy, &like.Target.Kind, &like.Target.ID,
		&like.IsLiked, &like.CreatedAt, &like.UpdatedAt)
	if err != nil {
		return models.Like{}, err
	}
	return like, nil
}

// Toggle inserts a liked row or negates the existing one for the
// (actor, target) pair. The unique index on (liked_by, target_kind,
// target_id) makes the whole toggle a single atomic upsert, so two
// concurrent toggles cannot produce duplicate rows.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, actorID string, target models.LikeTarget) (models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Like{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	like, err := scanLike(conn.QueryRow(ctx, `
        INSERT INTO likes (id, liked_by, target_kind, target_id, is_liked, created_at, updated_at)
        VALUES ($1, $2, $3, $4, TRUE, now(), now())
        ON CONFLICT (liked_by, target_kind, target_id)
        DO UPDATE SET is_liked = NOT likes.is_liked, updated_at = now()
        RETURNING `+likeColumns,
		uuid.NewString(), actorID, target.Kind, target.ID))
	if err != nil {
		return models.Like{}, fmt.Errorf("toggle like: %w", err)
	}

	return like, nil
}

// ListByActor returns the actor's like rows for targets of one kind.
// Rows toggled back to unliked are included; filtering them is a
// caller decision.
func (r *PostgresLikeRepository) ListByActor(ctx context.Context, actorID string, kind models.LikeTargetKind) ([]models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+likeColumns+` FROM likes
        WHERE liked_by = $1 AND target_kind = $2
        ORDER BY created_at DESC
    `, actorID, kind)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	var likes []models.Like
	for rows.Next() {
		like, err := scanLike(rows)
		if err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		likes = append(likes, like)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}

	return likes, nil
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
