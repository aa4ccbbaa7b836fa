package repositories

import (
	"context"
	"errors"
	"fmt"

	crdbpgxv5 "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const commentColumns = `id, commented_by, video_id, content, replies, created_at, updated_at`

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

func scanComment(row rowScanner) (models.Comment, error) {
	var (
		comment models.Comment
		videoID *string
	)
	err := row.Scan(&comment.ID, &comment.CommentedBy, &videoID, &comment.Content,
		&comment.Replies, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return models.Comment{}, err
	}
	if videoID != nil {
		comment.VideoID = *videoID
	}
	return comment, nil
}

// Create persists a new root comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, commented_by, video_id, content, replies, created_at, updated_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, '{}', $5, $6)
    `, comment.ID, comment.CommentedBy, comment.VideoID, comment.Content,
		comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// CreateReply inserts the reply and appends its id to the parent's
// replies sequence inside a single retried transaction. The append is
// conditional on the parent row still existing, so a reply racing a
// cascade delete rolls back instead of leaving an orphan node.
func (r *PostgresCommentRepository) CreateReply(ctx context.Context, reply models.Comment, parentID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            INSERT INTO comments (id, commented_by, video_id, content, replies, created_at, updated_at)
            VALUES ($1, $2, NULL, $3, '{}', $4, $5)
        `, reply.ID, reply.CommentedBy, reply.Content, reply.CreatedAt, reply.UpdatedAt); err != nil {
			return fmt.Errorf("insert reply: %w", err)
		}

		tag, err := tx.Exec(ctx, `
            UPDATE comments
            SET replies = array_append(replies, $2), updated_at = now()
            WHERE id = $1
        `, parentID, reply.ID)
		if err != nil {
			return fmt.Errorf("append reply to parent: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("create reply: %w", err)
	}

	return nil
}

// Find fetches a single comment by id.
func (r *PostgresCommentRepository) Find(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `
        SELECT `+commentColumns+` FROM comments WHERE id = $1
    `, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}

	return comment, nil
}

// FindMany fetches the comments matching the given ids. Ids without a
// matching row are silently omitted, which is how dangling reply
// references disappear from populated trees.
func (r *PostgresCommentRepository) FindMany(ctx context.Context, ids []string) ([]models.Comment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+commentColumns+` FROM comments WHERE id = ANY($1)
    `, ids)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	return collectComments(rows)
}

// ListByVideo returns all root comments attached to a video, oldest first.
func (r *PostgresCommentRepository) ListByVideo(ctx context.Context, videoID string) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+commentColumns+` FROM comments
        WHERE video_id = $1
        ORDER BY created_at
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("query video comments: %w", err)
	}
	defer rows.Close()

	return collectComments(rows)
}

// UpdateContent replaces the comment's content in place.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, content string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `
        UPDATE comments
        SET content = $2, updated_at = now()
        WHERE id = $1
        RETURNING `+commentColumns, id, content))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}

	return comment, nil
}

// DeleteReturningReplies removes one comment and reports its reply ids.
func (r *PostgresCommentRepository) DeleteReturningReplies(ctx context.Context, id string) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var replies []string
	err = conn.QueryRow(ctx, `
        DELETE FROM comments WHERE id = $1 RETURNING replies
    `, id).Scan(&replies)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete comment: %w", err)
	}

	return replies, nil
}

func collectComments(rows pgx.Rows) ([]models.Comment, error) {
	var comments []models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

var _ CommentRepository = (*PostgresCommentRepository)(nil)
