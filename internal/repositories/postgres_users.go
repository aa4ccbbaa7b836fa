package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const userColumns = `id, username, email, password_hash, full_name,
        avatar_url, avatar_key, cover_image_url, cover_image_key,
        watch_history, refresh_token, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		user         models.User
		refreshToken *string
	)
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.Password, &user.FullName,
		&user.Avatar.URL, &user.Avatar.Key, &user.CoverImage.URL, &user.CoverImage.Key,
		&user.WatchHistory, &refreshToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	if refreshToken != nil {
		user.RefreshToken = *refreshToken
	}
	return user, nil
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, password_hash, full_name,
                avatar_url, avatar_key, cover_image_url, cover_image_key,
                watch_history, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '{}', $10, $11)
    `, user.ID, user.Username, user.Email, user.Password, user.FullName,
		user.Avatar.URL, user.Avatar.Key, user.CoverImage.URL, user.CoverImage.Key,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindByUsername fetches a user by their case-folded username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, `WHERE username = lower($1)`, username)
}

// FindByLogin fetches a user matching the value as username or email.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, usernameOrEmail string) (models.User, error) {
	return r.findOne(ctx, `WHERE username = lower($1) OR email = lower($1)`, usernameOrEmail)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, where string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, args...)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

// UpdateDetails replaces the user's full name and email. Empty values
// leave the corresponding column untouched.
func (r *PostgresUserRepository) UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error) {
	return r.updateReturning(ctx, `
        UPDATE users
        SET full_name = COALESCE(NULLIF($2, ''), full_name),
            email = COALESCE(NULLIF($3, ''), email),
            updated_at = now()
        WHERE id = $1
        RETURNING `+userColumns, id, fullName, email)
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `
        UPDATE users
        SET password_hash = $2, updated_at = now()
        WHERE id = $1
    `, id, passwordHash)
}

// UpdateRefreshToken stores the active refresh token for the user. An
// empty value clears it, which is how logout invalidates the session.
func (r *PostgresUserRepository) UpdateRefreshToken(ctx context.Context, id, refreshToken string) error {
	return r.exec(ctx, `
        UPDATE users
        SET refresh_token = NULLIF($2, ''), updated_at = now()
        WHERE id = $1
    `, id, refreshToken)
}

// UpdateAvatar replaces the stored avatar asset.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id string, avatar models.MediaAsset) (models.User, error) {
	return r.updateReturning(ctx, `
        UPDATE users
        SET avatar_url = $2, avatar_key = $3, updated_at = now()
        WHERE id = $1
        RETURNING `+userColumns, id, avatar.URL, avatar.Key)
}

// UpdateCoverImage replaces the stored cover image asset.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id string, cover models.MediaAsset) (models.User, error) {
	return r.updateReturning(ctx, `
        UPDATE users
        SET cover_image_url = $2, cover_image_key = $3, updated_at = now()
        WHERE id = $1
        RETURNING `+userColumns, id, cover.URL, cover.Key)
}

// AppendWatchHistory appends a video id to the user's watch history.
// The append is skipped with ErrNotFound when the video does not exist.
func (r *PostgresUserRepository) AppendWatchHistory(ctx context.Context, id, videoID string) error {
	return r.exec(ctx, `
        UPDATE users
        SET watch_history = array_append(watch_history, $2), updated_at = now()
        WHERE id = $1 AND EXISTS (SELECT 1 FROM videos WHERE id = $2)
    `, id, videoID)
}

// Summaries resolves the given user ids into display projections keyed by id.
// Ids without a matching user are absent from the result.
func (r *PostgresUserRepository) Summaries(ctx context.Context, ids []string) (map[string]models.OwnerSummary, error) {
	summaries := make(map[string]models.OwnerSummary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, username, full_name, avatar_url
        FROM users
        WHERE id = ANY($1)
    `, ids)
	if err != nil {
		return nil, fmt.Errorf("query user summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.OwnerSummary
		if err := rows.Scan(&s.ID, &s.Username, &s.FullName, &s.Avatar); err != nil {
			return nil, fmt.Errorf("scan user summary: %w", err)
		}
		summaries[s.ID] = s
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user summaries: %w", err)
	}

	return summaries, nil
}

// WatchHistory resolves the user's watch history into full videos with
// owner projections, preserving the stored sequence order.
func (r *PostgresUserRepository) WatchHistory(ctx context.Context, id string) ([]models.WatchHistoryEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.video_url, v.video_key, v.thumbnail_url, v.thumbnail_key,
               v.title, v.description, v.views, v.is_published, v.duration, v.created_at, v.updated_at,
               o.id, o.username, o.full_name, o.avatar_url
        FROM users u
        CROSS JOIN unnest(u.watch_history) WITH ORDINALITY AS h(video_id, pos)
        JOIN videos v ON v.id = h.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE u.id = $1
        ORDER BY h.pos
    `, id)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var entries []models.WatchHistoryEntry
	for rows.Next() {
		var e models.WatchHistoryEntry
		if err := rows.Scan(
			&e.Video.ID, &e.Video.OwnerID, &e.Video.VideoFile.URL, &e.Video.VideoFile.Key,
			&e.Video.Thumbnail.URL, &e.Video.Thumbnail.Key, &e.Video.Title, &e.Video.Description,
			&e.Video.Views, &e.Video.IsPublished, &e.Video.Duration, &e.Video.CreatedAt, &e.Video.UpdatedAt,
			&e.Owner.ID, &e.Owner.Username, &e.Owner.FullName, &e.Owner.Avatar,
		); err != nil {
			return nil, fmt.Errorf("scan watch history entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return entries, nil
}

func (r *PostgresUserRepository) exec(ctx context.Context, sql string, args ...any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PostgresUserRepository) updateReturning(ctx context.Context, sql string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, ErrConflict
		}
		return models.User{}, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
