package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipstream/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	dup := user
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict creating duplicate username, got %v", err)
	}

	fetched, err := repo.FindByLogin(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("find by login: %v", err)
	}
	if fetched.ID != user.ID || fetched.Username != "alice" {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	if _, err := repo.FindByUsername(ctx, "ALICE"); err != nil {
		t.Fatalf("expected case-folded username lookup to succeed: %v", err)
	}

	updated, err := repo.UpdateDetails(ctx, user.ID, "Alice Renamed", "")
	if err != nil {
		t.Fatalf("update details: %v", err)
	}
	if updated.FullName != "Alice Renamed" {
		t.Fatalf("expected full name updated, got %q", updated.FullName)
	}
	if updated.Email != user.Email {
		t.Fatalf("expected blank email to leave the column untouched, got %q", updated.Email)
	}

	if err := repo.UpdateRefreshToken(ctx, user.ID, "refresh-1"); err != nil {
		t.Fatalf("store refresh token: %v", err)
	}
	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.RefreshToken != "refresh-1" {
		t.Fatalf("expected refresh token persisted, got %q", fetched.RefreshToken)
	}

	if err := repo.UpdateRefreshToken(ctx, user.ID, ""); err != nil {
		t.Fatalf("clear refresh token: %v", err)
	}
	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id after clear: %v", err)
	}
	if fetched.RefreshToken != "" {
		t.Fatalf("expected refresh token cleared, got %q", fetched.RefreshToken)
	}

	if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestPostgresUserRepository_WatchHistory(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)

	viewer := createTestUser(t, userRepo, "viewer")
	owner := createTestUser(t, userRepo, "owner")

	first := createTestVideo(t, videoRepo, owner.ID, "First")
	second := createTestVideo(t, videoRepo, owner.ID, "Second")

	if err := userRepo.AppendWatchHistory(ctx, viewer.ID, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound appending unknown video, got %v", err)
	}

	for _, videoID := range []string{second.ID, first.ID, second.ID} {
		if err := userRepo.AppendWatchHistory(ctx, viewer.ID, videoID); err != nil {
			t.Fatalf("append watch history: %v", err)
		}
	}

	entries, err := userRepo.WatchHistory(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Video.ID != second.ID || entries[1].Video.ID != first.ID || entries[2].Video.ID != second.ID {
		t.Fatalf("watch order not preserved: %+v", entries)
	}
	if entries[0].Owner.Username != "owner" {
		t.Fatalf("expected owner projection resolved, got %+v", entries[0].Owner)
	}
}

func TestPostgresLikeRepository_ToggleIsAtomicUpsert(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	repo := NewPostgresLikeRepository(testPool)

	actor := createTestUser(t, userRepo, "actor")
	video := createTestVideo(t, videoRepo, actor.ID, "Clip")
	target := models.LikeTarget{Kind: models.LikeTargetVideo, ID: video.ID}

	liked, err := repo.Toggle(ctx, actor.ID, target)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !liked.IsLiked {
		t.Fatalf("expected first toggle to like, got %+v", liked)
	}

	unliked, err := repo.Toggle(ctx, actor.ID, target)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if unliked.IsLiked {
		t.Fatalf("expected second toggle to unlike, got %+v", unliked)
	}
	if unliked.ID != liked.ID {
		t.Fatalf("expected the same row flipped in place, got %s then %s", liked.ID, unliked.ID)
	}

	// Unliked rows stay in the listing.
	likes, err := repo.ListByActor(ctx, actor.ID, models.LikeTargetVideo)
	if err != nil {
		t.Fatalf("list likes: %v", err)
	}
	if len(likes) != 1 || likes[0].IsLiked {
		t.Fatalf("expected one unliked row, got %+v", likes)
	}
}

func TestPostgresCommentRepository_ReplyTransaction(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	repo := NewPostgresCommentRepository(testPool)

	author := createTestUser(t, userRepo, "author")
	video := createTestVideo(t, videoRepo, author.ID, "Clip")

	root := models.Comment{
		ID:          uuid.NewString(),
		CommentedBy: author.ID,
		VideoID:     video.ID,
		Content:     "root",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.Create(ctx, root); err != nil {
		t.Fatalf("create root comment: %v", err)
	}

	reply := models.Comment{
		ID:          uuid.NewString(),
		CommentedBy: author.ID,
		Content:     "reply",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.CreateReply(ctx, reply, root.ID); err != nil {
		t.Fatalf("create reply: %v", err)
	}

	parent, err := repo.Find(ctx, root.ID)
	if err != nil {
		t.Fatalf("find parent: %v", err)
	}
	if len(parent.Replies) != 1 || parent.Replies[0] != reply.ID {
		t.Fatalf("expected reply appended to parent, got %+v", parent.Replies)
	}

	orphan := models.Comment{
		ID:          uuid.NewString(),
		CommentedBy: author.ID,
		Content:     "orphan",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.CreateReply(ctx, orphan, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound replying to missing parent, got %v", err)
	}

	// The transaction rolled back, so the orphan insert must not survive.
	if _, err := repo.Find(ctx, orphan.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected orphan reply rolled back, got %v", err)
	}

	replies, err := repo.DeleteReturningReplies(ctx, root.ID)
	if err != nil {
		t.Fatalf("delete root: %v", err)
	}
	if len(replies) != 1 || replies[0] != reply.ID {
		t.Fatalf("expected deleted root to report its reply ids, got %+v", replies)
	}

	if _, err := repo.DeleteReturningReplies(ctx, root.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestPostgresSubscriptionRepository_UniquePair(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	repo := NewPostgresSubscriptionRepository(testPool)

	subscriber := createTestUser(t, userRepo, "subscriber")
	channel := createTestUser(t, userRepo, "channel")

	sub := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriber.ID,
		ChannelID:    channel.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(ctx, sub); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	dup := sub
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate pair, got %v", err)
	}

	edges, err := repo.ListByChannel(ctx, channel.ID)
	if err != nil {
		t.Fatalf("list by channel: %v", err)
	}
	if len(edges) != 1 || edges[0].SubscriberID != subscriber.ID {
		t.Fatalf("unexpected channel edges: %+v", edges)
	}

	if err := repo.DeleteByPair(ctx, subscriber.ID, channel.ID); err != nil {
		t.Fatalf("delete subscription: %v", err)
	}
	if err := repo.DeleteByPair(ctx, subscriber.ID, channel.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestPostgresPlaylistRepository_AddVideosSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	repo := NewPostgresPlaylistRepository(testPool)

	owner := createTestUser(t, userRepo, "owner")
	first := createTestVideo(t, videoRepo, owner.ID, "First")
	second := createTestVideo(t, videoRepo, owner.ID, "Second")

	playlist := models.Playlist{
		ID:        uuid.NewString(),
		Name:      "Favorites",
		OwnerID:   owner.ID,
		Videos:    []string{},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	updated, err := repo.AddVideos(ctx, playlist.ID, []string{first.ID})
	if err != nil {
		t.Fatalf("add first video: %v", err)
	}
	if len(updated.Videos) != 1 {
		t.Fatalf("expected 1 video, got %+v", updated.Videos)
	}

	updated, err = repo.AddVideos(ctx, playlist.ID, []string{first.ID, second.ID})
	if err != nil {
		t.Fatalf("add videos again: %v", err)
	}
	if len(updated.Videos) != 2 {
		t.Fatalf("expected duplicate skipped, got %+v", updated.Videos)
	}
	if updated.Videos[0] != first.ID || updated.Videos[1] != second.ID {
		t.Fatalf("unexpected video order: %+v", updated.Videos)
	}

	updated, err = repo.RemoveVideo(ctx, playlist.ID, first.ID)
	if err != nil {
		t.Fatalf("remove video: %v", err)
	}
	if len(updated.Videos) != 1 || updated.Videos[0] != second.ID {
		t.Fatalf("expected only the second video left, got %+v", updated.Videos)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE likes, comments, playlists, tweets, subscriptions, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		Password:  "password-hash",
		FullName:  "Test " + username,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user %s: %v", username, err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *PostgresVideoRepository, ownerID, title string) models.Video {
	t.Helper()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		VideoFile:   models.MediaAsset{URL: "https://cdn.example.com/" + title, Key: "videos/" + title},
		Title:       title,
		IsPublished: true,
		Duration:    42,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video %s: %v", title, err)
	}
	return video
}
