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

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/models"
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

func TestPostgresUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	dup := user
	dup.ID = uuid.NewString()
	dup.Email = "other@example.com"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}

	byUsername, err := repo.FindByIdentifier(ctx, user.Username)
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if byUsername.ID != user.ID {
		t.Fatalf("unexpected user by username: %+v", byUsername)
	}

	byEmail, err := repo.FindByIdentifier(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Fatalf("unexpected user by email: %+v", byEmail)
	}

	if _, err := repo.FindByIdentifier(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown identifier, got %v", err)
	}

	updated, err := repo.UpdateDetails(ctx, user.ID, "Alice Updated", "alice-new@example.com")
	if err != nil {
		t.Fatalf("update details: %v", err)
	}
	if updated.FullName != "Alice Updated" || updated.Email != "alice-new@example.com" {
		t.Fatalf("expected updated fields to persist, got %+v", updated)
	}
}

func TestPostgresUserRepository_RefreshTokenRotation(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "rotator")

	first := uuid.NewString()
	if err := repo.SetRefreshToken(ctx, user.ID, first); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}

	second := uuid.NewString()
	if err := repo.SwapRefreshToken(ctx, user.ID, first, second); err != nil {
		t.Fatalf("swap with current token: %v", err)
	}

	// The superseded token must no longer rotate.
	if err := repo.SwapRefreshToken(ctx, user.ID, first, uuid.NewString()); !errors.Is(err, auth.ErrTokenStale) {
		t.Fatalf("expected ErrTokenStale for superseded token, got %v", err)
	}

	if err := repo.ClearRefreshToken(ctx, user.ID); err != nil {
		t.Fatalf("clear refresh token: %v", err)
	}

	if err := repo.SwapRefreshToken(ctx, user.ID, second, uuid.NewString()); !errors.Is(err, auth.ErrTokenStale) {
		t.Fatalf("expected ErrTokenStale after revocation, got %v", err)
	}
}

func TestPostgresVideoRepository_ListSearchAndPagination(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)

	owner := createTestUser(t, userRepo, "creator")
	viewer := createTestUser(t, userRepo, "viewer")

	base := time.Now().UTC().Add(-time.Hour)
	titles := []string{"Go concurrency basics", "Go generics deep dive", "Baking bread"}
	for i, title := range titles {
		video := testVideo(owner.ID, title)
		video.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := videoRepo.Create(ctx, video); err != nil {
			t.Fatalf("create video %q: %v", title, err)
		}
	}

	draft := testVideo(owner.ID, "Unlisted draft")
	draft.IsPublished = false
	if err := videoRepo.Create(ctx, draft); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	views, total, err := videoRepo.List(ctx, VideoQuery{
		Search:        "go",
		ViewerID:      viewer.ID,
		SortBy:        "createdAt",
		OnlyPublished: true,
		Page:          models.Page{Number: 1, Limit: 10},
	})
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if total != 2 || len(views) != 2 {
		t.Fatalf("expected 2 matches for search, got total=%d len=%d", total, len(views))
	}
	if views[0].CreatedAt.Before(views[1].CreatedAt) {
		t.Fatalf("expected newest first, got %+v", views)
	}
	if views[0].Owner.Username != owner.Username {
		t.Fatalf("expected owner profile on view, got %+v", views[0].Owner)
	}

	page2, total, err := videoRepo.List(ctx, VideoQuery{
		OwnerID:       owner.ID,
		ViewerID:      viewer.ID,
		SortBy:        "createdAt",
		OnlyPublished: true,
		Page:          models.Page{Number: 2, Limit: 2},
	})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if total != 3 || len(page2) != 1 {
		t.Fatalf("expected total=3 with 1 entry on page 2, got total=%d len=%d", total, len(page2))
	}

	meta := models.NewPageMeta(models.Page{Number: 2, Limit: 2}, total)
	if meta.HasNextPage || !meta.HasPrevPage || meta.TotalPages != 2 {
		t.Fatalf("unexpected page meta: %+v", meta)
	}
}

func TestPostgresVideoRepository_OwnerScopedWrites(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)

	owner := createTestUser(t, userRepo, "owner")
	intruder := createTestUser(t, userRepo, "intruder")

	video := testVideo(owner.ID, "Original title")
	if err := videoRepo.Create(ctx, video); err != nil {
		t.Fatalf("create video: %v", err)
	}

	if _, err := videoRepo.UpdateDetails(ctx, video.ID, intruder.ID, "Hijacked", "", "", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating someone else's video, got %v", err)
	}
	if err := videoRepo.Delete(ctx, video.ID, intruder.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting someone else's video, got %v", err)
	}

	published, err := videoRepo.TogglePublish(ctx, video.ID, owner.ID)
	if err != nil {
		t.Fatalf("toggle publish: %v", err)
	}
	if published {
		t.Fatalf("expected publish toggle to flip true to false")
	}

	if err := videoRepo.Delete(ctx, video.ID, owner.ID); err != nil {
		t.Fatalf("delete own video: %v", err)
	}
	if _, err := videoRepo.FindByID(ctx, video.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPostgresLikeRepository_ToggleAndList(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	likeRepo := NewPostgresLikeRepository(testPool)

	owner := createTestUser(t, userRepo, "uploader")
	fan := createTestUser(t, userRepo, "fan")

	video := testVideo(owner.ID, "Likeable")
	if err := videoRepo.Create(ctx, video); err != nil {
		t.Fatalf("create video: %v", err)
	}

	liked, err := likeRepo.Toggle(ctx, fan.ID, LikeTargetVideo, video.ID)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !liked {
		t.Fatalf("expected first toggle to like")
	}

	exists, err := likeRepo.Exists(ctx, fan.ID, LikeTargetVideo, video.ID)
	if err != nil {
		t.Fatalf("check like exists: %v", err)
	}
	if !exists {
		t.Fatalf("expected like row after toggle on")
	}

	videos, total, err := likeRepo.LikedVideos(ctx, fan.ID, models.Page{Number: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list liked videos: %v", err)
	}
	if total != 1 || len(videos) != 1 || videos[0].ID != video.ID {
		t.Fatalf("unexpected liked videos: total=%d %+v", total, videos)
	}
	if !videos[0].IsLiked || videos[0].LikeCount != 1 {
		t.Fatalf("expected viewer-relative like flags, got %+v", videos[0])
	}

	liked, err = likeRepo.Toggle(ctx, fan.ID, LikeTargetVideo, video.ID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if liked {
		t.Fatalf("expected second toggle to unlike")
	}

	if _, total, err = likeRepo.LikedVideos(ctx, fan.ID, models.Page{Number: 1, Limit: 10}); err != nil || total != 0 {
		t.Fatalf("expected empty liked list after unlike, total=%d err=%v", total, err)
	}
}

func TestPostgresCommentRepository_ListWithViewerFlags(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	commentRepo := NewPostgresCommentRepository(testPool)

	owner := createTestUser(t, userRepo, "host")
	commenter := createTestUser(t, userRepo, "guest")

	video := testVideo(owner.ID, "Discussed")
	if err := videoRepo.Create(ctx, video); err != nil {
		t.Fatalf("create video: %v", err)
	}

	now := time.Now().UTC()
	mine := models.Comment{ID: uuid.NewString(), VideoID: video.ID, OwnerID: commenter.ID,
		Content: "first", CreatedAt: now.Add(-time.Minute), UpdatedAt: now.Add(-time.Minute)}
	theirs := models.Comment{ID: uuid.NewString(), VideoID: video.ID, OwnerID: owner.ID,
		Content: "reply", CreatedAt: now, UpdatedAt: now}
	for _, c := range []models.Comment{mine, theirs} {
		if err := commentRepo.Create(ctx, c); err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}

	comments, total, err := commentRepo.ListForVideo(ctx, video.ID, commenter.ID, models.Page{Number: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if total != 2 || len(comments) != 2 {
		t.Fatalf("expected 2 comments, got total=%d len=%d", total, len(comments))
	}
	for _, c := range comments {
		wantOwner := c.ID == mine.ID
		if c.IsOwner != wantOwner {
			t.Fatalf("comment %s isOwner=%v, want %v", c.ID, c.IsOwner, wantOwner)
		}
	}

	if _, err := commentRepo.UpdateContent(ctx, theirs.ID, commenter.ID, "edited"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound editing someone else's comment, got %v", err)
	}
	if err := commentRepo.Delete(ctx, mine.ID, commenter.ID); err != nil {
		t.Fatalf("delete own comment: %v", err)
	}
}

func TestPostgresPlaylistRepository_OrderedEntries(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	playlistRepo := NewPostgresPlaylistRepository(testPool)

	owner := createTestUser(t, userRepo, "curator")
	now := time.Now().UTC()
	playlist := models.Playlist{ID: uuid.NewString(), OwnerID: owner.ID, Name: "Favorites",
		Description: "best of", CreatedAt: now, UpdatedAt: now}
	if err := playlistRepo.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	clash := playlist
	clash.ID = uuid.NewString()
	if err := playlistRepo.Create(ctx, clash); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate playlist name, got %v", err)
	}

	first := testVideo(owner.ID, "First")
	second := testVideo(owner.ID, "Second")
	for _, v := range []models.Video{first, second} {
		if err := videoRepo.Create(ctx, v); err != nil {
			t.Fatalf("create video: %v", err)
		}
	}

	if err := playlistRepo.AddVideo(ctx, playlist.ID, owner.ID, first.ID); err != nil {
		t.Fatalf("add first video: %v", err)
	}
	if err := playlistRepo.AddVideo(ctx, playlist.ID, owner.ID, second.ID); err != nil {
		t.Fatalf("add second video: %v", err)
	}
	if err := playlistRepo.AddVideo(ctx, playlist.ID, uuid.NewString(), first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound adding to someone else's playlist, got %v", err)
	}

	view, err := playlistRepo.GetView(ctx, playlist.ID, owner.ID)
	if err != nil {
		t.Fatalf("get playlist view: %v", err)
	}
	if len(view.Videos) != 2 || view.Videos[0].ID != first.ID || view.Videos[1].ID != second.ID {
		t.Fatalf("expected insertion order preserved, got %+v", view.Videos)
	}
	if view.Owner.Username != owner.Username {
		t.Fatalf("expected owner profile on playlist view, got %+v", view.Owner)
	}

	if err := playlistRepo.RemoveVideo(ctx, playlist.ID, owner.ID, first.ID); err != nil {
		t.Fatalf("remove video: %v", err)
	}

	view, err = playlistRepo.GetView(ctx, playlist.ID, owner.ID)
	if err != nil {
		t.Fatalf("get playlist view after removal: %v", err)
	}
	if len(view.Videos) != 1 || view.Videos[0].ID != second.ID {
		t.Fatalf("expected only second video to remain, got %+v", view.Videos)
	}
}

func TestPostgresSubscriptionRepository_ToggleAndProfile(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	subRepo := NewPostgresSubscriptionRepository(testPool)

	channel := createTestUser(t, userRepo, "channel")
	fan := createTestUser(t, userRepo, "follower")

	if _, err := subRepo.Toggle(ctx, fan.ID, fan.ID); !errors.Is(err, ErrSelfSubscription) {
		t.Fatalf("expected ErrSelfSubscription, got %v", err)
	}

	subscribed, err := subRepo.Toggle(ctx, fan.ID, channel.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if !subscribed {
		t.Fatalf("expected first toggle to subscribe")
	}

	profile, err := userRepo.ChannelProfile(ctx, channel.Username, fan.ID)
	if err != nil {
		t.Fatalf("channel profile: %v", err)
	}
	if profile.SubscriberCount != 1 || !profile.IsSubscribed {
		t.Fatalf("unexpected channel profile: %+v", profile)
	}

	subscribers, meta, err := subRepo.Subscribers(ctx, channel.ID, models.Page{Number: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list subscribers: %v", err)
	}
	if meta.TotalCount != 1 || len(subscribers) != 1 || subscribers[0].ID != fan.ID {
		t.Fatalf("unexpected subscribers: %+v meta=%+v", subscribers, meta)
	}

	channels, _, err := subRepo.SubscribedChannels(ctx, fan.ID, models.Page{Number: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list subscribed channels: %v", err)
	}
	if len(channels) != 1 || channels[0].ID != channel.ID {
		t.Fatalf("unexpected subscribed channels: %+v", channels)
	}

	subscribed, err = subRepo.Toggle(ctx, fan.ID, channel.ID)
	if err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if subscribed {
		t.Fatalf("expected second toggle to unsubscribe")
	}

	profile, err = userRepo.ChannelProfile(ctx, channel.Username, fan.ID)
	if err != nil {
		t.Fatalf("channel profile after unsubscribe: %v", err)
	}
	if profile.SubscriberCount != 0 || profile.IsSubscribed {
		t.Fatalf("expected subscription gone, got %+v", profile)
	}
}

func TestPostgresUserRepository_WatchHistory(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)

	viewer := createTestUser(t, userRepo, "watcher")
	owner := createTestUser(t, userRepo, "producer")

	older := testVideo(owner.ID, "Watched first")
	newer := testVideo(owner.ID, "Watched second")
	for _, v := range []models.Video{older, newer} {
		if err := videoRepo.Create(ctx, v); err != nil {
			t.Fatalf("create video: %v", err)
		}
	}

	if err := userRepo.RecordWatch(ctx, viewer.ID, older.ID); err != nil {
		t.Fatalf("record first watch: %v", err)
	}
	if err := userRepo.RecordWatch(ctx, viewer.ID, newer.ID); err != nil {
		t.Fatalf("record second watch: %v", err)
	}
	// Rewatching bumps the entry instead of duplicating it.
	if err := userRepo.RecordWatch(ctx, viewer.ID, older.ID); err != nil {
		t.Fatalf("record rewatch: %v", err)
	}

	history, total, err := userRepo.WatchHistory(ctx, viewer.ID, models.Page{Number: 1, Limit: 10})
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if total != 2 || len(history) != 2 {
		t.Fatalf("expected 2 history entries, got total=%d len=%d", total, len(history))
	}
	if history[0].ID != older.ID {
		t.Fatalf("expected rewatched video first, got %+v", history)
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

	const stmt = "TRUNCATE TABLE watch_history, playlist_videos, playlists, subscriptions, likes, tweets, comments, videos, users CASCADE"
	if _, err := conn.Exec(ctx, stmt); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	now := time.Now().UTC()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		FullName:  "Test " + username,
		Password:  "password-hash",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user %s: %v", username, err)
	}
	return user
}

func testVideo(ownerID, title string) models.Video {
	now := time.Now().UTC()
	return models.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		VideoURL:     "https://media.example.com/" + uuid.NewString() + ".mp4",
		VideoKey:     "videos/" + uuid.NewString(),
		ThumbnailURL: "https://media.example.com/" + uuid.NewString() + ".png",
		ThumbnailKey: "thumbnails/" + uuid.NewString(),
		Title:        title,
		Description:  "about " + title,
		Duration:     42,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
