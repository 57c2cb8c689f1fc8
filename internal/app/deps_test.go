package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hartmath/woovb/internal/config"
	"github.com/hartmath/woovb/internal/models"
	"github.com/hartmath/woovb/internal/repositories"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		DatabaseDriver:     config.DriverSQLite,
		SQLitePath:         ":memory:",
		VideoDir:           filepath.Join(dir, "videos"),
		ThumbnailDir:       filepath.Join(dir, "thumbnails"),
		MaxUploadBytes:     1 << 20,
		FFmpegPath:         filepath.Join(dir, "no-ffmpeg"),
		FFmpegTimeout:      time.Second,
		ThumbnailOffset:    2 * time.Second,
		ThumbnailWorkers:   1,
		ThumbnailQueueSize: 4,
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
		FeedCacheTTL:       time.Second,
		AuthRateLimit:      10,
	}
}

func openStore(t *testing.T, cfg config.Config) repositories.Store {
	t.Helper()
	store, err := repositories.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBuildDependencies(t *testing.T) {
	cfg := testConfig(t)
	comps, err := buildDependencies(context.Background(), openStore(t, cfg), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deps := comps.handlers
	if deps.Users == nil || deps.Videos == nil {
		t.Fatal("expected repositories to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Feed == nil || deps.Storage == nil || deps.RateLimiter == nil {
		t.Fatal("expected feed, storage and rate limiter to be configured")
	}
	if deps.Mirror != nil {
		t.Fatal("expected no object mirror without a bucket")
	}
	if deps.Thumbnails != nil {
		t.Fatal("expected thumbnail queue to start only on demand")
	}
	if comps.generator.Offset != cfg.ThumbnailOffset {
		t.Fatalf("unexpected offset %s", comps.generator.Offset)
	}

	queue := comps.startQueue(cfg, nil)
	defer queue.Shutdown(context.Background())
	if comps.handlers.Thumbnails == nil {
		t.Fatal("expected uploads to be routed to the queue")
	}
}

func TestBuildDependenciesWithObjectStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.ObjectStore = config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"}
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	comps, err := buildDependencies(context.Background(), openStore(t, cfg), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comps.handlers.Mirror == nil || comps.generator.Mirror == nil {
		t.Fatal("expected object mirror to be configured")
	}
}

func TestBackfillCommandFillsMissingThumbnails(t *testing.T) {
	cfg := testConfig(t)
	store := openStore(t, cfg)
	comps, err := buildDependencies(context.Background(), store, cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ctx := context.Background()
	if err := store.Users().Create(ctx, models.User{ID: "u1", Username: "alice", Email: "alice@example.com", Password: "x", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := store.Videos().Create(ctx, models.Video{ID: "VID-000000000001", OwnerID: "u1", Title: "t", Filename: "VID-000000000001.mp4", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("create video: %v", err)
	}
	if _, err := comps.handlers.Storage.SaveVideo("VID-000000000001.mp4", strings.NewReader("data"), 0); err != nil {
		t.Fatalf("save video: %v", err)
	}

	summary, err := comps.backfiller.Run(ctx)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if summary.Processed != 1 {
		t.Fatalf("unexpected summary %s", summary)
	}

	video, err := store.Videos().FindByID(ctx, "VID-000000000001")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if video.Thumbnail != "VID-000000000001.jpg" {
		t.Fatalf("thumbnail not recorded, got %q", video.Thumbnail)
	}
}
