package app

import (
	"context"
	"log/slog"

	"github.com/hartmath/woovb/internal/auth"
	"github.com/hartmath/woovb/internal/config"
	"github.com/hartmath/woovb/internal/handlers"
	"github.com/hartmath/woovb/internal/middleware"
	"github.com/hartmath/woovb/internal/repositories"
	"github.com/hartmath/woovb/internal/storage"
	"github.com/hartmath/woovb/internal/thumbnails"
	"github.com/hartmath/woovb/internal/videos"
)

// components holds the long-lived collaborators of the serve and backfill commands.
type components struct {
	handlers   handlers.Dependencies
	generator  *thumbnails.Generator
	backfiller *thumbnails.Backfiller
	// queue is nil until startQueue is called.
	queue *thumbnails.Queue
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers and the thumbnail pipeline.
func buildDependencies(ctx context.Context, store repositories.Store, cfg config.Config) (*components, error) {
	local, err := storage.NewLocal(cfg.VideoDir, cfg.ThumbnailDir)
	if err != nil {
		return nil, err
	}

	generator := &thumbnails.Generator{
		Acquirer:     thumbnails.NewAcquirer(thumbnails.NewFFmpegExtractor(cfg.FFmpegPath, cfg.FFmpegTimeout)),
		Store:        store.Videos(),
		VideoDir:     local.VideoDir,
		ThumbnailDir: local.ThumbnailDir,
		Offset:       cfg.ThumbnailOffset,
	}

	deps := handlers.Dependencies{
		Users:          store.Users(),
		Sessions:       auth.NewManager([]byte(cfg.SessionSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL, store.Sessions()),
		Videos:         store.Videos(),
		Feed:           videos.NewFeedCache(store.Videos(), cfg.FeedCacheTTL),
		Storage:        local,
		RateLimiter:    middleware.PerMinute(cfg.AuthRateLimit),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	if cfg.ObjectStore.Enabled() {
		mirror, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, err
		}
		deps.Mirror = mirror
		generator.Mirror = mirror
	}

	return &components{
		handlers:   deps,
		generator:  generator,
		backfiller: &thumbnails.Backfiller{Videos: store.Videos(), Generator: generator},
	}, nil
}

// startQueue launches the background thumbnail workers and routes uploads to them.
func (c *components) startQueue(cfg config.Config, logger *slog.Logger) *thumbnails.Queue {
	c.queue = thumbnails.NewQueue(c.generator, thumbnails.QueueConfig{
		QueueSize:  cfg.ThumbnailQueueSize,
		Workers:    cfg.ThumbnailWorkers,
		JobTimeout: cfg.FFmpegTimeout * 2,
	}, logger)
	c.handlers.Thumbnails = c.queue
	return c.queue
}
