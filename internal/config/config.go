package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config captures the runtime configuration for the woovb backend.
type Config struct {
	AppPort        int
	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string
	MigrationDir   string
	LogLevel       string

	VideoDir       string
	ThumbnailDir   string
	MaxUploadBytes int64

	FFmpegPath         string
	FFmpegTimeout      time.Duration
	ThumbnailOffset    time.Duration
	ThumbnailWorkers   int
	ThumbnailQueueSize int
	BackfillSchedule   string

	SessionSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	FeedCacheTTL    time.Duration
	AuthRateLimit   int

	ObjectStore ObjectStoreConfig
}

// ObjectStoreConfig describes the optional S3-compatible mirror for uploaded media.
type ObjectStoreConfig struct {
	Bucket        string
	Endpoint      string
	Region        string
	PublicBaseURL string
}

// Enabled reports whether a bucket has been configured.
func (c ObjectStoreConfig) Enabled() bool {
	return strings.TrimSpace(c.Bucket) != ""
}

// Load reads configuration from an optional .env file and the process environment,
// applying defaults suited to local development.
func Load() (Config, error) {
	_ = godotenv.Load()

	databaseURL := firstNonEmpty(os.Getenv("WOOVB_DATABASE_URL"), os.Getenv("DATABASE_URL"), os.Getenv("POSTGRES_URL"))

	cfg := Config{
		AppPort:        getInt("WOOVB_PORT", 8080),
		DatabaseDriver: strings.ToLower(getString("WOOVB_DATABASE_DRIVER", defaultDriver(databaseURL))),
		DatabaseURL:    databaseURL,
		SQLitePath:     getString("WOOVB_SQLITE_PATH", "video_platform.db"),
		MigrationDir:   getString("WOOVB_MIGRATIONS", "migrations"),
		LogLevel:       getString("WOOVB_LOG_LEVEL", "info"),

		VideoDir:       getString("WOOVB_VIDEO_DIR", "uploads/videos"),
		ThumbnailDir:   getString("WOOVB_THUMBNAIL_DIR", "uploads/thumbnails"),
		MaxUploadBytes: getInt64("WOOVB_MAX_UPLOAD_BYTES", 50*1024*1024),

		FFmpegPath:         getString("WOOVB_FFMPEG_PATH", "ffmpeg"),
		FFmpegTimeout:      getDuration("WOOVB_FFMPEG_TIMEOUT", 10*time.Second),
		ThumbnailOffset:    getDuration("WOOVB_THUMBNAIL_OFFSET", 2*time.Second),
		ThumbnailWorkers:   getInt("WOOVB_THUMBNAIL_WORKERS", 1),
		ThumbnailQueueSize: getInt("WOOVB_THUMBNAIL_QUEUE_SIZE", 16),
		BackfillSchedule:   getString("WOOVB_BACKFILL_SCHEDULE", ""),

		SessionSecret:   getString("WOOVB_SESSION_SECRET", ""),
		AccessTokenTTL:  getDuration("WOOVB_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("WOOVB_REFRESH_TOKEN_TTL", 24*time.Hour),
		FeedCacheTTL:    getDuration("WOOVB_FEED_CACHE_TTL", 5*time.Second),
		AuthRateLimit:   getInt("WOOVB_AUTH_RATE_LIMIT", 10),

		ObjectStore: ObjectStoreConfig{
			Bucket:        getString("WOOVB_S3_BUCKET", ""),
			Endpoint:      getString("WOOVB_S3_ENDPOINT", ""),
			Region:        getString("WOOVB_S3_REGION", "us-east-1"),
			PublicBaseURL: getString("WOOVB_S3_PUBLIC_BASE_URL", ""),
		},
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("database driver %q requires WOOVB_DATABASE_URL", cfg.DatabaseDriver)
		}
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	return cfg, nil
}

// SlogLevel maps the configured log level onto a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultDriver(databaseURL string) string {
	if databaseURL != "" {
		return DriverPostgres
	}
	return DriverSQLite
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
