package thumbnails

import (
	"context"
	"errors"
	"fmt"

	"github.com/hartmath/woovb/internal/logging"
	"github.com/hartmath/woovb/internal/models"
)

// VideoLister lists every known video record.
type VideoLister interface {
	ListAll(ctx context.Context) ([]models.Video, error)
}

// Summary reports the outcome of a backfill run.
type Summary struct {
	Total           int `json:"total"`
	Attempted       int `json:"attempted"`
	Processed       int `json:"processed"`
	SkippedExisting int `json:"skippedExisting"`
	SkippedMissing  int `json:"skippedMissing"`
	Failed          int `json:"failed"`
}

// Skipped counts records that were not processed for a benign reason.
func (s Summary) Skipped() int {
	return s.SkippedExisting + s.SkippedMissing
}

func (s Summary) String() string {
	return fmt.Sprintf("total=%d processed=%d skipped=%d (existing=%d missing=%d) failed=%d",
		s.Total, s.Processed, s.Skipped(), s.SkippedExisting, s.SkippedMissing, s.Failed)
}

// Backfiller generates thumbnails for records that do not have one yet.
type Backfiller struct {
	Videos    VideoLister
	Generator interface {
		Generate(ctx context.Context, video models.Video) (string, error)
	}
}

// Run walks every record sequentially. Records that already carry a thumbnail
// are never touched, and each record is updated only after its own file was
// written, so an interrupted run can simply be repeated.
func (b *Backfiller) Run(ctx context.Context) (summary Summary, err error) {
	ctx, span := logging.StartSpan(ctx, "thumbnail_backfill")
	defer func() {
		span.Fail(err)
		span.End()
	}()
	logger := logging.FromContext(ctx)

	if b == nil || b.Videos == nil || b.Generator == nil {
		return Summary{}, errors.New("thumbnail backfill not configured")
	}

	videos, err := b.Videos.ListAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list videos: %w", err)
	}
	summary.Total = len(videos)

	for _, video := range videos {
		if err := ctx.Err(); err != nil {
			logger.Warn("thumbnail backfill interrupted", "summary", summary.String())
			return summary, err
		}

		if video.HasThumbnail() {
			summary.SkippedExisting++
			continue
		}

		summary.Attempted++
		name, err := b.Generator.Generate(ctx, video)
		switch {
		case err == nil:
			summary.Processed++
			logger.Info("thumbnail generated", "video_id", video.ID, "thumbnail", name)
		case errors.Is(err, ErrSourceMissing):
			summary.SkippedMissing++
			logger.Warn("video file not found, skipping", "video_id", video.ID, "filename", video.Filename)
		default:
			summary.Failed++
			logger.Error("thumbnail generation failed", "video_id", video.ID, "error", err)
		}
	}

	logger.Info("thumbnail backfill complete",
		"total", summary.Total,
		"processed", summary.Processed,
		"skipped", summary.Skipped(),
		"skipped_missing", summary.SkippedMissing,
		"failed", summary.Failed,
	)
	return summary, nil
}
