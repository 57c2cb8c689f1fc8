package thumbnails

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hartmath/woovb/internal/logging"
)

const (
	// Width and Height are the fixed thumbnail dimensions.
	Width  = 640
	Height = 360

	// DefaultOffset is where in the video the frame is sampled.
	DefaultOffset = 2 * time.Second
	// DefaultTimeout bounds a single extraction process.
	DefaultTimeout = 10 * time.Second
)

// FrameExtractor writes a single still frame of videoPath to outPath.
type FrameExtractor interface {
	Extract(ctx context.Context, videoPath, outPath string, offset time.Duration) error
}

// Acquirer produces a thumbnail for a video, preferring an extracted frame and
// falling back to a generated placeholder.
type Acquirer struct {
	extractor FrameExtractor
}

// NewAcquirer returns an Acquirer. A nil extractor always uses the placeholder.
func NewAcquirer(extractor FrameExtractor) *Acquirer {
	return &Acquirer{extractor: extractor}
}

// FileName returns the thumbnail filename for a video identifier.
func FileName(videoID string) string {
	return videoID + ".jpg"
}

// Acquire writes a Width x Height image to thumbnailPath, overwriting any
// existing file. It returns false only when the source video is missing or the
// placeholder could not be written; in that case no file was produced.
func (a *Acquirer) Acquire(ctx context.Context, videoPath, thumbnailPath string, offset time.Duration) bool {
	logger := logging.FromContext(ctx).With("video_path", videoPath, "thumbnail_path", thumbnailPath)

	info, err := os.Stat(videoPath)
	if err != nil || info.IsDir() {
		logger.Warn("thumbnail source unavailable", "error", err)
		return false
	}

	if offset < 0 {
		offset = DefaultOffset
	}

	if a != nil && a.extractor != nil {
		err := a.extract(ctx, videoPath, thumbnailPath, offset)
		if err == nil {
			logger.Debug("thumbnail extracted from video")
			return true
		}
		logger.Info("frame extraction unavailable, writing placeholder", "error", err)
	}

	if err := WritePlaceholder(thumbnailPath); err != nil {
		logger.Error("write placeholder thumbnail", "error", err)
		return false
	}
	return true
}

func (a *Acquirer) extract(ctx context.Context, videoPath, thumbnailPath string, offset time.Duration) error {
	tmp, err := tempSibling(thumbnailPath, ".jpg")
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := a.extractor.Extract(ctx, videoPath, tmp, offset); err != nil {
		return err
	}
	if err := verifyDimensions(tmp); err != nil {
		return err
	}
	return commit(tmp, thumbnailPath)
}

func verifyDimensions(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open extracted frame: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("decode extracted frame: %w", err)
	}
	if cfg.Width != Width || cfg.Height != Height {
		return fmt.Errorf("extracted frame is %dx%d, want %dx%d", cfg.Width, cfg.Height, Width, Height)
	}
	return nil
}

// tempSibling creates an empty file next to path so that a later rename stays
// on the same filesystem.
func tempSibling(path, suffix string) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".thumb-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return name, nil
}

func writeAtomic(path string, encode func(io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".thumb-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := encode(f); err != nil {
		f.Close()
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync thumbnail: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close thumbnail: %w", err)
	}
	return commit(tmp, path)
}

func commit(tmp, path string) error {
	if err := os.Chmod(tmp, 0o644); err != nil {
		return fmt.Errorf("chmod thumbnail: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace thumbnail: %w", err)
	}
	return nil
}
