package thumbnails

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/hartmath/woovb/internal/logging"
	"github.com/hartmath/woovb/internal/models"
)

// ThumbnailSetter persists the thumbnail filename for a video record.
type ThumbnailSetter interface {
	SetThumbnail(ctx context.Context, videoID, filename string) error
}

// AssetStorage mirrors produced files to a remote location.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Generator acquires the thumbnail for one video record and records it.
type Generator struct {
	Acquirer     *Acquirer
	Store        ThumbnailSetter
	VideoDir     string
	ThumbnailDir string
	Offset       time.Duration
	// Mirror is optional; failures to mirror never fail generation.
	Mirror AssetStorage
}

// Generate produces the thumbnail for video and, only once the file exists,
// stores its filename on the record.
func (g *Generator) Generate(ctx context.Context, video models.Video) (string, error) {
	if g == nil || g.Store == nil {
		return "", errors.New("thumbnail generator not configured")
	}

	videoPath := filepath.Join(g.VideoDir, video.Filename)
	if _, err := os.Stat(videoPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSourceMissing, videoPath)
		}
		return "", fmt.Errorf("stat video %s: %w", videoPath, err)
	}

	offset := g.Offset
	if offset <= 0 {
		offset = DefaultOffset
	}

	name := FileName(video.ID)
	if !g.Acquirer.Acquire(ctx, videoPath, filepath.Join(g.ThumbnailDir, name), offset) {
		return "", fmt.Errorf("%w: %s", ErrAcquireFailed, video.ID)
	}

	if err := g.Store.SetThumbnail(ctx, video.ID, name); err != nil {
		return "", fmt.Errorf("record thumbnail for %s: %w", video.ID, err)
	}

	g.mirror(ctx, name)
	return name, nil
}

func (g *Generator) mirror(ctx context.Context, name string) {
	if g.Mirror == nil {
		return
	}
	logger := logging.FromContext(ctx)

	f, err := os.Open(filepath.Join(g.ThumbnailDir, name))
	if err != nil {
		logger.Warn("open thumbnail for mirroring", "thumbnail", name, "error", err)
		return
	}
	defer f.Close()

	location, err := g.Mirror.Save(ctx, path.Join("thumbnails", name), f)
	if err != nil {
		logger.Warn("mirror thumbnail", "thumbnail", name, "error", err)
		return
	}
	logger.Debug("thumbnail mirrored", "thumbnail", name, "location", location)
}
