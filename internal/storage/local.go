package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrTooLarge is returned when an upload exceeds the configured cap.
var ErrTooLarge = errors.New("upload exceeds size limit")

// Local stores video and thumbnail files in two directories on disk.
type Local struct {
	VideoDir     string
	ThumbnailDir string
}

// NewLocal ensures both directories exist.
func NewLocal(videoDir, thumbnailDir string) (*Local, error) {
	for _, dir := range []string{videoDir, thumbnailDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory %s: %w", dir, err)
		}
	}
	return &Local{VideoDir: videoDir, ThumbnailDir: thumbnailDir}, nil
}

// ValidName reports whether name is a bare file name that cannot escape a
// storage directory.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}

// VideoPath returns the on-disk location of a stored video.
func (l *Local) VideoPath(name string) string {
	return filepath.Join(l.VideoDir, name)
}

// ThumbnailPath returns the on-disk location of a stored thumbnail.
func (l *Local) ThumbnailPath(name string) string {
	return filepath.Join(l.ThumbnailDir, name)
}

// SaveVideo copies at most max bytes from r into the video directory. The
// file only appears under name once it was fully written.
func (l *Local) SaveVideo(name string, r io.Reader, max int64) (int64, error) {
	if !ValidName(name) {
		return 0, fmt.Errorf("invalid video name %q", name)
	}

	f, err := os.CreateTemp(l.VideoDir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	src := r
	if max > 0 {
		src = io.LimitReader(r, max+1)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("write video: %w", err)
	}
	if max > 0 && n > max {
		f.Close()
		return 0, ErrTooLarge
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return 0, fmt.Errorf("sync video: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close video: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return 0, fmt.Errorf("chmod video: %w", err)
	}
	if err := os.Rename(tmp, l.VideoPath(name)); err != nil {
		return 0, fmt.Errorf("store video: %w", err)
	}
	return n, nil
}

// RemoveVideo deletes a stored video. Missing files are not an error.
func (l *Local) RemoveVideo(name string) error {
	return removeIn(l.VideoDir, name)
}

// RemoveThumbnail deletes a stored thumbnail. Missing files are not an error.
func (l *Local) RemoveThumbnail(name string) error {
	return removeIn(l.ThumbnailDir, name)
}

func removeIn(dir, name string) error {
	if !ValidName(name) {
		return nil
	}
	if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
