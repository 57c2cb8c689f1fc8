package thumbnails

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hartmath/woovb/internal/models"
)

type videoStoreStub struct {
	mu      sync.Mutex
	videos  []models.Video
	listErr error
	setErr  error
	set     map[string]string
}

func (s *videoStoreStub) ListAll(ctx context.Context) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Video, len(s.videos))
	copy(out, s.videos)
	return out, nil
}

func (s *videoStoreStub) SetThumbnail(ctx context.Context, videoID, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	if s.set == nil {
		s.set = make(map[string]string)
	}
	s.set[videoID] = filename
	for i := range s.videos {
		if s.videos[i].ID == videoID {
			s.videos[i].Thumbnail = filename
		}
	}
	return nil
}

func (s *videoStoreStub) thumbnail(videoID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set[videoID]
}

type mirrorStub struct {
	saved map[string][]byte
	err   error
}

func (m *mirrorStub) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[name] = data
	return "s3://bucket/" + name, nil
}

type fixture struct {
	videoDir string
	thumbDir string
	store    *videoStoreStub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		videoDir: t.TempDir(),
		thumbDir: t.TempDir(),
		store:    &videoStoreStub{},
	}
}

func (f *fixture) addVideo(t *testing.T, id string, onDisk bool, thumbnail string) models.Video {
	t.Helper()
	video := models.Video{ID: id, Title: id, Filename: id + ".mp4", Thumbnail: thumbnail}
	if onDisk {
		if err := os.WriteFile(filepath.Join(f.videoDir, video.Filename), []byte("video"), 0o644); err != nil {
			t.Fatalf("write video: %v", err)
		}
	}
	f.store.videos = append(f.store.videos, video)
	return video
}

func (f *fixture) generator() *Generator {
	return &Generator{
		Acquirer:     NewAcquirer(nil),
		Store:        f.store,
		VideoDir:     f.videoDir,
		ThumbnailDir: f.thumbDir,
	}
}

func TestGeneratorRecordsThumbnailAfterWriting(t *testing.T) {
	f := newFixture(t)
	video := f.addVideo(t, "VID-000000000001", true, "")
	mirror := &mirrorStub{}
	gen := f.generator()
	gen.Mirror = mirror

	name, err := gen.Generate(context.Background(), video)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if name != "VID-000000000001.jpg" {
		t.Fatalf("Generate() name = %q", name)
	}
	if got := f.store.thumbnail(video.ID); got != name {
		t.Fatalf("recorded thumbnail = %q, want %q", got, name)
	}
	data, err := os.ReadFile(filepath.Join(f.thumbDir, name))
	if err != nil {
		t.Fatalf("thumbnail not on disk: %v", err)
	}
	if !bytes.Equal(mirror.saved["thumbnails/"+name], data) {
		t.Fatal("mirrored thumbnail does not match local file")
	}
}

func TestGeneratorIgnoresMirrorFailure(t *testing.T) {
	f := newFixture(t)
	video := f.addVideo(t, "VID-000000000001", true, "")
	gen := f.generator()
	gen.Mirror = &mirrorStub{err: errors.New("bucket unavailable")}

	if _, err := gen.Generate(context.Background(), video); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
}

func TestGeneratorMissingSource(t *testing.T) {
	f := newFixture(t)
	video := f.addVideo(t, "VID-000000000001", false, "")

	_, err := f.generator().Generate(context.Background(), video)
	if !errors.Is(err, ErrSourceMissing) {
		t.Fatalf("Generate() error = %v, want ErrSourceMissing", err)
	}
	if got := f.store.thumbnail(video.ID); got != "" {
		t.Fatalf("record updated to %q for missing source", got)
	}
}

func TestGeneratorStoreFailure(t *testing.T) {
	f := newFixture(t)
	video := f.addVideo(t, "VID-000000000001", true, "")
	f.store.setErr = errors.New("database locked")

	if _, err := f.generator().Generate(context.Background(), video); err == nil {
		t.Fatal("expected error when record update fails")
	}
}

func TestBackfillCountsOutcomes(t *testing.T) {
	f := newFixture(t)
	f.addVideo(t, "VID-000000000001", true, "")
	f.addVideo(t, "VID-000000000002", true, "VID-000000000002.jpg")
	f.addVideo(t, "VID-000000000003", false, "")
	f.addVideo(t, "VID-000000000004", true, "")

	// A directory in place of the target makes the final rename fail.
	if err := os.Mkdir(filepath.Join(f.thumbDir, FileName("VID-000000000004")), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	backfiller := &Backfiller{Videos: f.store, Generator: f.generator()}
	summary, err := backfiller.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := Summary{Total: 4, Attempted: 3, Processed: 1, SkippedExisting: 1, SkippedMissing: 1, Failed: 1}
	if summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}
	if summary.Skipped() != 2 {
		t.Fatalf("Skipped() = %d, want 2", summary.Skipped())
	}
	if got := f.store.thumbnail("VID-000000000001"); got != "VID-000000000001.jpg" {
		t.Fatalf("processed record thumbnail = %q", got)
	}
	if got := f.store.thumbnail("VID-000000000004"); got != "" {
		t.Fatalf("failed record thumbnail = %q, want empty", got)
	}
	if _, err := os.Stat(filepath.Join(f.thumbDir, "VID-000000000002.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("existing thumbnail record should not be regenerated")
	}
}

func TestBackfillSecondRunIsNoop(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 3; i++ {
		f.addVideo(t, fmt.Sprintf("VID-%012d", i), true, "")
	}
	backfiller := &Backfiller{Videos: f.store, Generator: f.generator()}

	first, err := backfiller.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.Processed != 3 {
		t.Fatalf("first run processed %d, want 3", first.Processed)
	}

	second, err := backfiller.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	want := Summary{Total: 3, SkippedExisting: 3}
	if second != want {
		t.Fatalf("second summary = %+v, want %+v", second, want)
	}
}

func TestBackfillEmpty(t *testing.T) {
	f := newFixture(t)
	summary, err := (&Backfiller{Videos: f.store, Generator: f.generator()}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary != (Summary{}) {
		t.Fatalf("summary = %+v, want zero", summary)
	}
}

func TestBackfillListError(t *testing.T) {
	f := newFixture(t)
	f.store.listErr = errors.New("no such table: videos")

	if _, err := (&Backfiller{Videos: f.store, Generator: f.generator()}).Run(context.Background()); err == nil {
		t.Fatal("expected error when listing fails")
	}
}

func TestBackfillStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.addVideo(t, "VID-000000000001", true, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := (&Backfiller{Videos: f.store, Generator: f.generator()}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if summary.Attempted != 0 || summary.Total != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}
