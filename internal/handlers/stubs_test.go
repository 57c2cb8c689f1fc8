package handlers

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/hartmath/woovb/internal/auth"
	"github.com/hartmath/woovb/internal/models"
	"github.com/hartmath/woovb/internal/repositories"
	"github.com/hartmath/woovb/internal/storage"
)

type inMemoryVideoStore struct {
	mu        sync.Mutex
	videos    map[string]models.Video
	createErr error
}

func newInMemoryVideoStore(videos ...models.Video) *inMemoryVideoStore {
	s := &inMemoryVideoStore{videos: make(map[string]models.Video)}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.videos[video.ID]; ok {
		return repositories.ErrConflict
	}
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return v, nil
}

func (s *inMemoryVideoStore) ListAll(_ context.Context) ([]models.Video, error) {
	return s.filter(func(models.Video) bool { return true }), nil
}

func (s *inMemoryVideoStore) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	return s.filter(func(v models.Video) bool { return v.OwnerID == ownerID }), nil
}

func (s *inMemoryVideoStore) filter(keep func(models.Video) bool) []models.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Video, 0, len(s.videos))
	for _, v := range s.videos {
		if keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *inMemoryVideoStore) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	v.Views++
	s.videos[id] = v
	return nil
}

func (s *inMemoryVideoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *inMemoryVideoStore) deleteOwner(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range s.videos {
		if v.OwnerID == ownerID {
			delete(s.videos, id)
		}
	}
}

func (s *inMemoryVideoStore) Stats(_ context.Context) (models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := models.Stats{TotalVideos: int64(len(s.videos))}
	for _, v := range s.videos {
		stats.TotalViews += v.Views
	}
	return stats, nil
}

type feedStub struct {
	VideoStore
	invalidations int
}

func (f *feedStub) ListAll(ctx context.Context) ([]models.Video, error) {
	if f.VideoStore == nil {
		return nil, errors.New("feed offline")
	}
	return f.VideoStore.ListAll(ctx)
}

func (f *feedStub) Invalidate() { f.invalidations++ }

type queueStub struct {
	mu     sync.Mutex
	queued []models.Video
	err    error
}

func (q *queueStub) Enqueue(_ context.Context, video models.Video) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.queued = append(q.queued, video)
	return nil
}

type mirrorStub struct {
	mu      sync.Mutex
	saved   map[string][]byte
	deleted []string
}

func (m *mirrorStub) Save(_ context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[name] = data
	return "https://cdn.example.com/" + name, nil
}

func (m *mirrorStub) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, name)
	return nil
}

func newLocalStorage(t *testing.T) *storage.Local {
	t.Helper()
	local, err := storage.NewLocal(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	return local
}

func withUser(ctx context.Context, userID string) context.Context {
	return auth.WithUserID(ctx, userID)
}
