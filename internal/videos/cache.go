package videos

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hartmath/woovb/internal/models"
)

// ErrListerUnavailable indicates the feed cache has no backing lister.
var ErrListerUnavailable = errors.New("video lister unavailable")

// Lister returns every video, newest first.
type Lister interface {
	ListAll(ctx context.Context) ([]models.Video, error)
}

// FeedCache wraps a Lister with a short TTL so busy feeds do not hit the
// database on every request.
type FeedCache struct {
	base Lister
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	videos  []models.Video
	expires time.Time
}

// NewFeedCache returns a FeedCache that keeps results for ttl.
func NewFeedCache(base Lister, ttl time.Duration) *FeedCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &FeedCache{base: base, ttl: ttl, now: time.Now}
}

// ListAll returns the cached feed when fresh, otherwise it delegates to the
// underlying lister and stores the result. Callers must not modify the slice.
func (c *FeedCache) ListAll(ctx context.Context) ([]models.Video, error) {
	if c == nil || c.base == nil {
		return nil, ErrListerUnavailable
	}

	now := c.now()

	c.mu.RLock()
	videos, expires := c.videos, c.expires
	c.mu.RUnlock()
	if videos != nil && now.Before(expires) {
		return videos, nil
	}

	videos, err := c.base.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []models.Video{}
	}

	c.mu.Lock()
	c.videos = videos
	c.expires = now.Add(c.ttl)
	c.mu.Unlock()

	return videos, nil
}

// Invalidate drops the cached feed.
func (c *FeedCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.videos = nil
	c.expires = time.Time{}
	c.mu.Unlock()
}
