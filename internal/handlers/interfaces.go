package handlers

import (
	"context"
	"io"

	"github.com/hartmath/woovb/internal/models"
)

// UserStore captures the persistence operations required by the auth and admin handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id string) error
}

// SessionManager issues, refreshes and revokes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
	Verify(accessToken string) (string, error)
}

// VideoStore captures persistence for uploaded videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListAll(ctx context.Context) ([]models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (models.Stats, error)
}

// Feed serves the public video listing, usually through a short-lived cache.
type Feed interface {
	ListAll(ctx context.Context) ([]models.Video, error)
	Invalidate()
}

// ThumbnailQueue schedules background thumbnail generation.
type ThumbnailQueue interface {
	Enqueue(ctx context.Context, video models.Video) error
}

// MediaStorage holds video and thumbnail files on local disk.
type MediaStorage interface {
	SaveVideo(name string, r io.Reader, max int64) (int64, error)
	VideoPath(name string) string
	ThumbnailPath(name string) string
	RemoveVideo(name string) error
	RemoveThumbnail(name string) error
}

// ObjectMirror copies media to remote object storage.
type ObjectMirror interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, name string) error
}
