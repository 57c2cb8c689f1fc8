package repositories

import (
	"context"

	"github.com/hartmath/woovb/internal/auth"
	"github.com/hartmath/woovb/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// Delete removes the user together with their videos and sessions.
	Delete(ctx context.Context, id string) error
	SetAdmin(ctx context.Context, id string, admin bool) error
}

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	// ListAll returns every video, newest first, with the owner's username.
	ListAll(ctx context.Context) ([]models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	IncrementViews(ctx context.Context, id string) error
	SetThumbnail(ctx context.Context, id, filename string) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (models.Stats, error)
}

// Store bundles the repositories of one storage backend.
type Store interface {
	Users() UserRepository
	Videos() VideoRepository
	Sessions() auth.SessionStore
	Close() error
}
