package models

import "time"

// User represents an account on the platform.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// Video is the persisted metadata for an uploaded video artifact.
//
// Thumbnail holds the thumbnail filename, or the empty string when no
// thumbnail has been produced yet (stored as NULL).
type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	OwnerName   string    `json:"ownerName,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Filename    string    `json:"filename"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Views       int64     `json:"views"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasThumbnail reports whether a thumbnail filename has been recorded.
func (v Video) HasThumbnail() bool {
	return v.Thumbnail != ""
}

// Stats aggregates platform-wide counters for the admin panel.
type Stats struct {
	TotalUsers  int64 `json:"totalUsers"`
	TotalVideos int64 `json:"totalVideos"`
	TotalViews  int64 `json:"totalViews"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
