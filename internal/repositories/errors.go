package repositories

import "errors"

var (
	// ErrNotFound is returned when no row matches, including writes that
	// reference a missing user or video.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique column (user email, video id) is taken.
	ErrConflict = errors.New("record already exists")
)
