package thumbnails

import "errors"

var (
	// ErrSourceMissing indicates the video artifact is absent from local storage.
	ErrSourceMissing = errors.New("video source missing")
	// ErrAcquireFailed indicates neither extraction nor the placeholder produced a file.
	ErrAcquireFailed = errors.New("thumbnail acquisition failed")
	// ErrQueueClosed is returned when enqueueing after Shutdown.
	ErrQueueClosed = errors.New("thumbnail queue closed")
	// ErrQueueFull is returned when the queue has no spare capacity.
	ErrQueueFull = errors.New("thumbnail queue full")
)
