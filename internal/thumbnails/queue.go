package thumbnails

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hartmath/woovb/internal/logging"
	"github.com/hartmath/woovb/internal/models"
)

// QueueConfig controls the concurrency characteristics of the queue.
type QueueConfig struct {
	QueueSize int
	Workers   int
	// JobTimeout bounds a single job, including the extraction attempt.
	JobTimeout time.Duration
}

// Queue generates thumbnails for freshly uploaded videos in the background so
// uploads do not wait on ffmpeg.
type Queue struct {
	generator interface {
		Generate(ctx context.Context, video models.Video) (string, error)
	}
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan models.Video

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewQueue starts the worker pool.
func NewQueue(generator *Generator, cfg QueueConfig, logger *slog.Logger) *Queue {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &Queue{
		logger:  logger,
		timeout: cfg.JobTimeout,
		jobs:    make(chan models.Video, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	if generator != nil {
		q.generator = generator
	}

	q.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go q.worker()
	}

	return q
}

// Enqueue schedules thumbnail generation for video without blocking.
func (q *Queue) Enqueue(ctx context.Context, video models.Video) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- video:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish. When ctx
// expires first, in-flight jobs are cancelled.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		q.cancel()
		return ctx.Err()
	case <-done:
		q.cancel()
		return nil
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for video := range q.jobs {
		q.handleJob(video)
	}
}

func (q *Queue) handleJob(video models.Video) {
	ctx, cancel := context.WithTimeout(logging.WithLogger(q.ctx, q.logger), q.timeout)
	defer cancel()

	ctx, span := logging.StartSpan(ctx, "thumbnail_job", "video_id", video.ID)
	defer span.End()

	if q.generator == nil {
		q.logger.Error("thumbnail queue missing generator", "video_id", video.ID)
		return
	}

	if _, err := q.generator.Generate(ctx, video); err != nil {
		span.Fail(err)
	}
}
