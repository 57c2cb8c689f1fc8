package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/hartmath/woovb/internal/logging"
	"github.com/hartmath/woovb/internal/thumbnails"
)

// BackfillRunner performs one thumbnail backfill pass.
type BackfillRunner interface {
	Run(ctx context.Context) (thumbnails.Summary, error)
}

// ScheduleThumbnailBackfill runs the backfill on the given cron schedule until
// ctx is cancelled. An empty schedule disables the job and returns nil. Runs
// never overlap: a tick that fires while the previous pass is busy is skipped.
func ScheduleThumbnailBackfill(ctx context.Context, schedule string, runner BackfillRunner, logger *slog.Logger) (*cron.Cron, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" || runner == nil {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := cron.New(cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})))
	_, err := c.AddFunc(schedule, func() {
		jobCtx := logging.WithLogger(ctx, logger)
		summary, err := runner.Run(jobCtx)
		if err != nil {
			logger.Error("scheduled thumbnail backfill failed", "error", err, "summary", summary.String())
			return
		}
		logger.Info("scheduled thumbnail backfill finished", "summary", summary.String())
	})
	if err != nil {
		return nil, fmt.Errorf("parse backfill schedule %q: %w", schedule, err)
	}
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
