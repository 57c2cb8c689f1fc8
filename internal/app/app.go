package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/hartmath/woovb/internal/config"
	"github.com/hartmath/woovb/internal/handlers"
	"github.com/hartmath/woovb/internal/httpserver"
	"github.com/hartmath/woovb/internal/jobs"
	"github.com/hartmath/woovb/internal/logging"
	"github.com/hartmath/woovb/internal/middleware"
	"github.com/hartmath/woovb/internal/repositories"
)

const usage = "expected command: serve, migrate, backfill-thumbnails, or promote"

// Run bootstraps the woovb backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "backfill-thumbnails":
		return runBackfill(ctx)
	case "promote":
		return runPromote(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q (%s)", args[0], usage)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true, Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return logger
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repositories.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	comps, err := buildDependencies(ctx, store, cfg)
	if err != nil {
		return err
	}
	queue := comps.startQueue(cfg, logger)

	if _, err := jobs.ScheduleThumbnailBackfill(ctx, cfg.BackfillSchedule, comps.backfiller, logger); err != nil {
		_ = queue.Shutdown(context.Background())
		return err
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, comps.handlers)

	srv := httpserver.New(cfg.AppPort, middleware.RequestLogger(logger)(mux))

	logger.Info("starting http server", "port", cfg.AppPort, "driver", cfg.DatabaseDriver)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()

		return errors.Join(srv.Shutdown(shutdownCtx), queue.Shutdown(shutdownCtx))
	})

	return g.Wait()
}

func runBackfill(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := repositories.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	comps, err := buildDependencies(ctx, store, cfg)
	if err != nil {
		return err
	}

	summary, err := comps.backfiller.Run(logging.WithLogger(ctx, logger))
	fmt.Println(summary.String())
	return err
}

func runPromote(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return errors.New("expected email of the user to promote")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := repositories.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return promote(ctx, store.Users(), args[0])
}

func promote(ctx context.Context, users repositories.UserRepository, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("no user with email %s", email)
		}
		return fmt.Errorf("find user: %w", err)
	}
	if err := users.SetAdmin(ctx, user.ID, true); err != nil {
		return fmt.Errorf("promote %s: %w", email, err)
	}
	fmt.Printf("%s is now an admin\n", user.Email)
	return nil
}
