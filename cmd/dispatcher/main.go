package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	camprepo "outreach_backend/internal/campaigns/repository"
	"outreach_backend/internal/content"
	"outreach_backend/internal/dispatch"
	"outreach_backend/internal/email"
	"outreach_backend/internal/events"
	"outreach_backend/internal/scheduler"
	"outreach_backend/internal/suppression"
	"outreach_backend/internal/unsubscribe"
	"outreach_backend/migrations"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting dispatcher", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Both binaries migrate on startup; goose makes the second run a no-op.
	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	events.RegisterAuditLog(eventBus, log)

	ledger := camprepo.New(pool)
	suppressionRepo := suppression.NewRepository(pool)
	cache := suppression.NewCache(
		suppressionRepo, ledger,
		cfg.GetSuppressionCacheTTL(), cfg.GetDailyCountCacheTTL(),
		nil, log,
	)
	suppressionSvc := suppression.NewService(suppressionRepo, cache, eventBus)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	generator := initGenerator(ctx, cfg, log)

	dispatcher := dispatch.NewDispatcher(ledger, cache, cache, generator, sender, eventBus, log, cfg, cfg)

	worker, err := scheduler.NewWorker(cfg, pool, dispatcher, log)
	if err != nil {
		log.Error("failed to initialize dispatch worker", "error", err)
		panic("failed to initialize dispatch worker: " + err.Error())
	}

	scanner := unsubscribe.NewScanner(cfg, suppressionSvc, log)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		worker.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		return scanner.Run(groupCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("dispatcher stopped", "error", err)
		panic("dispatcher stopped: " + err.Error())
	}
	log.Info("dispatcher shut down")
}

func initGenerator(ctx context.Context, cfg *config.Config, log *logger.Logger) content.Generator {
	fallback := content.NewTemplateGenerator()

	if !cfg.IsContentGenerationEnabled() {
		log.Info("content generation using templates only, GEMINI_API_KEY not set")
		return content.NewWithFallback(nil, fallback, log)
	}

	gemini, err := content.NewGeminiGenerator(ctx, cfg)
	if err != nil {
		log.Warn("failed to initialize gemini client, falling back to templates", "error", err)
		return content.NewWithFallback(nil, fallback, log)
	}

	log.Info("content generation enabled", "model", cfg.GetGeminiModel())
	return content.NewWithFallback(gemini, fallback, log)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
