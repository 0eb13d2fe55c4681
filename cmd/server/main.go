package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assettracker/internal/config"
	"assettracker/internal/infra"
	"assettracker/internal/repository"
	"assettracker/internal/router"
	"assettracker/internal/service"
	"assettracker/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := infra.NewTracerProvider(ctx, cfg.OTLPEndpoint, "assettracker")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start tracing")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Notifications. The email notifier does the actual sending; with
	// NOTIFY_ASYNC the request path only enqueues and the worker pool
	// delivers with retries.
	mailer := infra.NewMailer(cfg)
	if !mailer.Enabled() {
		log.Warn().Msg("SMTP_HOST not set: low-stock alerts will be logged, not mailed")
	}
	// No directory client: the configured directory group is not expanded.
	emailNotifier := service.NewEmailNotifier(mailer, repository.NewNotificationConfigRepository(db), nil)

	var notifier service.Notifier = emailNotifier
	var pool *worker.Pool
	if cfg.NotifyAsync {
		notifier = worker.NewDispatcher(rdb)
		pool = worker.NewPool(rdb, cfg.WorkerPoolSize)
		pool.Register(worker.JobLowStockAlert, worker.NewLowStockWorker(emailNotifier))
		pool.Start(ctx)
	}

	r := router.New(cfg, db, rdb, mailer, notifier)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // large uploads reconcile row by row
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("asset tracker listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	if pool != nil {
		pool.Wait()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown")
	}
	_ = rdb.Close()
	log.Info().Msg("server exited")
}
