package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/radcr/radcr-backend/internal/config"
	"github.com/radcr/radcr-backend/internal/database"
	"github.com/radcr/radcr-backend/internal/handler"
	"github.com/radcr/radcr-backend/internal/logger"
	"github.com/radcr/radcr-backend/internal/middleware"
	"github.com/radcr/radcr-backend/internal/questionnaire"
	"github.com/radcr/radcr-backend/internal/repository"
	"github.com/radcr/radcr-backend/internal/router"
	"github.com/radcr/radcr-backend/internal/service"
	"github.com/radcr/radcr-backend/internal/validator"
	"github.com/radcr/radcr-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting RadCR Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	questionnaireRepo := repository.NewQuestionnaireRepository(pool)
	caseRepo := repository.NewCaseRepository(pool)
	redisStore := service.NewRedisStore(rdb, cfg.DraftTTL)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, userRepo, redisStore)
	questionnaireService := service.NewQuestionnaireService(questionnaireRepo, redisStore, questionnaire.NewEditor(nil), log)
	mediaService := service.NewMediaService(cfg)
	caseService := service.NewCaseService(caseRepo, mediaService, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, log),
		Questionnaire: handler.NewQuestionnaireHandler(questionnaireService, log),
		Case:          handler.NewCaseHandler(caseService, log),
		Media:         handler.NewMediaHandler(mediaService, caseService, log),
		WS:            handler.NewWSHandler(questionnaireService, log, cfg.AllowedOrigins),
		System: handler.NewSystemHandler(
			map[string]handler.Pinger{
				"postgres": pool,
				"redis":    handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
			},
			func(ctx context.Context) (int64, error) {
				return rdb.LLen(ctx, config.WorkerKey.PersistAnswersQueue).Result()
			},
			log,
		),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autosaveWorker := worker.NewAutosaveWorker(questionnaireRepo, rdb, log)
	go autosaveWorker.Start(workerCtx)

	authLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	go authLimiter.Run(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, authLimiter, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the autosave queue to drain.
	workerCancel()
	select {
	case <-autosaveWorker.Done():
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Autosave queue not drained before timeout")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
