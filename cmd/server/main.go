package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dsarena/exam-backend/internal/config"
	"github.com/dsarena/exam-backend/internal/database"
	"github.com/dsarena/exam-backend/internal/handler"
	"github.com/dsarena/exam-backend/internal/logger"
	"github.com/dsarena/exam-backend/internal/questionbank"
	"github.com/dsarena/exam-backend/internal/repository"
	"github.com/dsarena/exam-backend/internal/router"
	"github.com/dsarena/exam-backend/internal/runner"
	"github.com/dsarena/exam-backend/internal/service"
	"github.com/dsarena/exam-backend/internal/validator"
	"github.com/dsarena/exam-backend/internal/worker"
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
		Msg("Starting Exam Backend")

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
	sessionRepo := repository.NewSessionRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	violationRepo := repository.NewViolationRepository(pool)
	eligibilityRepo := repository.NewEligibilityRepository(pool)
	instanceRepo := repository.NewInstanceRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)

	// ─── Initialize Domain Components ─────────────────────────────────
	bank := questionbank.New(rand.New(rand.NewSource(time.Now().UnixNano())))
	pistonClient := runner.NewPistonClient(cfg.PistonURL, cfg.RunnerTimeout)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, adminRepo)
	sessionService := service.NewSessionService(
		sessionRepo, answerRepo, violationRepo, eligibilityRepo, instanceRepo,
		bank, pistonClient, rdb, cfg.Exam,
	)
	adminService := service.NewAdminService(sessionRepo, violationRepo, eligibilityRepo, instanceRepo, cfg.Exam)
	instanceService := service.NewInstanceService(instanceRepo)
	exportService := service.NewExportService(sessionRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:  handler.NewAuthHandler(authService),
		Exam:  handler.NewExamHandler(sessionService),
		Admin: handler.NewAdminHandler(adminService, instanceService, exportService),
		WS:    handler.NewWSHandler(sessionService, cfg.Exam, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autosaveWorker := worker.NewAutosaveWorker(answerRepo, rdb)
	proctorWorker := worker.NewProctorEventWorker(violationRepo, rdb)
	deadlineWorker := worker.NewDeadlineWorker(sessionService)

	go autosaveWorker.Start(workerCtx)
	go proctorWorker.Start(workerCtx)
	go deadlineWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
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

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
