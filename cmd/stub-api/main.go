package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stemsi/exstem-trainee/internal/config"
	"github.com/stemsi/exstem-trainee/internal/handler"
	"github.com/stemsi/exstem-trainee/internal/logger"
	"github.com/stemsi/exstem-trainee/internal/router"
	"github.com/stemsi/exstem-trainee/internal/service"
	"github.com/stemsi/exstem-trainee/internal/validator"
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
		Msg("Starting TraineeLecture stand-in API")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	if _, err := authService.AddTrainee(cfg.StubTraineeUser, cfg.StubTraineePassword); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed trainee account")
	}

	examService := service.NewLectureExamService()
	demo := service.DemoExam()
	if err := examService.AddExam(demo); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed demo exam")
	}
	log.Info().
		Str("user", cfg.StubTraineeUser).
		Str("lecture_id", demo.LectureID).
		Msg("Seeded demo trainee and exam")

	// ─── Setup Router ──────────────────────────────────────────────────
	handlers := &router.Handlers{
		Account:        handler.NewAccountHandler(authService, log),
		TraineeLecture: handler.NewTraineeLectureHandler(examService, log),
	}
	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Server stopped")
}
