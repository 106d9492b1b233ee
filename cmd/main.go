package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/ldemarco/olympiad-system/config"
	"github.com/ldemarco/olympiad-system/db"
	"github.com/ldemarco/olympiad-system/handlers"
	"github.com/ldemarco/olympiad-system/repositories"
	api "github.com/ldemarco/olympiad-system/routes"
	"github.com/ldemarco/olympiad-system/services"
	"github.com/ldemarco/olympiad-system/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn, cfg.MigrationsURL); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage not configured, logo uploads disabled")
	}

	olympiadRepo := repositories.NewPostgresOlympiadRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	stageRepo := repositories.NewPostgresStageRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	logger.Info("repositories initialized")

	olympiadService := services.NewOlympiadService(dbConn, olympiadRepo, cfg.JWTSecretKey)
	playerService := services.NewPlayerService(dbConn, playerRepo, olympiadRepo)
	teamService := services.NewTeamService(dbConn, teamRepo, olympiadRepo, uploader)
	eventService := services.NewEventService(dbConn, eventRepo, stageRepo, matchRepo, teamRepo, olympiadRepo, uploader)
	matchService := services.NewMatchService(dbConn, matchRepo)
	logger.Info("services initialized")

	olympiadHandler := handlers.NewOlympiadHandler(olympiadService)
	playerHandler := handlers.NewPlayerHandler(playerService)
	teamHandler := handlers.NewTeamHandler(teamService)
	eventHandler := handlers.NewEventHandler(eventService)
	matchHandler := handlers.NewMatchHandler(matchService)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		olympiadHandler,
		playerHandler,
		teamHandler,
		eventHandler,
		matchHandler,
		cfg.JWTSecretKey,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
