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

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-prep-service/internal/assembly"
	"github.com/SAP-F-2025/exam-prep-service/internal/cache"
	"github.com/SAP-F-2025/exam-prep-service/internal/config"
	"github.com/SAP-F-2025/exam-prep-service/internal/handlers"
	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories/cached"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/exam-prep-service/internal/seed"
	"github.com/SAP-F-2025/exam-prep-service/internal/services"
	"github.com/SAP-F-2025/exam-prep-service/internal/utils"
	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
	"github.com/SAP-F-2025/exam-prep-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.IsProduction())
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("exam-prep-service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting exam-prep-service",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"events_publisher", cfg.Events.Publisher)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Storage
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := pkg.Migrate(db); err != nil {
		return err
	}

	redisClient, err := pkg.NewRedisClient(initCtx, cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, logger)
	exerciseRepo := cached.NewExerciseRepository(postgres.NewExercisePostgreSQL(db), redisCache, cfg.ExerciseCacheTTL, logger)
	snapshots := cache.NewSnapshotStore(redisCache, cfg.SnapshotTTL)

	// Events
	publisher, consumer, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close event publisher", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if consumer != nil {
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event consumer stopped", "error", err)
			}
		}()
	}

	// Exercise bank
	v := validator.New()
	if cfg.SeedFile != "" {
		stored, err := seed.NewLoader(exerciseRepo, v, logger).Load(initCtx, cfg.SeedFile)
		if err != nil {
			logger.Warn("seed pack loaded with errors", "path", cfg.SeedFile, "stored", stored, "error", err)
		} else {
			logger.Info("seed pack loaded", "path", cfg.SeedFile, "stored", stored)
		}
	}

	layout, err := assembly.LoadLayout(cfg.LayoutFile)
	if err != nil {
		return fmt.Errorf("failed to load test layout: %w", err)
	}

	demo := demoAllowList(cfg, layout)

	// Services
	eventService := services.NewTestEventService(publisher, logger)
	engine := assembly.NewEngine(exerciseRepo, assembly.WithLogger(logger))
	exerciseService := services.NewExerciseService(exerciseRepo, v, eventService, demo, logger)
	testService := services.NewTestService(engine, exerciseRepo, snapshots, eventService, logger,
		services.TestServiceConfig{Layout: layout, DemoAllowList: demo})
	exportService := services.NewExportService(logger)

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handlerLogger := utils.NewSlogLogger(logger)
	hm := handlers.NewHandlerManager(exerciseService, testService, exportService, v, handlerLogger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.NewRouter(hm, handlerLogger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	}

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("exam-prep-service stopped")
	return nil
}

func demoAllowList(cfg *config.Config, layout []models.Section) assembly.AllowList {
	if len(cfg.DemoExerciseIDs) > 0 {
		return assembly.NewAllowList(cfg.DemoExerciseIDs...)
	}
	return assembly.DefaultDemoAllowList(layout)
}
