package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"visitation-service/internal/cache"
	"visitation-service/internal/config"
	"visitation-service/internal/database"
	"visitation-service/internal/event"
	"visitation-service/internal/metrics"
	"visitation-service/internal/repository"
	"visitation-service/internal/scheduler"
	"visitation-service/internal/server"
)

func main() {
	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting Visitation Service")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.Bool("debug", cfg.Debug))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	jurisdictionRepo := repository.NewJurisdictionRepository(db, logger)
	hierarchy, err := cache.NewHierarchyCache(cfg.Redis, jurisdictionRepo, logger)
	if err != nil {
		logger.Fatal("Failed to initialize hierarchy cache", zap.Error(err))
	}
	defer hierarchy.Close()

	publisher := event.NewKafkaPublisher(cfg.Kafka, logger)
	defer publisher.Close()

	collector := metrics.NewCollector()

	srv := server.New(cfg, logger, db, publisher, hierarchy, collector)
	if err := srv.Initialize(); err != nil {
		logger.Fatal("Failed to initialize server", zap.Error(err))
	}

	sched := scheduler.New(cfg.Scheduler, srv.Monitor(), srv.CitizenRepo(), srv.AlertRepo(), collector, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("Shutdown signal received")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error("Failed to stop server gracefully", zap.Error(err))
	}

	logger.Info("Visitation Service stopped")
}

// initLogger initializes the zap logger
func initLogger() *zap.Logger {
	var cfg zap.Config

	if os.Getenv("ENVIRONMENT") == "production" {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	return logger
}
