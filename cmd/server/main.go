package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waypoint/internal/booking"
	"waypoint/internal/commons"
	"waypoint/internal/config"
	"waypoint/internal/infrastructure/logger"
	"waypoint/internal/server"

	"go.uber.org/zap"
)

const (
	defaultConfigPath = "internal/config/config.yaml"
	janitorInterval   = 10 * time.Minute
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	drafts, closeDrafts, err := booking.NewDraftStore(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("opening draft store", zap.Error(err))
	}
	defer closeDrafts()

	wizardCtrl, wizardUC := booking.NewModule(cfg, drafts, zapLogger)
	go wizardUC.RunJanitor(ctx, janitorInterval)

	router := server.NewRouter(wizardCtrl, cfg.CORS.AllowedOrigins, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}

// loadConfig prefers a YAML file (WAYPOINT_CONFIG or the default path) and
// falls back to environment variables when there is none.
func loadConfig() (*config.Config, error) {
	path := os.Getenv("WAYPOINT_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Load()
		}
		return nil, err
	}
	return commons.LoadConfig(path)
}
