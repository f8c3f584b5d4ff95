package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"github.com/dump-dvb/lofi/pkg/engine"
	"github.com/dump-dvb/lofi/pkg/http"
	"github.com/dump-dvb/lofi/pkg/http/usecases"
	"github.com/dump-dvb/lofi/pkg/logger"
	"github.com/dump-dvb/lofi/pkg/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	configDir = flag.String("config", "./data/", "directory containing config.yaml")
	dbPath    = flag.String("db", "", "sqlite database, overrides sqlite_path from the config")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := engine.LoadConfig(*configDir)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *dbPath != "" {
		cfg.SQLitePath = *dbPath
	}
	if cfg.SQLitePath == "" {
		logger.Fatal("no sqlite database configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Connect(ctx, cfg.SQLitePath, logger)
	if err != nil {
		logger.Fatal("connect sqlite", zap.Error(err))
	}
	defer store.Close()

	locationService, err := usecases.NewLocationService(logger, store)
	if err != nil {
		logger.Fatal("create location service", zap.Error(err))
	}

	api, err := http.NewServer(logger).Use(ctx, cfg, locationService)
	if err != nil {
		logger.Fatal("start api", zap.Error(err))
	}

	if err := api.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("lofi api stopped", zap.Error(err))
		return
	}
	logger.Info("lofi api stopped")
}
