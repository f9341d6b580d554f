package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/harrisonpepese/aibit-server-sub000/internal/agent"
	"github.com/harrisonpepese/aibit-server-sub000/internal/engine"
	"github.com/harrisonpepese/aibit-server-sub000/internal/infrastructure/storage"
	"github.com/harrisonpepese/aibit-server-sub000/internal/server"
	"github.com/harrisonpepese/aibit-server-sub000/internal/version"
	"github.com/harrisonpepese/aibit-server-sub000/pkg/logger"
)

// EnvConfig - путь к конфигу, если не передан -config
const EnvConfig = "AIBIT_CONFIG"

func init() {
	logger.Init()
}

func main() {
	// 1. Парсинг флагов
	var configPath string
	var inspectPath string
	flag.StringVar(&configPath, "config", os.Getenv(EnvConfig), "Path to YAML config (defaults when empty)")
	flag.StringVar(&inspectPath, "inspect", "", "Path to .aevl event log archive to print and exit")
	flag.Parse()

	logger.Log.Info("Starting AIBit sync server...")
	logger.Log.Info(version.Current().String())

	// РЕЖИМ ПРОСМОТРА АРХИВА
	if inspectPath != "" {
		if err := inspect(inspectPath); err != nil {
			logger.Log.Fatal("Failed to read archive: ", err)
		}
		return
	}

	cfg, err := engine.LoadConfig(configPath)
	if err != nil {
		logger.Log.Fatal("Failed to load config: ", err)
	}

	// 2. Инициализация ядра с конфигом
	gameService := engine.NewService(cfg, engine.Deps{})
	if err := gameService.Start(); err != nil {
		logger.Log.Fatal("Failed to start game service: ", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < cfg.Wanderers; i++ {
		home := cfg.SpawnPosition.Shift(i%10*3-15, i/10*3-15, 0)
		if !home.InBounds() {
			home = cfg.SpawnPosition
		}
		w := agent.NewWanderer(fmt.Sprintf("wanderer-%d", i+1), home, time.Second, gameService, int64(i+1))
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Log.WithError(err).Warn("Wanderer stopped")
			}
		}()
	}

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 3. Запуск сервера
	srv := server.New(gameService, cfg.Port)

	go func() {
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server start error: ", err)
		}
	}()

	<-stop
	logger.Log.Info("Shutting down...")
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Warn("HTTP shutdown")
	}

	// Останавливаем процессоры, журнал мира архивируется при archive_dir
	if err := gameService.Stop(); err != nil {
		logger.Log.WithError(err).Error("Failed to stop game service")
	}

	logger.Log.Info("Done.")
}

func inspect(path string) error {
	archive, err := storage.NewArchiveService(filepath.Dir(path), nil).Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("archive %s written by %s at %s, %d records\n",
		path, version.DescribeStamp(archive.Build), archive.CreatedAt.Format(time.RFC3339), len(archive.Records))
	for _, rec := range archive.Records {
		fmt.Printf("%s  %-20s %-14s %s\n", rec.Timestamp.Format(time.RFC3339Nano), rec.Type, rec.Data.SourceModule, rec.Data.Payload)
	}
	return nil
}
