package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tasktracker/internal/auth"
	"tasktracker/internal/server"
	"tasktracker/internal/tasks"
	"tasktracker/repository/db"
	inmemory "tasktracker/repository/inmemory"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

type taskAPI interface {
	Start() error
	Shutdown(ctx context.Context) error
}

func main() {
	log.Info("Запуск сервиса задач...")

	cfg := server.ReadConfig()

	userRepo, taskRepo, cleanup := initRepositories(cfg)
	defer cleanup()

	api := server.NewTaskAPI(userRepo, taskRepo, cfg)
	if api == nil {
		log.Fatal("Не удалось инициализировать API")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Сервис запущен на %s:%d", cfg.Addr, cfg.Port)
		if err := api.Start(); err != nil {
			serverErr <- err
		}
	}()

	waitForShutdown(api, sigChan, serverErr)
	log.Info("Сервис завершен")
}

// initRepositories подключается к базе, а при любой ошибке откатывается на
// хранилище в памяти, чтобы сервис поднимался и без БД.
func initRepositories(cfg *server.Config) (auth.UserRepository, tasks.TaskRepository, func()) {
	if err := db.Migration(cfg.DBStr, cfg.MigratePath); err != nil {
		log.WithError(err).Warn("Не удалось применить миграции, используем память")
		inmem := inmemory.NewStorage()
		return inmem, inmem, func() {}
	}
	log.Info("Миграции применены успешно")

	dbStorage, err := db.NewStorage(cfg.DBStr)
	if err != nil {
		log.WithError(err).Warn("Не удалось подключиться к БД, используем память")
		inmem := inmemory.NewStorage()
		return inmem, inmem, func() {}
	}
	return dbStorage, dbStorage, dbStorage.Close
}

func waitForShutdown(api taskAPI, sigChan <-chan os.Signal, serverErr <-chan error) {
	select {
	case sig := <-sigChan:
		log.Infof("Получен сигнал %v, начинаем graceful shutdown...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := api.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Ошибка при graceful shutdown")
		} else {
			log.Info("Graceful shutdown выполнен успешно")
		}

	case err := <-serverErr:
		log.WithError(err).Error("Ошибка сервера")
	}
}
