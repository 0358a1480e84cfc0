package db

import (
	"tasktracker/internal/domain/errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	log "github.com/sirupsen/logrus"
)

// Migration применяет все недостающие миграции из migratePath.
func Migration(dbStr, migratePath string) error {
	if dbStr == "" || migratePath == "" {
		return errors.ErrBadRequest
	}

	m, err := migrate.New("file://"+migratePath, dbStr)
	if err != nil {
		log.WithError(err).Error("не удалось инициализировать миграции")
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.WithError(err).Error("не удалось применить миграции")
		return err
	}
	return nil
}
