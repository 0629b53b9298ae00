package scripts

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/issafronov/urlscan/internal/middleware/logger"
	"go.uber.org/zap"
)

// RunMigrations приводит схему таблицы kv_entries к последней версии из sourceURL
// (например, file://internal/scripts/migrations). Грязная версия схемы считается ошибкой
func RunMigrations(sourceURL, databaseURI string) error {
	m, err := migrate.New(sourceURL, databaseURI)
	if err != nil {
		return fmt.Errorf("failed to init migrate: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err := errors.Join(srcErr, dbErr); err != nil {
			logger.Log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Log.Info("No migrations found", zap.String("source", sourceURL))
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case dirty:
		return fmt.Errorf("schema version %d is dirty", version)
	default:
		logger.Log.Info("KV schema is up to date", zap.Uint("version", version))
	}
	return nil
}
