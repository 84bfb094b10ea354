// Package migrations запускает SQL-миграции через golang-migrate.
package migrations

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"kursBot/internal/config"
	"kursBot/internal/logger"
)

func Run(cfg *config.Cfg, log *logger.Zap) error {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
	)

	m, err := migrate.New(cfg.Migrations.Path, dsn)
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Миграции: изменений нет")
			return nil
		}
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	log.Info("Миграции применены")
	return nil
}
