package client

import (
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate применяет все доступные миграции к бд.
// Миграции вшиты в бинарник, поэтому рабочая директория не важна.
func (c *Client) Migrate(databaseURL string) error {
	start := time.Now()

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("не удалось открыть встроенные миграции: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("не удалось создать экземпляр мигратора: %w", err)
	}
	defer m.Close()

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		c.logger.Info("migrations are up to date", "duration_ms", time.Since(start).Milliseconds())
		return nil
	case err != nil:
		c.logger.Error("failed to apply migrations", "error", err)
		return fmt.Errorf("ошибка выполнения миграций: %w", err)
	}

	version, _, _ := m.Version()
	c.logger.Info("migrations applied successfully",
		"version", version,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
