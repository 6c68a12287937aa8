package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenGorm поднимает gorm поверх уже открытого пула соединений,
// чтобы справочник и sqlx-хранилища делили одно подключение.
func OpenGorm(db *sql.DB, logger *slog.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		logger.Error("failed to initialize gorm", "error", err)
		return nil, fmt.Errorf("ошибка инициализации GORM: %w", err)
	}

	logger.Info("gorm initialized over shared connection pool")
	return gdb, nil
}
