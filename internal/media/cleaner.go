package media

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/Foodgram/internal/core/ports"
	"github.com/GoArmGo/Foodgram/internal/messaging/payloads"
)

// InlineCleaner удаляет файлы сразу, без очереди.
// Используется, когда RabbitMQ не настроен.
type InlineCleaner struct {
	files  ports.FileStorage
	logger *slog.Logger
}

var _ ports.MediaCleanupPublisher = (*InlineCleaner)(nil)

func NewInlineCleaner(files ports.FileStorage, logger *slog.Logger) *InlineCleaner {
	return &InlineCleaner{files: files, logger: logger}
}

func (c *InlineCleaner) PublishMediaCleanup(ctx context.Context, payload payloads.MediaCleanupPayload) error {
	return CleanupHandler(c.files, c.logger)(ctx, payload)
}

// CleanupHandler возвращает обработчик задачи на удаление файла.
// Его же использует воркер, читающий очередь.
func CleanupHandler(files ports.FileStorage, logger *slog.Logger) func(context.Context, payloads.MediaCleanupPayload) error {
	return func(ctx context.Context, payload payloads.MediaCleanupPayload) error {
		if payload.Key == "" {
			logger.Warn("media cleanup: empty key, skipping")
			return nil
		}

		if err := files.DeleteFile(ctx, payload.Key); err != nil {
			logger.Error("media cleanup: failed to delete file",
				slog.String("key", payload.Key),
				slog.String("reason", payload.Reason),
				slog.Any("error", err),
			)
			return fmt.Errorf("не удалось удалить файл %s: %w", payload.Key, err)
		}

		logger.Info("media cleanup: file deleted",
			slog.String("key", payload.Key),
			slog.String("reason", payload.Reason),
		)
		return nil
	}
}
