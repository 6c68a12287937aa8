package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/Foodgram/internal/core/ports"
	"github.com/GoArmGo/Foodgram/internal/media"
)

// ErrNoQueue — воркер запущен без настроенного RabbitMQ
var ErrNoQueue = errors.New("для режима worker нужен RABBITMQ_URL")

// runWorker читает очередь задач на удаление файлов до отмены ctx
func runWorker(ctx context.Context, consumer ports.MediaCleanupConsumer, files ports.FileStorage, logger *slog.Logger) error {
	if consumer == nil {
		return ErrNoQueue
	}

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := consumer.StartConsumingMediaCleanup(workerCtx, media.CleanupHandler(files, logger)); err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}
	logger.Info("worker started, waiting for media cleanup jobs")

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping worker")
	return nil
}
