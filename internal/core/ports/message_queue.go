package ports

import (
	"context"

	"github.com/GoArmGo/Foodgram/internal/messaging/payloads"
)

// MediaCleanupPublisher определяет методы для публикации задач на удаление файлов.
// Используется use case'ами при замене и удалении изображений
type MediaCleanupPublisher interface {
	PublishMediaCleanup(ctx context.Context, payload payloads.MediaCleanupPayload) error
}

// MediaCleanupConsumer определяет методы для потребления задач на удаление файлов,
// будет использоваться воркером
type MediaCleanupConsumer interface {
	StartConsumingMediaCleanup(ctx context.Context, handler func(context.Context, payloads.MediaCleanupPayload) error) error
}
