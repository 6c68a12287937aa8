package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SubscriptionStorage реализует ports.SubscriptionStorage поверх sqlx
type SubscriptionStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewSubscriptionStorage(db *sqlx.DB, logger *slog.Logger) *SubscriptionStorage {
	return &SubscriptionStorage{db: db, logger: logger}
}

// AddSubscription создает подписку. Повтор отсекает ограничение unique_subscription,
// подписку на себя — no_self_subscription.
func (s *SubscriptionStorage) AddSubscription(ctx context.Context, subscriberID, authorID int64) error {
	start := time.Now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (subscriber_id, author_id) VALUES ($1, $2)`, subscriberID, authorID)
	if err != nil {
		mapped := mapPQError(err)
		s.logger.Warn("failed to add subscription",
			"subscriber_id", subscriberID,
			"author_id", authorID,
			"error", err,
		)
		return fmt.Errorf("ошибка при создании подписки: %w", mapped)
	}

	s.logger.Info("subscription added",
		"subscriber_id", subscriberID,
		"author_id", authorID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// RemoveSubscription удаляет подписку, ErrNotInRelation если ее не было
func (s *SubscriptionStorage) RemoveSubscription(ctx context.Context, subscriberID, authorID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE subscriber_id = $1 AND author_id = $2`, subscriberID, authorID)
	if err != nil {
		s.logger.Error("failed to remove subscription", "subscriber_id", subscriberID, "author_id", authorID, "error", err)
		return fmt.Errorf("ошибка при удалении подписки: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("подписка %d -> %d: %w", subscriberID, authorID, domain.ErrNotInRelation)
	}

	s.logger.Info("subscription removed", "subscriber_id", subscriberID, "author_id", authorID)
	return nil
}

// ListSubscriptions возвращает страницу авторов, на которых подписан пользователь
func (s *SubscriptionStorage) ListSubscriptions(ctx context.Context, subscriberID int64, page domain.Page) ([]domain.User, int, error) {
	start := time.Now()

	var total int
	if err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID); err != nil {
		s.logger.Error("failed to count subscriptions", "subscriber_id", subscriberID, "error", err)
		return nil, 0, fmt.Errorf("ошибка при подсчете подписок: %w", err)
	}

	query := `
	SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.avatar, u.password_hash, u.created_at, u.updated_at
	FROM subscriptions s
	JOIN users u ON u.id = s.author_id
	WHERE s.subscriber_id = $1
	ORDER BY s.created_at DESC, s.id DESC
	LIMIT $2 OFFSET $3
	`

	authors := []domain.User{}
	if err := s.db.SelectContext(ctx, &authors, query, subscriberID, page.Limit, page.Offset()); err != nil {
		s.logger.Error("failed to list subscriptions", "subscriber_id", subscriberID, "error", err)
		return nil, 0, fmt.Errorf("ошибка при получении подписок: %w", err)
	}

	s.logger.Debug("subscriptions listed",
		"subscriber_id", subscriberID,
		"count", len(authors),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return authors, total, nil
}

// SubscribedTo сообщает для каждого автора, подписан ли на него subscriberID
func (s *SubscriptionStorage) SubscribedTo(ctx context.Context, subscriberID int64, authorIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(authorIDs))
	if subscriberID == 0 || len(authorIDs) == 0 {
		return result, nil
	}

	var subscribed []int64
	err := s.db.SelectContext(ctx, &subscribed,
		`SELECT author_id FROM subscriptions WHERE subscriber_id = $1 AND author_id = ANY($2)`,
		subscriberID, pq.Array(authorIDs))
	if err != nil {
		s.logger.Error("failed to check subscriptions", "subscriber_id", subscriberID, "error", err)
		return nil, fmt.Errorf("ошибка при проверке подписок: %w", err)
	}

	for _, id := range subscribed {
		result[id] = true
	}
	return result, nil
}
