package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const userColumns = `id, email, username, first_name, last_name, avatar, password_hash, created_at, updated_at`

// UserStorage реализует ports.UserStorage поверх sqlx
type UserStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewUserStorage создает новый экземпляр UserStorage
func NewUserStorage(db *sqlx.DB, logger *slog.Logger) *UserStorage {
	return &UserStorage{db: db, logger: logger}
}

// CreateUser сохраняет пользователя и заполняет ID и временные метки.
// Нарушение уникальности email/username возвращается как ValidationError по полю.
func (s *UserStorage) CreateUser(ctx context.Context, user *domain.User) error {
	start := time.Now()

	query := `
	INSERT INTO users (email, username, first_name, last_name, password_hash)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowxContext(ctx, query,
		user.Email, user.Username, user.FirstName, user.LastName, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		switch uniqueConstraint(err) {
		case constraintUsersEmail:
			s.logger.Warn("user email already taken", "email", user.Email)
			return domain.NewValidationError("email", "Пользователь с таким email уже существует.")
		case constraintUsersUsername:
			s.logger.Warn("username already taken", "username", user.Username)
			return domain.NewValidationError("username", "Пользователь с таким именем уже существует.")
		}
		s.logger.Error("failed to insert user", "username", user.Username, "error", err)
		return fmt.Errorf("ошибка при создании пользователя: %w", mapPQError(err))
	}

	s.logger.Info("user created successfully",
		"user_id", user.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// GetUserByID получает пользователя по ID
func (s *UserStorage) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	start := time.Now()

	var user domain.User
	err := s.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("user not found by id", "user_id", id)
			return nil, fmt.Errorf("пользователь %d: %w", id, domain.ErrNotFound)
		}
		s.logger.Error("failed to get user by id", "user_id", id, "error", err)
		return nil, fmt.Errorf("ошибка при получении пользователя по ID: %w", err)
	}

	s.logger.Debug("user retrieved by id",
		"user_id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &user, nil
}

// GetUserByEmail получает пользователя по нормализованному email
func (s *UserStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := s.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("пользователь с email %s: %w", email, domain.ErrNotFound)
		}
		s.logger.Error("failed to get user by email", "error", err)
		return nil, fmt.Errorf("ошибка при получении пользователя по email: %w", err)
	}
	return &user, nil
}

// GetUsersByIDs получает пользователей одним запросом, отсутствующие ID пропускаются
func (s *UserStorage) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]domain.User, error) {
	result := make(map[int64]domain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []domain.User
	err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		s.logger.Error("failed to get users by ids", "count", len(ids), "error", err)
		return nil, fmt.Errorf("ошибка при получении пользователей: %w", err)
	}

	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// ListUsers возвращает страницу пользователей и их общее количество
func (s *UserStorage) ListUsers(ctx context.Context, page domain.Page) ([]domain.User, int, error) {
	start := time.Now()

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		s.logger.Error("failed to count users", "error", err)
		return nil, 0, fmt.Errorf("ошибка при подсчете пользователей: %w", err)
	}

	users := []domain.User{}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`
	if err := s.db.SelectContext(ctx, &users, query, page.Limit, page.Offset()); err != nil {
		s.logger.Error("failed to list users", "page", page.Number, "error", err)
		return nil, 0, fmt.Errorf("ошибка при получении списка пользователей: %w", err)
	}

	s.logger.Debug("users listed",
		"page", page.Number,
		"count", len(users),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return users, total, nil
}

// UserTaken проверяет, заняты ли email и username
func (s *UserStorage) UserTaken(ctx context.Context, email, username string) (bool, bool, error) {
	var taken struct {
		Email    bool `db:"email_taken"`
		Username bool `db:"username_taken"`
	}

	query := `
	SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)    AS email_taken,
	       EXISTS (SELECT 1 FROM users WHERE username = $2) AS username_taken
	`
	if err := s.db.GetContext(ctx, &taken, query, email, username); err != nil {
		s.logger.Error("failed to check user uniqueness", "error", err)
		return false, false, fmt.Errorf("ошибка при проверке уникальности пользователя: %w", err)
	}
	return taken.Email, taken.Username, nil
}

// UpdatePassword сохраняет новый хеш пароля
func (s *UserStorage) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	if err != nil {
		s.logger.Error("failed to update password", "user_id", id, "error", err)
		return fmt.Errorf("ошибка при обновлении пароля: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("пользователь %d: %w", id, domain.ErrNotFound)
	}

	s.logger.Info("password updated", "user_id", id)
	return nil
}

// SetAvatar заменяет ключ аватара одним запросом и возвращает прежний ключ.
// nil key очищает аватар.
func (s *UserStorage) SetAvatar(ctx context.Context, id int64, key *string) (*string, error) {
	start := time.Now()

	query := `
	UPDATE users u
	SET avatar = $1, updated_at = NOW()
	FROM (SELECT id, avatar FROM users WHERE id = $2 FOR UPDATE) old
	WHERE u.id = old.id
	RETURNING old.avatar
	`

	var previous sql.NullString
	if err := s.db.QueryRowxContext(ctx, query, key, id).Scan(&previous); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("пользователь %d: %w", id, domain.ErrNotFound)
		}
		s.logger.Error("failed to set avatar", "user_id", id, "error", err)
		return nil, fmt.Errorf("ошибка при обновлении аватара: %w", err)
	}

	s.logger.Info("avatar updated",
		"user_id", id,
		"cleared", key == nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if !previous.Valid {
		return nil, nil
	}
	return &previous.String, nil
}
