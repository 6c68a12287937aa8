package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/Foodgram/internal/core/ports"
	"github.com/GoArmGo/Foodgram/internal/domain"
)

const invalidCredentialsMessage = "Невозможно войти с предоставленными учетными данными."

type authUseCase struct {
	users  ports.UserStorage
	tokens ports.TokenManager
	hasher ports.PasswordHasher
	logger *slog.Logger
}

// NewAuthUseCase создает новый экземпляр AuthUseCase
func NewAuthUseCase(users ports.UserStorage, tokens ports.TokenManager, hasher ports.PasswordHasher, logger *slog.Logger) AuthUseCase {
	return &authUseCase{users: users, tokens: tokens, hasher: hasher, logger: logger}
}

// Login проверяет email и пароль и выдает токен
func (uc *authUseCase) Login(ctx context.Context, in LoginInput) (string, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	if ve := validate(in); !ve.Empty() {
		return "", ve
	}

	user, err := uc.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.logger.Warn("login failed: unknown email")
			return "", invalidCredentials()
		}
		return "", fmt.Errorf("usecase: ошибка при входе: %w", err)
	}

	if !uc.hasher.Compare(user.PasswordHash, in.Password) {
		uc.logger.Warn("login failed: wrong password", "user_id", user.ID)
		return "", invalidCredentials()
	}

	token, err := uc.tokens.GenerateToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("usecase: %w", err)
	}

	uc.logger.Info("user logged in", "user_id", user.ID)
	return token, nil
}

// Authenticate определяет пользователя по токену. Токен удаленного пользователя недействителен.
func (uc *authUseCase) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	userID, err := uc.tokens.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь %d удален", domain.ErrUnauthorized, userID)
		}
		return nil, fmt.Errorf("usecase: ошибка аутентификации: %w", err)
	}
	return user, nil
}

func invalidCredentials() error {
	return domain.NewValidationError(domain.NonFieldErrors, invalidCredentialsMessage)
}
