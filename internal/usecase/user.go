package usecase

import (
	"context"

	"github.com/GoArmGo/Foodgram/internal/domain"
)

// RegisterInput — данные для регистрации пользователя
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Username  string `json:"username" validate:"required,max=50,username"`
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Password  string `json:"password" validate:"required,max=128"`
}

// SetPasswordInput — смена пароля текущего пользователя
type SetPasswordInput struct {
	NewPassword     string `json:"new_password" validate:"required,max=128"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

// UserUseCase определяет бизнес-логику пользователей и подписок.
// viewerID == 0 означает анонимного пользователя.
type UserUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*domain.CreatedUserView, error)
	GetProfile(ctx context.Context, viewerID, userID int64) (*domain.UserView, error)
	ListUsers(ctx context.Context, viewerID int64, page domain.Page) (*domain.Paginated[domain.UserView], error)
	SetPassword(ctx context.Context, userID int64, in SetPasswordInput) error

	// SetAvatar принимает изображение в base64 data URI и возвращает URL нового аватара.
	// Прежний файл отправляется на удаление.
	SetAvatar(ctx context.Context, userID int64, dataURI string) (*domain.AvatarView, error)
	DeleteAvatar(ctx context.Context, userID int64) error

	// Subscribe подписывает на автора. recipesLimit < 0 — без ограничения превью.
	Subscribe(ctx context.Context, subscriberID, authorID int64, recipesLimit int) (*domain.UserWithRecipesView, error)
	Unsubscribe(ctx context.Context, subscriberID, authorID int64) error
	ListSubscriptions(ctx context.Context, subscriberID int64, page domain.Page, recipesLimit int) (*domain.Paginated[domain.UserWithRecipesView], error)
}

// LoginInput — учетные данные для получения токена
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthUseCase выдает токены и определяет пользователя по токену
type AuthUseCase interface {
	Login(ctx context.Context, in LoginInput) (string, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}
