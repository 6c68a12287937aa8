package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/GoArmGo/Foodgram/internal/auth"
	"github.com/GoArmGo/Foodgram/internal/core/ports"
	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/GoArmGo/Foodgram/internal/media"
)

// userUseCase implements UserUseCase
type userUseCase struct {
	*presenter
	hasher  ports.PasswordHasher
	cleaner ports.MediaCleanupPublisher
	logger  *slog.Logger
}

// NewUserUseCase создает новый экземпляр UserUseCase
func NewUserUseCase(
	users ports.UserStorage,
	subscriptions ports.SubscriptionStorage,
	recipes ports.RecipeStorage,
	interactions ports.InteractionStorage,
	files ports.FileStorage,
	cleaner ports.MediaCleanupPublisher,
	hasher ports.PasswordHasher,
	logger *slog.Logger,
) UserUseCase {
	return &userUseCase{
		presenter: &presenter{
			users:         users,
			subscriptions: subscriptions,
			recipes:       recipes,
			interactions:  interactions,
			files:         files,
		},
		hasher:  hasher,
		cleaner: cleaner,
		logger:  logger,
	}
}

// Register создает пользователя. Занятые email и username проверяются заранее
// ради понятных сообщений, окончательно уникальность обеспечивает бд.
func (uc *userUseCase) Register(ctx context.Context, in RegisterInput) (*domain.CreatedUserView, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	ve := validate(in)
	ve.Merge(auth.ValidatePasswordStrength("password", in.Password, in.Username, in.Email))

	if ve.Empty() {
		emailTaken, usernameTaken, err := uc.users.UserTaken(ctx, in.Email, in.Username)
		if err != nil {
			return nil, fmt.Errorf("usecase: ошибка при проверке уникальности: %w", err)
		}
		if emailTaken {
			ve.Add("email", "Пользователь с таким email уже существует.")
		}
		if usernameTaken {
			ve.Add("username", "Пользователь с таким именем уже существует.")
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("usecase: %w", err)
	}

	user := &domain.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}
	if err := uc.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при регистрации: %w", err)
	}

	uc.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return &domain.CreatedUserView{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

func (uc *userUseCase) GetProfile(ctx context.Context, viewerID, userID int64) (*domain.UserView, error) {
	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении профиля: %w", err)
	}
	return uc.userView(ctx, viewerID, *user)
}

func (uc *userUseCase) ListUsers(ctx context.Context, viewerID int64, page domain.Page) (*domain.Paginated[domain.UserView], error) {
	users, total, err := uc.users.ListUsers(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении пользователей: %w", err)
	}

	views, err := uc.userViews(ctx, viewerID, users)
	if err != nil {
		return nil, err
	}
	return &domain.Paginated[domain.UserView]{Count: total, Page: page, Results: views}, nil
}

func (uc *userUseCase) SetPassword(ctx context.Context, userID int64, in SetPasswordInput) error {
	ve := validate(in)
	if !ve.Empty() {
		return ve
	}

	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("usecase: ошибка при смене пароля: %w", err)
	}

	if !uc.hasher.Compare(user.PasswordHash, in.CurrentPassword) {
		ve.Add("current_password", "Неверный текущий пароль")
	}
	ve.Merge(auth.ValidatePasswordStrength("new_password", in.NewPassword, user.Username, user.Email))
	if err := ve.OrNil(); err != nil {
		return err
	}

	hash, err := uc.hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("usecase: %w", err)
	}
	if err := uc.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("usecase: ошибка при смене пароля: %w", err)
	}
	return nil
}

func (uc *userUseCase) SetAvatar(ctx context.Context, userID int64, dataURI string) (*domain.AvatarView, error) {
	if strings.TrimSpace(dataURI) == "" {
		return nil, domain.NewValidationError("avatar", "Нельзя загрузить пустой аватар")
	}

	img, err := media.DecodeDataURI(dataURI)
	if err != nil {
		return nil, domain.NewValidationError("avatar", "Загрузите правильное изображение. Файл, который вы загрузили, поврежден или не является изображением.")
	}

	key := img.Key(media.AvatarsPrefix)
	if _, err := uc.files.UploadFile(ctx, key, bytes.NewReader(img.Data), img.ContentType); err != nil {
		return nil, fmt.Errorf("usecase: ошибка загрузки аватара: %w", err)
	}

	previous, err := uc.users.SetAvatar(ctx, userID, &key)
	if err != nil {
		scheduleCleanup(ctx, uc.cleaner, uc.logger, key, "avatar_update_failed")
		return nil, fmt.Errorf("usecase: ошибка при сохранении аватара: %w", err)
	}
	if previous != nil {
		scheduleCleanup(ctx, uc.cleaner, uc.logger, *previous, "avatar_replaced")
	}

	uc.logger.Info("avatar updated", "user_id", userID, "key", key)
	return &domain.AvatarView{Avatar: uc.avatarURL(&key)}, nil
}

func (uc *userUseCase) DeleteAvatar(ctx context.Context, userID int64) error {
	previous, err := uc.users.SetAvatar(ctx, userID, nil)
	if err != nil {
		return fmt.Errorf("usecase: ошибка при удалении аватара: %w", err)
	}
	if previous != nil {
		scheduleCleanup(ctx, uc.cleaner, uc.logger, *previous, "avatar_deleted")
	}
	return nil
}

func (uc *userUseCase) Subscribe(ctx context.Context, subscriberID, authorID int64, recipesLimit int) (*domain.UserWithRecipesView, error) {
	author, err := uc.users.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при подписке: %w", err)
	}

	if subscriberID == authorID {
		return nil, conflict("Нельзя подписаться на самого себя.", domain.ErrSelfSubscription)
	}

	if err := uc.subscriptions.AddSubscription(ctx, subscriberID, authorID); err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			return nil, conflict("Вы уже подписаны на этого пользователя.", err)
		case errors.Is(err, domain.ErrSelfSubscription):
			return nil, conflict("Нельзя подписаться на самого себя.", err)
		}
		return nil, fmt.Errorf("usecase: ошибка при подписке: %w", err)
	}

	views, err := uc.usersWithRecipes(ctx, subscriberID, []domain.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (uc *userUseCase) Unsubscribe(ctx context.Context, subscriberID, authorID int64) error {
	author, err := uc.users.GetUserByID(ctx, authorID)
	if err != nil {
		return fmt.Errorf("usecase: ошибка при отписке: %w", err)
	}

	if err := uc.subscriptions.RemoveSubscription(ctx, subscriberID, authorID); err != nil {
		if errors.Is(err, domain.ErrNotInRelation) {
			return conflict(fmt.Sprintf("Вы не подписаны на %s", author.Username), err)
		}
		return fmt.Errorf("usecase: ошибка при отписке: %w", err)
	}
	return nil
}

func (uc *userUseCase) ListSubscriptions(ctx context.Context, subscriberID int64, page domain.Page, recipesLimit int) (*domain.Paginated[domain.UserWithRecipesView], error) {
	authors, total, err := uc.subscriptions.ListSubscriptions(ctx, subscriberID, page)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении подписок: %w", err)
	}

	views, err := uc.usersWithRecipes(ctx, subscriberID, authors, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &domain.Paginated[domain.UserWithRecipesView]{Count: total, Page: page, Results: views}, nil
}
