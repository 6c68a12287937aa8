package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/Foodgram/internal/core/ports"
	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/GoArmGo/Foodgram/internal/messaging/payloads"
	"github.com/GoArmGo/Foodgram/internal/validation"
)

// presenter собирает представления для чтения.
// Признаки is_subscribed, is_favorited, is_in_shopping_cart вычисляются пачкой на каждый запрос.
type presenter struct {
	users         ports.UserStorage
	subscriptions ports.SubscriptionStorage
	recipes       ports.RecipeStorage
	interactions  ports.InteractionStorage
	files         ports.FileStorage
}

func (p *presenter) fileURL(key string) string {
	if key == "" {
		return ""
	}
	return p.files.PublicURL(key)
}

func (p *presenter) avatarURL(key *string) *string {
	if key == nil || *key == "" {
		return nil
	}
	url := p.files.PublicURL(*key)
	return &url
}

func (p *presenter) userViews(ctx context.Context, viewerID int64, users []domain.User) ([]domain.UserView, error) {
	subscribed := map[int64]bool{}
	if viewerID != 0 && len(users) > 0 {
		ids := make([]int64, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		var err error
		if subscribed, err = p.subscriptions.SubscribedTo(ctx, viewerID, ids); err != nil {
			return nil, fmt.Errorf("usecase: ошибка при проверке подписок: %w", err)
		}
	}

	views := make([]domain.UserView, len(users))
	for i, u := range users {
		views[i] = domain.UserView{
			ID:           u.ID,
			Email:        u.Email,
			Username:     u.Username,
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			IsSubscribed: subscribed[u.ID],
			Avatar:       p.avatarURL(u.Avatar),
		}
	}
	return views, nil
}

func (p *presenter) userView(ctx context.Context, viewerID int64, user domain.User) (*domain.UserView, error) {
	views, err := p.userViews(ctx, viewerID, []domain.User{user})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (p *presenter) recipeViews(ctx context.Context, viewerID int64, recipes []domain.Recipe) ([]domain.RecipeView, error) {
	if len(recipes) == 0 {
		return []domain.RecipeView{}, nil
	}

	recipeIDs := make([]int64, len(recipes))
	authorIDs := make([]int64, 0, len(recipes))
	seen := make(map[int64]struct{}, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		if _, ok := seen[r.AuthorID]; !ok {
			seen[r.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	authorsByID, err := p.users.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении авторов: %w", err)
	}
	authors := make([]domain.User, 0, len(authorsByID))
	for _, id := range authorIDs {
		if u, ok := authorsByID[id]; ok {
			authors = append(authors, u)
		}
	}
	authorViews, err := p.userViews(ctx, viewerID, authors)
	if err != nil {
		return nil, err
	}
	authorViewByID := make(map[int64]domain.UserView, len(authorViews))
	for _, v := range authorViews {
		authorViewByID[v.ID] = v
	}

	flags := map[int64]domain.RecipeFlags{}
	if viewerID != 0 {
		if flags, err = p.interactions.RelationFlags(ctx, viewerID, recipeIDs); err != nil {
			return nil, fmt.Errorf("usecase: ошибка при получении признаков рецептов: %w", err)
		}
	}

	views := make([]domain.RecipeView, len(recipes))
	for i, r := range recipes {
		lines := make([]domain.RecipeIngredientView, len(r.Ingredients))
		for j, line := range r.Ingredients {
			lines[j] = domain.RecipeIngredientView{
				ID:              line.IngredientID,
				Name:            line.Name,
				MeasurementUnit: line.MeasurementUnit,
				Amount:          line.Amount,
			}
		}

		views[i] = domain.RecipeView{
			ID:               r.ID,
			Author:           authorViewByID[r.AuthorID],
			Ingredients:      lines,
			IsFavorited:      flags[r.ID].IsFavorited,
			IsInShoppingCart: flags[r.ID].IsInShoppingCart,
			Name:             r.Name,
			Image:            p.fileURL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}
	return views, nil
}

func (p *presenter) recipeView(ctx context.Context, viewerID int64, recipe domain.Recipe) (*domain.RecipeView, error) {
	views, err := p.recipeViews(ctx, viewerID, []domain.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (p *presenter) minified(r domain.Recipe) domain.RecipeMinifiedView {
	return domain.RecipeMinifiedView{
		ID:          r.ID,
		Name:        r.Name,
		Image:       p.fileURL(r.Image),
		CookingTime: r.CookingTime,
	}
}

func (p *presenter) minifiedList(recipes []domain.Recipe) []domain.RecipeMinifiedView {
	views := make([]domain.RecipeMinifiedView, len(recipes))
	for i, r := range recipes {
		views[i] = p.minified(r)
	}
	return views
}

// usersWithRecipes добавляет к авторам превью рецептов и их общее число.
// recipesLimit == 0 дает пустое превью, отрицательный — без ограничения.
func (p *presenter) usersWithRecipes(ctx context.Context, viewerID int64, authors []domain.User, recipesLimit int) ([]domain.UserWithRecipesView, error) {
	base, err := p.userViews(ctx, viewerID, authors)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}

	previews := map[int64][]domain.Recipe{}
	if recipesLimit != 0 {
		limit := recipesLimit
		if limit < 0 {
			limit = 0
		}
		if previews, err = p.recipes.ListAuthorsRecipes(ctx, ids, limit); err != nil {
			return nil, fmt.Errorf("usecase: ошибка при получении рецептов авторов: %w", err)
		}
	}

	counts, err := p.recipes.CountAuthorsRecipes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при подсчете рецептов авторов: %w", err)
	}

	views := make([]domain.UserWithRecipesView, len(authors))
	for i, author := range authors {
		views[i] = domain.UserWithRecipesView{
			UserView:     base[i],
			Recipes:      p.minifiedList(previews[author.ID]),
			RecipesCount: counts[author.ID],
		}
	}
	return views, nil
}

// scheduleCleanup отправляет файл на удаление. Ошибка только логируется.
func scheduleCleanup(ctx context.Context, cleaner ports.MediaCleanupPublisher, logger *slog.Logger, key, reason string) {
	if key == "" {
		return
	}
	if err := cleaner.PublishMediaCleanup(ctx, payloads.MediaCleanupPayload{Key: key, Reason: reason}); err != nil {
		logger.Error("failed to schedule media cleanup", "key", key, "reason", reason, "error", err)
	}
}

// validate проверяет входную структуру и возвращает накопитель ошибок
func validate(in any) *domain.ValidationError {
	ve := &domain.ValidationError{}
	if err := validation.ValidateStruct(in); err != nil {
		var fieldErrs *domain.ValidationError
		if errors.As(err, &fieldErrs) {
			ve.Merge(fieldErrs)
		} else {
			ve.Add(domain.NonFieldErrors, err.Error())
		}
	}
	return ve
}

func conflict(message string, err error) error {
	return &domain.ConflictError{Message: message, Err: err}
}
