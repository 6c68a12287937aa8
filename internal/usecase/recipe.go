package usecase

import (
	"context"

	"github.com/GoArmGo/Foodgram/internal/domain"
)

// IngredientAmountInput — строка рецепта во входных данных
type IngredientAmountInput struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// CreateRecipeInput — формат записи рецепта, отличается от формата чтения
type CreateRecipeInput struct {
	Ingredients []IngredientAmountInput `json:"ingredients"`
	Image       string                  `json:"image"`
	Name        string                  `json:"name" validate:"required,max=256"`
	Text        string                  `json:"text" validate:"required"`
	CookingTime int                     `json:"cooking_time"`
}

// UpdateRecipeInput — частичное обновление. Ингредиенты обязательны,
// остальные поля меняются, только если переданы.
type UpdateRecipeInput struct {
	Ingredients []IngredientAmountInput `json:"ingredients"`
	Image       *string                 `json:"image"`
	Name        *string                 `json:"name" validate:"omitnil,min=1,max=256"`
	Text        *string                 `json:"text" validate:"omitnil,min=1"`
	CookingTime *int                    `json:"cooking_time"`
}

// RecipeUseCase определяет бизнес-логику рецептов, избранного и корзины.
// viewerID == 0 означает анонимного пользователя.
type RecipeUseCase interface {
	List(ctx context.Context, filter domain.RecipeFilter, page domain.Page) (*domain.Paginated[domain.RecipeView], error)
	Get(ctx context.Context, viewerID, id int64) (*domain.RecipeView, error)
	Create(ctx context.Context, authorID int64, in CreateRecipeInput) (*domain.RecipeView, error)
	// Update и Delete доступны только автору рецепта
	Update(ctx context.Context, userID, id int64, in UpdateRecipeInput) (*domain.RecipeView, error)
	Delete(ctx context.Context, userID, id int64) error
	// ShortLink возвращает ссылку вида {host}/recipes/{id}
	ShortLink(ctx context.Context, host string, id int64) (*domain.ShortLinkView, error)

	AddRelation(ctx context.Context, rel domain.Relation, userID, recipeID int64) (*domain.RecipeMinifiedView, error)
	RemoveRelation(ctx context.Context, rel domain.Relation, userID, recipeID int64) error
	// GetRelation возвращает рецепт, если он в избранном/корзине, иначе ErrNotFound
	GetRelation(ctx context.Context, rel domain.Relation, userID, recipeID int64) (*domain.RecipeMinifiedView, error)
	ListRelated(ctx context.Context, rel domain.Relation, userID int64, page domain.Page) (*domain.Paginated[domain.RecipeMinifiedView], error)

	// DownloadShoppingList формирует текстовый список покупок по корзине
	DownloadShoppingList(ctx context.Context, userID int64) (string, error)
}
