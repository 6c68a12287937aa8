package usecase

import (
	"context"

	"github.com/GoArmGo/Foodgram/internal/domain"
)

// IngredientUseCase определяет работу со справочником ингредиентов
type IngredientUseCase interface {
	// Search ищет по началу названия без учета регистра, пустой префикс — весь справочник
	Search(ctx context.Context, namePrefix string) ([]domain.Ingredient, error)
	Get(ctx context.Context, id int64) (*domain.Ingredient, error)
	// Import загружает справочник, повторы (name, measurement_unit) пропускаются
	Import(ctx context.Context, items []domain.Ingredient) (int64, error)
}
