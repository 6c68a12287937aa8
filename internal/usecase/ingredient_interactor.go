package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/GoArmGo/Foodgram/internal/core/ports"
	"github.com/GoArmGo/Foodgram/internal/domain"
)

type ingredientUseCase struct {
	ingredients ports.IngredientStorage
	logger      *slog.Logger
}

// NewIngredientUseCase создает новый экземпляр IngredientUseCase
func NewIngredientUseCase(ingredients ports.IngredientStorage, logger *slog.Logger) IngredientUseCase {
	return &ingredientUseCase{ingredients: ingredients, logger: logger}
}

func (uc *ingredientUseCase) Search(ctx context.Context, namePrefix string) ([]domain.Ingredient, error) {
	items, err := uc.ingredients.SearchIngredients(ctx, strings.TrimSpace(namePrefix))
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при поиске ингредиентов: %w", err)
	}
	return items, nil
}

func (uc *ingredientUseCase) Get(ctx context.Context, id int64) (*domain.Ingredient, error) {
	item, err := uc.ingredients.GetIngredient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении ингредиента: %w", err)
	}
	return item, nil
}

// Import очищает записи от пробелов, отбрасывает пустые и повторяющиеся внутри файла
func (uc *ingredientUseCase) Import(ctx context.Context, items []domain.Ingredient) (int64, error) {
	type key struct{ name, unit string }
	seen := make(map[key]struct{}, len(items))

	clean := make([]domain.Ingredient, 0, len(items))
	skipped := 0
	for _, item := range items {
		k := key{strings.TrimSpace(item.Name), strings.TrimSpace(item.MeasurementUnit)}
		if k.name == "" || k.unit == "" {
			skipped++
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		clean = append(clean, domain.Ingredient{Name: k.name, MeasurementUnit: k.unit})
	}

	if skipped > 0 {
		uc.logger.Warn("skipped ingredients without name or unit", "count", skipped)
	}

	inserted, err := uc.ingredients.ImportIngredients(ctx, clean)
	if err != nil {
		return 0, fmt.Errorf("usecase: ошибка импорта ингредиентов: %w", err)
	}
	return inserted, nil
}
