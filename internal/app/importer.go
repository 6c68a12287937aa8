package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/GoArmGo/Foodgram/internal/usecase"
	"github.com/goccy/go-json"
)

// runImport загружает справочник ингредиентов из JSON-файла вида
// [{"name": "...", "measurement_unit": "..."}]
func runImport(ctx context.Context, path string, uc usecase.IngredientUseCase, logger *slog.Logger) error {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("не удалось открыть файл ингредиентов %s: %w", path, err)
	}
	defer f.Close()

	items, err := readIngredients(f)
	if err != nil {
		return fmt.Errorf("файл %s: %w", path, err)
	}

	inserted, err := uc.Import(ctx, items)
	if err != nil {
		return fmt.Errorf("ошибка импорта ингредиентов: %w", err)
	}

	logger.Info("ingredients imported",
		"file", path,
		"total", len(items),
		"inserted", inserted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func readIngredients(r io.Reader) ([]domain.Ingredient, error) {
	var items []domain.Ingredient
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("некорректный JSON: %w", err)
	}
	return items, nil
}
