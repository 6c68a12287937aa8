package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const importBatchSize = 500

// IngredientStorage реализует ports.IngredientStorage с использованием GORM
type IngredientStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewIngredientStorage создает новый экземпляр IngredientStorage
func NewIngredientStorage(db *gorm.DB, logger *slog.Logger) *IngredientStorage {
	return &IngredientStorage{db: db, logger: logger}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchIngredients ищет ингредиенты по началу названия без учета регистра.
// Пустой префикс возвращает весь справочник.
func (s *IngredientStorage) SearchIngredients(ctx context.Context, namePrefix string) ([]domain.Ingredient, error) {
	start := time.Now()

	q := s.db.WithContext(ctx).Model(&domain.Ingredient{})
	if namePrefix != "" {
		q = q.Where(`LOWER(name) LIKE LOWER(?) ESCAPE '\'`, likeEscaper.Replace(namePrefix)+"%")
	}

	ingredients := []domain.Ingredient{}
	if err := q.Order("name").Order("id").Find(&ingredients).Error; err != nil {
		s.logger.Error("failed to search ingredients", "prefix", namePrefix, "error", err)
		return nil, fmt.Errorf("ошибка при поиске ингредиентов с помощью GORM: %w", err)
	}

	s.logger.Debug("ingredients searched",
		"prefix", namePrefix,
		"count", len(ingredients),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ingredients, nil
}

// GetIngredient получает ингредиент по ID
func (s *IngredientStorage) GetIngredient(ctx context.Context, id int64) (*domain.Ingredient, error) {
	var ingredient domain.Ingredient
	err := s.db.WithContext(ctx).First(&ingredient, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("ингредиент %d: %w", id, domain.ErrNotFound)
		}
		s.logger.Error("failed to get ingredient", "id", id, "error", err)
		return nil, fmt.Errorf("ошибка при получении ингредиента с помощью GORM: %w", err)
	}
	return &ingredient, nil
}

// MissingIngredientIDs возвращает ID из списка, которых нет в справочнике, в исходном порядке
func (s *IngredientStorage) MissingIngredientIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []int64
	err := s.db.WithContext(ctx).Model(&domain.Ingredient{}).Where("id IN ?", ids).Pluck("id", &found).Error
	if err != nil {
		s.logger.Error("failed to check ingredient ids", "count", len(ids), "error", err)
		return nil, fmt.Errorf("ошибка при проверке ингредиентов с помощью GORM: %w", err)
	}

	existing := make(map[int64]struct{}, len(found))
	for _, id := range found {
		existing[id] = struct{}{}
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// ImportIngredients загружает справочник пачками, существующие пары (name, unit) пропускаются.
// Возвращает количество реально добавленных записей.
func (s *IngredientStorage) ImportIngredients(ctx context.Context, items []domain.Ingredient) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	start := time.Now()

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(items, importBatchSize)
	if result.Error != nil {
		s.logger.Error("failed to import ingredients", "count", len(items), "error", result.Error)
		return 0, fmt.Errorf("ошибка при импорте ингредиентов с помощью GORM: %w", result.Error)
	}

	s.logger.Info("ingredients imported",
		"received", len(items),
		"inserted", result.RowsAffected,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result.RowsAffected, nil
}
