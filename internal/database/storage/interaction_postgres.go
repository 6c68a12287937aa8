package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// InteractionStorage реализует ports.InteractionStorage: избранное и корзину покупок.
// Обе связи устроены одинаково и различаются только таблицей.
type InteractionStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewInteractionStorage(db *sqlx.DB, logger *slog.Logger) *InteractionStorage {
	return &InteractionStorage{db: db, logger: logger}
}

func relationTable(rel domain.Relation) (string, error) {
	switch rel {
	case domain.RelationFavorite:
		return "favorites", nil
	case domain.RelationShoppingCart:
		return "shopping_cart", nil
	default:
		return "", fmt.Errorf("неизвестный тип связи: %d", rel)
	}
}

// AddRelation добавляет рецепт в избранное или корзину.
// Повтор отсекает ограничение уникальности (user_id, recipe_id).
func (s *InteractionStorage) AddRelation(ctx context.Context, rel domain.Relation, userID, recipeID int64) error {
	table, err := relationTable(rel)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (user_id, recipe_id) VALUES ($1, $2)`, userID, recipeID)
	if err != nil {
		s.logger.Warn("failed to add relation",
			"relation", rel.String(),
			"user_id", userID,
			"recipe_id", recipeID,
			"error", err,
		)
		return fmt.Errorf("ошибка при добавлении в %s: %w", table, mapPQError(err))
	}

	s.logger.Info("relation added", "relation", rel.String(), "user_id", userID, "recipe_id", recipeID)
	return nil
}

// RemoveRelation удаляет связь, ErrNotInRelation если ее не было
func (s *InteractionStorage) RemoveRelation(ctx context.Context, rel domain.Relation, userID, recipeID int64) error {
	table, err := relationTable(rel)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
	if err != nil {
		s.logger.Error("failed to remove relation", "relation", rel.String(), "user_id", userID, "recipe_id", recipeID, "error", err)
		return fmt.Errorf("ошибка при удалении из %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %d/%d: %w", table, userID, recipeID, domain.ErrNotInRelation)
	}

	s.logger.Info("relation removed", "relation", rel.String(), "user_id", userID, "recipe_id", recipeID)
	return nil
}

func (s *InteractionStorage) HasRelation(ctx context.Context, rel domain.Relation, userID, recipeID int64) (bool, error) {
	table, err := relationTable(rel)
	if err != nil {
		return false, err
	}

	var exists bool
	err = s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE user_id = $1 AND recipe_id = $2)`, userID, recipeID)
	if err != nil {
		s.logger.Error("failed to check relation", "relation", rel.String(), "error", err)
		return false, fmt.Errorf("ошибка при проверке %s: %w", table, err)
	}
	return exists, nil
}

// RelationFlags вычисляет признаки избранного и корзины для набора рецептов одним запросом
func (s *InteractionStorage) RelationFlags(ctx context.Context, userID int64, recipeIDs []int64) (map[int64]domain.RecipeFlags, error) {
	result := make(map[int64]domain.RecipeFlags, len(recipeIDs))
	if userID == 0 || len(recipeIDs) == 0 {
		return result, nil
	}

	query := `
	SELECT ids.id AS recipe_id,
	       EXISTS (SELECT 1 FROM favorites f WHERE f.user_id = $1 AND f.recipe_id = ids.id)     AS is_favorited,
	       EXISTS (SELECT 1 FROM shopping_cart c WHERE c.user_id = $1 AND c.recipe_id = ids.id) AS is_in_shopping_cart
	FROM UNNEST($2::bigint[]) AS ids(id)
	`

	var rows []struct {
		RecipeID         int64 `db:"recipe_id"`
		IsFavorited      bool  `db:"is_favorited"`
		IsInShoppingCart bool  `db:"is_in_shopping_cart"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, userID, pq.Array(recipeIDs)); err != nil {
		s.logger.Error("failed to compute relation flags", "user_id", userID, "error", err)
		return nil, fmt.Errorf("ошибка при получении признаков рецептов: %w", err)
	}

	for _, row := range rows {
		result[row.RecipeID] = domain.RecipeFlags{
			IsFavorited:      row.IsFavorited,
			IsInShoppingCart: row.IsInShoppingCart,
		}
	}
	return result, nil
}

// ListRelatedRecipes возвращает страницу рецептов из избранного или корзины без строк ингредиентов
func (s *InteractionStorage) ListRelatedRecipes(ctx context.Context, rel domain.Relation, userID int64, page domain.Page) ([]domain.Recipe, int, error) {
	table, err := relationTable(rel)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM `+table+` WHERE user_id = $1`, userID); err != nil {
		s.logger.Error("failed to count related recipes", "relation", rel.String(), "error", err)
		return nil, 0, fmt.Errorf("ошибка при подсчете %s: %w", table, err)
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes r JOIN ` + table + ` t ON t.recipe_id = r.id
	WHERE t.user_id = $1
	ORDER BY r.created_at DESC, r.id DESC
	LIMIT $2 OFFSET $3`

	recipes := []domain.Recipe{}
	if err := s.db.SelectContext(ctx, &recipes, query, userID, page.Limit, page.Offset()); err != nil {
		s.logger.Error("failed to list related recipes", "relation", rel.String(), "error", err)
		return nil, 0, fmt.Errorf("ошибка при получении %s: %w", table, err)
	}
	return recipes, total, nil
}

// ShoppingList суммирует ингредиенты всех рецептов в корзине пользователя
func (s *InteractionStorage) ShoppingList(ctx context.Context, userID int64) ([]domain.ShoppingListItem, error) {
	start := time.Now()

	query := `
	SELECT i.name, i.measurement_unit, SUM(ri.amount) AS total_amount
	FROM shopping_cart sc
	JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id
	JOIN ingredients i ON i.id = ri.ingredient_id
	WHERE sc.user_id = $1
	GROUP BY i.name, i.measurement_unit
	ORDER BY i.name, i.measurement_unit
	`

	items := []domain.ShoppingListItem{}
	if err := s.db.SelectContext(ctx, &items, query, userID); err != nil {
		s.logger.Error("failed to build shopping list", "user_id", userID, "error", err)
		return nil, fmt.Errorf("ошибка при формировании списка покупок: %w", err)
	}

	s.logger.Info("shopping list built",
		"user_id", userID,
		"items", len(items),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return items, nil
}
