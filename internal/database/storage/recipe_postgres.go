package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const recipeColumns = `r.id, r.author_id, r.name, r.image, r.text, r.cooking_time, r.created_at, r.updated_at`

// RecipeStorage реализует ports.RecipeStorage поверх sqlx.
// Рецепт и его строки всегда пишутся в одной транзакции.
type RecipeStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewRecipeStorage(db *sqlx.DB, logger *slog.Logger) *RecipeStorage {
	return &RecipeStorage{db: db, logger: logger}
}

// CreateRecipeWithIngredients сохраняет рецепт и строки ингредиентов атомарно
func (s *RecipeStorage) CreateRecipeWithIngredients(ctx context.Context, recipe *domain.Recipe) error {
	start := time.Now()

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
		INSERT INTO recipes (author_id, name, image, text, cooking_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
		`
		err := tx.QueryRowxContext(ctx, query,
			recipe.AuthorID, recipe.Name, recipe.Image, recipe.Text, recipe.CookingTime,
		).Scan(&recipe.ID, &recipe.CreatedAt, &recipe.UpdatedAt)
		if err != nil {
			return fmt.Errorf("вставка рецепта: %w", mapPQError(err))
		}

		return insertRecipeIngredients(ctx, tx, recipe)
	})
	if err != nil {
		s.logger.Error("failed to create recipe", "author_id", recipe.AuthorID, "error", err)
		return fmt.Errorf("ошибка при создании рецепта: %w", err)
	}

	s.logger.Info("recipe created successfully",
		"recipe_id", recipe.ID,
		"author_id", recipe.AuthorID,
		"ingredients", len(recipe.Ingredients),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// ReplaceRecipeIngredients обновляет поля рецепта и заменяет все его строки атомарно
func (s *RecipeStorage) ReplaceRecipeIngredients(ctx context.Context, recipe *domain.Recipe) error {
	start := time.Now()

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
		UPDATE recipes
		SET name = $1, image = $2, text = $3, cooking_time = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
		`
		err := tx.QueryRowxContext(ctx, query,
			recipe.Name, recipe.Image, recipe.Text, recipe.CookingTime, recipe.ID,
		).Scan(&recipe.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("рецепт %d: %w", recipe.ID, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("обновление рецепта: %w", mapPQError(err))
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipe.ID); err != nil {
			return fmt.Errorf("удаление строк рецепта: %w", err)
		}

		return insertRecipeIngredients(ctx, tx, recipe)
	})
	if err != nil {
		s.logger.Error("failed to update recipe", "recipe_id", recipe.ID, "error", err)
		return fmt.Errorf("ошибка при обновлении рецепта: %w", err)
	}

	s.logger.Info("recipe updated successfully",
		"recipe_id", recipe.ID,
		"ingredients", len(recipe.Ingredients),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// insertRecipeIngredients вставляет все строки рецепта одним запросом
func insertRecipeIngredients(ctx context.Context, tx *sqlx.Tx, recipe *domain.Recipe) error {
	if len(recipe.Ingredients) == 0 {
		return nil
	}

	values := make([]string, 0, len(recipe.Ingredients))
	args := make([]any, 0, len(recipe.Ingredients)*3)
	for i := range recipe.Ingredients {
		line := &recipe.Ingredients[i]
		line.RecipeID = recipe.ID

		n := i * 3
		values = append(values, fmt.Sprintf("($%d, $%d, $%d)", n+1, n+2, n+3))
		args = append(args, recipe.ID, line.IngredientID, line.Amount)
	}

	query := `INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES ` + strings.Join(values, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("вставка строк рецепта: %w", mapPQError(err))
	}
	return nil
}

func (s *RecipeStorage) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("не удалось зафиксировать транзакцию: %w", err)
	}
	return nil
}

// DeleteRecipe удаляет рецепт, строки и связи удаляются каскадно
func (s *RecipeStorage) DeleteRecipe(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		s.logger.Error("failed to delete recipe", "recipe_id", id, "error", err)
		return fmt.Errorf("ошибка при удалении рецепта: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("рецепт %d: %w", id, domain.ErrNotFound)
	}

	s.logger.Info("recipe deleted", "recipe_id", id)
	return nil
}

// GetRecipe получает рецепт вместе со строками ингредиентов
func (s *RecipeStorage) GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error) {
	start := time.Now()

	var recipe domain.Recipe
	err := s.db.GetContext(ctx, &recipe, `SELECT `+recipeColumns+` FROM recipes r WHERE r.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("recipe not found", "recipe_id", id)
			return nil, fmt.Errorf("рецепт %d: %w", id, domain.ErrNotFound)
		}
		s.logger.Error("failed to get recipe", "recipe_id", id, "error", err)
		return nil, fmt.Errorf("ошибка при получении рецепта: %w", err)
	}

	recipes := []domain.Recipe{recipe}
	if err := s.attachIngredients(ctx, recipes); err != nil {
		return nil, err
	}

	s.logger.Debug("recipe retrieved",
		"recipe_id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &recipes[0], nil
}

// ListRecipes возвращает страницу рецептов, новые первыми.
// Фильтры по избранному и корзине применяются только для известного ViewerID.
func (s *RecipeStorage) ListRecipes(ctx context.Context, filter domain.RecipeFilter, page domain.Page) ([]domain.Recipe, int, error) {
	start := time.Now()

	var (
		conds []string
		args  []any
	)
	if filter.AuthorID != nil {
		args = append(args, *filter.AuthorID)
		conds = append(conds, fmt.Sprintf("r.author_id = $%d", len(args)))
	}
	if filter.FavoritedOnly && filter.ViewerID != 0 {
		args = append(args, filter.ViewerID)
		conds = append(conds, fmt.Sprintf("EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = $%d)", len(args)))
	}
	if filter.InCartOnly && filter.ViewerID != 0 {
		args = append(args, filter.ViewerID)
		conds = append(conds, fmt.Sprintf("EXISTS (SELECT 1 FROM shopping_cart c WHERE c.recipe_id = r.id AND c.user_id = $%d)", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM recipes r`+where, args...); err != nil {
		s.logger.Error("failed to count recipes", "error", err)
		return nil, 0, fmt.Errorf("ошибка при подсчете рецептов: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM recipes r%s ORDER BY r.created_at DESC, r.id DESC LIMIT $%d OFFSET $%d`,
		recipeColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())

	recipes := []domain.Recipe{}
	if err := s.db.SelectContext(ctx, &recipes, query, args...); err != nil {
		s.logger.Error("failed to list recipes", "page", page.Number, "error", err)
		return nil, 0, fmt.Errorf("ошибка при получении списка рецептов: %w", err)
	}

	if err := s.attachIngredients(ctx, recipes); err != nil {
		return nil, 0, err
	}

	s.logger.Debug("recipes listed",
		"page", page.Number,
		"count", len(recipes),
		"total", total,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return recipes, total, nil
}

// ListAuthorsRecipes возвращает превью рецептов для набора авторов одним запросом
func (s *RecipeStorage) ListAuthorsRecipes(ctx context.Context, authorIDs []int64, limit int) (map[int64][]domain.Recipe, error) {
	result := make(map[int64][]domain.Recipe, len(authorIDs))
	if len(authorIDs) == 0 {
		return result, nil
	}
	start := time.Now()

	query := `
	SELECT id, author_id, name, image, text, cooking_time, created_at, updated_at
	FROM (
		SELECT ` + recipeColumns + `,
		       ROW_NUMBER() OVER (PARTITION BY r.author_id ORDER BY r.created_at DESC, r.id DESC) AS rn
		FROM recipes r
		WHERE r.author_id = ANY($1)
	) ranked
	WHERE $2 <= 0 OR rn <= $2
	ORDER BY author_id, created_at DESC, id DESC
	`

	var recipes []domain.Recipe
	if err := s.db.SelectContext(ctx, &recipes, query, pq.Array(authorIDs), limit); err != nil {
		s.logger.Error("failed to list authors recipes", "authors", len(authorIDs), "error", err)
		return nil, fmt.Errorf("ошибка при получении рецептов авторов: %w", err)
	}

	for _, r := range recipes {
		result[r.AuthorID] = append(result[r.AuthorID], r)
	}

	s.logger.Debug("authors recipes listed",
		"authors", len(authorIDs),
		"count", len(recipes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// CountAuthorsRecipes считает рецепты каждого автора. Авторы без рецептов в ответ не попадают.
func (s *RecipeStorage) CountAuthorsRecipes(ctx context.Context, authorIDs []int64) (map[int64]int, error) {
	result := make(map[int64]int, len(authorIDs))
	if len(authorIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		AuthorID int64 `db:"author_id"`
		Count    int   `db:"count"`
	}
	query := `SELECT author_id, COUNT(*) AS count FROM recipes WHERE author_id = ANY($1) GROUP BY author_id`
	if err := s.db.SelectContext(ctx, &rows, query, pq.Array(authorIDs)); err != nil {
		s.logger.Error("failed to count authors recipes", "authors", len(authorIDs), "error", err)
		return nil, fmt.Errorf("ошибка при подсчете рецептов авторов: %w", err)
	}

	for _, row := range rows {
		result[row.AuthorID] = row.Count
	}
	return result, nil
}

// attachIngredients загружает строки для всех рецептов одним запросом
func (s *RecipeStorage) attachIngredients(ctx context.Context, recipes []domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	ids := make([]int64, len(recipes))
	index := make(map[int64]int, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		index[r.ID] = i
	}

	query := `
	SELECT ri.recipe_id, ri.ingredient_id, ri.amount, i.name, i.measurement_unit
	FROM recipe_ingredients ri
	JOIN ingredients i ON i.id = ri.ingredient_id
	WHERE ri.recipe_id = ANY($1)
	ORDER BY ri.id
	`

	var lines []domain.RecipeIngredient
	if err := s.db.SelectContext(ctx, &lines, query, pq.Array(ids)); err != nil {
		s.logger.Error("failed to load recipe ingredients", "recipes", len(ids), "error", err)
		return fmt.Errorf("ошибка при получении ингредиентов рецептов: %w", err)
	}

	for _, line := range lines {
		if i, ok := index[line.RecipeID]; ok {
			recipes[i].Ingredients = append(recipes[i].Ingredients, line)
		}
	}
	return nil
}
