package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/GoArmGo/Foodgram/internal/logger"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestCreateRecipeWithIngredientsCommits(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewRecipeStorage(db, logger.Discard())
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO recipes`).
		WithArgs(int64(1), "Борщ", "recipes/images/a.png", "Варить", 60).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(5), now, now))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES ($1, $2, $3), ($4, $5, $6)`)).
		WithArgs(int64(5), int64(1), 2, int64(5), int64(2), 3).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	recipe := &domain.Recipe{
		AuthorID:    1,
		Name:        "Борщ",
		Image:       "recipes/images/a.png",
		Text:        "Варить",
		CookingTime: 60,
		Ingredients: []domain.RecipeIngredient{{IngredientID: 1, Amount: 2}, {IngredientID: 2, Amount: 3}},
	}
	require.NoError(t, s.CreateRecipeWithIngredients(context.Background(), recipe))

	assert.Equal(t, int64(5), recipe.ID)
	assert.Equal(t, int64(5), recipe.Ingredients[1].RecipeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRecipeRollsBackOnLineFailure(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewRecipeStorage(db, logger.Discard())
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO recipes`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(6), now, now))
	mock.ExpectExec(`INSERT INTO recipe_ingredients`).
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation, Constraint: "recipe_ingredients_ingredient_id_fkey"})
	mock.ExpectRollback()

	recipe := &domain.Recipe{AuthorID: 1, Name: "x", Image: "k", Text: "t", CookingTime: 1,
		Ingredients: []domain.RecipeIngredient{{IngredientID: 99, Amount: 1}}}
	err := s.CreateRecipeWithIngredients(context.Background(), recipe)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRecipeIngredientsReplacesLines(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewRecipeStorage(db, logger.Discard())

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE recipes`).
		WithArgs("Суп", "recipes/images/b.png", "Текст", 15, int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM recipe_ingredients WHERE recipe_id = $1`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES ($1, $2, $3)`)).
		WithArgs(int64(5), int64(3), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	recipe := &domain.Recipe{ID: 5, Name: "Суп", Image: "recipes/images/b.png", Text: "Текст", CookingTime: 15,
		Ingredients: []domain.RecipeIngredient{{IngredientID: 3, Amount: 1}}}
	require.NoError(t, s.ReplaceRecipeIngredients(context.Background(), recipe))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRecipeIngredientsMissingRecipe(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewRecipeStorage(db, logger.Discard())

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE recipes`).WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))
	mock.ExpectRollback()

	err := s.ReplaceRecipeIngredients(context.Background(), &domain.Recipe{ID: 404, CookingTime: 1})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecipesFilters(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewRecipeStorage(db, logger.Discard())
	author := int64(2)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM recipes r WHERE r.author_id = \$1 AND EXISTS \(SELECT 1 FROM favorites`).
		WithArgs(author, int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM recipes r WHERE .* ORDER BY r.created_at DESC, r.id DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(author, int64(7), 6, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "author_id", "name", "image", "text", "cooking_time", "created_at", "updated_at"}).
			AddRow(int64(10), author, "Омлет", "k", "t", 5, now, now))
	mock.ExpectQuery(`FROM recipe_ingredients ri`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"recipe_id", "ingredient_id", "amount", "name", "measurement_unit"}).
			AddRow(int64(10), int64(1), 2, "Яйца", "шт"))

	recipes, total, err := s.ListRecipes(context.Background(),
		domain.RecipeFilter{AuthorID: &author, ViewerID: 7, FavoritedOnly: true},
		domain.Page{Number: 1, Limit: 6})
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	require.Len(t, recipes, 1)
	require.Len(t, recipes[0].Ingredients, 1)
	assert.Equal(t, "Яйца", recipes[0].Ingredients[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddRelationDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewInteractionStorage(db, logger.Discard())

	mock.ExpectExec(`INSERT INTO favorites`).
		WithArgs(int64(1), int64(2)).
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: "unique_favorite"})

	err := s.AddRelation(context.Background(), domain.RelationFavorite, 1, 2)
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveRelationAbsent(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewInteractionStorage(db, logger.Discard())

	mock.ExpectExec(`DELETE FROM shopping_cart`).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.RemoveRelation(context.Background(), domain.RelationShoppingCart, 1, 2)
	assert.True(t, errors.Is(err, domain.ErrNotInRelation))
}

func TestShoppingListAggregates(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewInteractionStorage(db, logger.Discard())

	mock.ExpectQuery(`SELECT i.name, i.measurement_unit, SUM\(ri.amount\) AS total_amount.*GROUP BY i.name, i.measurement_unit.*ORDER BY i.name`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "measurement_unit", "total_amount"}).
			AddRow("Salt", "g", 15).
			AddRow("Sugar", "g", 4))

	items, err := s.ShoppingList(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []domain.ShoppingListItem{
		{Name: "Salt", MeasurementUnit: "g", TotalAmount: 15},
		{Name: "Sugar", MeasurementUnit: "g", TotalAmount: 4},
	}, items)
	assert.Equal(t, "Salt (g) — 15\nSugar (g) — 4\n", domain.RenderShoppingList(items))
}

func TestRelationFlagsAnonymousSkipsQuery(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewInteractionStorage(db, logger.Discard())

	flags, err := s.RelationFlags(context.Background(), 0, []int64{1, 2})
	require.NoError(t, err)
	assert.Empty(t, flags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddSubscriptionErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *pq.Error
		want error
	}{
		{"duplicate", &pq.Error{Code: pqUniqueViolation, Constraint: "unique_subscription"}, domain.ErrAlreadyExists},
		{"self", &pq.Error{Code: pqCheckViolation, Constraint: constraintNoSelfSubscribe}, domain.ErrSelfSubscription},
		{"missing author", &pq.Error{Code: pqForeignKeyViolation, Constraint: "subscriptions_author_id_fkey"}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			s := NewSubscriptionStorage(db, logger.Discard())

			mock.ExpectExec(`INSERT INTO subscriptions`).WillReturnError(tt.err)

			err := s.AddSubscription(context.Background(), 1, 2)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCreateUserUniqueEmail(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewUserStorage(db, logger.Discard())

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: constraintUsersEmail})

	err := s.CreateUser(context.Background(), &domain.User{Email: "a@b.c", Username: "a"})

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "email")
}

func TestGetUserByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewUserStorage(db, logger.Discard())

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetUserByID(context.Background(), 9)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListAuthorsRecipesGroupsByAuthor(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewRecipeStorage(db, logger.Discard())
	now := time.Now()

	columns := []string{"id", "author_id", "name", "image", "text", "cooking_time", "created_at", "updated_at"}
	mock.ExpectQuery(`ROW_NUMBER\(\) OVER \(PARTITION BY r.author_id`).
		WithArgs(sqlmock.AnyArg(), 2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(3), int64(1), "Суп", "a.png", "т", 10, now, now).
			AddRow(int64(2), int64(1), "Каша", "b.png", "т", 5, now, now).
			AddRow(int64(4), int64(7), "Хлеб", "c.png", "т", 60, now, now))

	got, err := s.ListAuthorsRecipes(context.Background(), []int64{1, 7, 9}, 2)
	require.NoError(t, err)

	require.Len(t, got[1], 2)
	assert.Equal(t, int64(3), got[1][0].ID)
	require.Len(t, got[7], 1)
	assert.Empty(t, got[9])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAuthorsRecipesSkipsEmptyInput(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewRecipeStorage(db, logger.Discard())

	got, err := s.ListAuthorsRecipes(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	counts, err := s.CountAuthorsRecipes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountAuthorsRecipes(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewRecipeStorage(db, logger.Discard())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT author_id, COUNT(*) AS count FROM recipes WHERE author_id = ANY($1) GROUP BY author_id`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"author_id", "count"}).AddRow(int64(1), 4).AddRow(int64(7), 1))

	counts, err := s.CountAuthorsRecipes(context.Background(), []int64{1, 7, 9})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{1: 4, 7: 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
