package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/GoArmGo/Foodgram/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIngredientStorage(t *testing.T) (*IngredientStorage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := OpenGorm(db, logger.Discard())
	require.NoError(t, err)
	return NewIngredientStorage(gdb, logger.Discard()), mock
}

func TestSearchIngredientsEscapesPrefix(t *testing.T) {
	s, mock := newIngredientStorage(t)

	mock.ExpectQuery(`SELECT \* FROM "ingredients" WHERE LOWER\(name\) LIKE LOWER\(\$1\)`).
		WithArgs(`50\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "measurement_unit"}).
			AddRow(int64(1), "50% сливки", "мл"))

	got, err := s.SearchIngredients(context.Background(), "50%")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "мл", got[0].MeasurementUnit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetIngredientNotFound(t *testing.T) {
	s, mock := newIngredientStorage(t)

	mock.ExpectQuery(`SELECT \* FROM "ingredients"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "measurement_unit"}))

	_, err := s.GetIngredient(context.Background(), 42)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMissingIngredientIDs(t *testing.T) {
	s, mock := newIngredientStorage(t)

	mock.ExpectQuery(`SELECT "id" FROM "ingredients" WHERE id IN`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(3)))

	missing, err := s.MissingIngredientIDs(context.Background(), []int64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4}, missing)
}

func TestLikeEscaper(t *testing.T) {
	assert.Equal(t, `a\_b\%c\\`, likeEscaper.Replace(`a_b%c\`))
}
