package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GoArmGo/Foodgram/internal/config"
	"github.com/GoArmGo/Foodgram/internal/database/memstore"
	"github.com/GoArmGo/Foodgram/internal/logger"
	"github.com/GoArmGo/Foodgram/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadIngredients(t *testing.T) {
	items, err := readIngredients(strings.NewReader(`[
		{"name": "абрикосовое варенье", "measurement_unit": "г"},
		{"name": "яйца", "measurement_unit": "шт."}
	]`))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "яйца", items[1].Name)
	assert.Equal(t, "шт.", items[1].MeasurementUnit)

	_, err = readIngredients(strings.NewReader(`{"name": "x"}`))
	assert.Error(t, err)
}

func TestImportModeIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingredients.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name": "соль", "measurement_unit": "г"},
		{"name": "сахар", "measurement_unit": "г"},
		{"name": "соль", "measurement_unit": "г"}
	]`), 0o600))

	log := logger.Discard()
	store := memstore.New()
	uc := usecase.NewIngredientUseCase(store, log)
	var closed bool

	a := NewApp(&config.Config{IngredientsFile: path}, log, Deps{
		IngredientUseCase: uc,
		Closers:           []func() error{func() error { closed = true; return nil }},
	})

	mode := ModeImport
	require.NoError(t, a.Run(context.Background(), &mode))
	require.NoError(t, a.Run(context.Background(), &mode))
	assert.True(t, closed)

	items, err := uc.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRunRejectsUnknownModeAndMissingQueue(t *testing.T) {
	a := NewApp(&config.Config{}, logger.Discard(), Deps{})

	mode := "cron"
	assert.Error(t, a.Run(context.Background(), &mode))

	mode = ModeWorker
	assert.True(t, errors.Is(a.Run(context.Background(), &mode), ErrNoQueue))
}

func TestShutdownJoinsErrors(t *testing.T) {
	var order []int
	a := NewApp(&config.Config{}, logger.Discard(), Deps{Closers: []func() error{
		func() error { order = append(order, 1); return errors.New("db") },
		func() error { order = append(order, 2); return nil },
	}})

	err := a.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, a.Shutdown())
}
