package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/GoArmGo/Foodgram/internal/auth"
	"github.com/GoArmGo/Foodgram/internal/database/memstore"
	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/GoArmGo/Foodgram/internal/logger"
	"github.com/GoArmGo/Foodgram/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	salt  int64 = 1
	sugar int64 = 2
	flour int64 = 3
)

type fixture struct {
	store       *memstore.Store
	files       *memstore.Files
	users       UserUseCase
	recipes     RecipeUseCase
	auth        AuthUseCase
	ingredients IngredientUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.Discard()
	store := memstore.New()
	files := memstore.NewFiles("http://media.test/media")
	cleaner := media.NewInlineCleaner(files, log)
	hasher := auth.NewBcryptHasher(4)
	tokens, err := auth.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)

	f := &fixture{
		store:       store,
		files:       files,
		users:       NewUserUseCase(store, store, store, store, files, cleaner, hasher, log),
		recipes:     NewRecipeUseCase(store, store, store, store, store, files, cleaner, log),
		auth:        NewAuthUseCase(store, tokens, hasher, log),
		ingredients: NewIngredientUseCase(store, log),
	}

	n, err := f.ingredients.Import(context.Background(), []domain.Ingredient{
		{Name: "Salt", MeasurementUnit: "g"},
		{Name: "Sugar", MeasurementUnit: "g"},
		{Name: "Flour", MeasurementUnit: "kg"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	return f
}

func (f *fixture) register(t *testing.T, username string) int64 {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Имя",
		LastName:  "Фамилия",
		Password:  "Str0ng-Passw0rd",
	})
	require.NoError(t, err)
	return u.ID
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func (f *fixture) createRecipe(t *testing.T, authorID int64, lines ...IngredientAmountInput) *domain.RecipeView {
	t.Helper()
	r, err := f.recipes.Create(context.Background(), authorID, CreateRecipeInput{
		Ingredients: lines,
		Image:       pngDataURI(t),
		Name:        "Рецепт",
		Text:        "Описание",
		CookingTime: 10,
	})
	require.NoError(t, err)
	return r
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	return ve.Fields
}

func TestCreateRecipeRejectsBadIngredients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "author")

	cases := map[string][]IngredientAmountInput{
		"empty":     {},
		"duplicate": {{ID: salt, Amount: 1}, {ID: salt, Amount: 2}},
		"missing":   {{ID: 999, Amount: 1}},
		"zero":      {{ID: salt, Amount: 0}},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.recipes.Create(ctx, author, CreateRecipeInput{
				Ingredients: lines, Image: pngDataURI(t), Name: "x", Text: "y", CookingTime: 5,
			})
			assert.Contains(t, validationFields(t, err), "ingredients")
		})
	}

	page, err := f.recipes.List(ctx, domain.RecipeFilter{}, domain.Page{Number: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Count)
	assert.Equal(t, 0, f.files.Len())
}

func TestCreateRecipeValidatesFields(t *testing.T) {
	f := newFixture(t)
	author := f.register(t, "author")

	_, err := f.recipes.Create(context.Background(), author, CreateRecipeInput{
		Ingredients: []IngredientAmountInput{{ID: salt, Amount: 1}},
		Image:       "",
		CookingTime: 0,
	})
	fields := validationFields(t, err)
	assert.Contains(t, fields, "image")
	assert.Contains(t, fields, "cooking_time")
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "text")
}

func TestUpdateReplacesIngredients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "author")

	created := f.createRecipe(t, author, IngredientAmountInput{ID: salt, Amount: 2}, IngredientAmountInput{ID: sugar, Amount: 3})
	require.Len(t, created.Ingredients, 2)

	updated, err := f.recipes.Update(ctx, author, created.ID, UpdateRecipeInput{
		Ingredients: []IngredientAmountInput{{ID: flour, Amount: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.RecipeIngredientView{{ID: flour, Name: "Flour", MeasurementUnit: "kg", Amount: 1}}, updated.Ingredients)
	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, created.Image, updated.Image)
}

func TestUpdateRequiresIngredientsAndAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "author")
	other := f.register(t, "other")
	r := f.createRecipe(t, author, IngredientAmountInput{ID: salt, Amount: 1})

	_, err := f.recipes.Update(ctx, other, r.ID, UpdateRecipeInput{Ingredients: []IngredientAmountInput{{ID: salt, Amount: 1}}})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = f.recipes.Update(ctx, author, r.ID, UpdateRecipeInput{})
	assert.Contains(t, validationFields(t, err), "ingredients")

	err = f.recipes.Delete(ctx, other, r.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = f.recipes.Update(ctx, author, 12345, UpdateRecipeInput{})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdateImageSchedulesCleanup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "author")
	r := f.createRecipe(t, author, IngredientAmountInput{ID: salt, Amount: 1})
	require.Equal(t, 1, f.files.Len())

	newImage := pngDataURI(t)
	updated, err := f.recipes.Update(ctx, author, r.ID, UpdateRecipeInput{
		Ingredients: []IngredientAmountInput{{ID: salt, Amount: 1}},
		Image:       &newImage,
	})
	require.NoError(t, err)
	assert.NotEqual(t, r.Image, updated.Image)
	assert.Equal(t, 1, f.files.Len())

	require.NoError(t, f.recipes.Delete(ctx, author, r.ID))
	assert.Equal(t, 0, f.files.Len())

	_, err = f.recipes.Get(ctx, 0, r.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRelationToggles(t *testing.T) {
	for _, rel := range []domain.Relation{domain.RelationFavorite, domain.RelationShoppingCart} {
		t.Run(rel.String(), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			user := f.register(t, "user")
			r := f.createRecipe(t, user, IngredientAmountInput{ID: salt, Amount: 1})

			view, err := f.recipes.AddRelation(ctx, rel, user, r.ID)
			require.NoError(t, err)
			assert.Equal(t, r.ID, view.ID)

			_, err = f.recipes.AddRelation(ctx, rel, user, r.ID)
			var ce *domain.ConflictError
			require.True(t, errors.As(err, &ce))
			assert.True(t, errors.Is(err, domain.ErrAlreadyExists))

			_, err = f.recipes.GetRelation(ctx, rel, user, r.ID)
			require.NoError(t, err)

			require.NoError(t, f.recipes.RemoveRelation(ctx, rel, user, r.ID))
			err = f.recipes.RemoveRelation(ctx, rel, user, r.ID)
			assert.True(t, errors.Is(err, domain.ErrNotInRelation))

			_, err = f.recipes.GetRelation(ctx, rel, user, r.ID)
			assert.True(t, errors.Is(err, domain.ErrNotFound))

			_, err = f.recipes.AddRelation(ctx, rel, user, 999)
			assert.True(t, errors.Is(err, domain.ErrNotFound))
		})
	}
}

func TestCallerRelativeFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "author")
	reader := f.register(t, "reader")
	r := f.createRecipe(t, author, IngredientAmountInput{ID: salt, Amount: 1})

	_, err := f.recipes.AddRelation(ctx, domain.RelationFavorite, reader, r.ID)
	require.NoError(t, err)
	_, err = f.users.Subscribe(ctx, reader, author, -1)
	require.NoError(t, err)

	forReader, err := f.recipes.Get(ctx, reader, r.ID)
	require.NoError(t, err)
	assert.True(t, forReader.IsFavorited)
	assert.False(t, forReader.IsInShoppingCart)
	assert.True(t, forReader.Author.IsSubscribed)

	anonymous, err := f.recipes.Get(ctx, 0, r.ID)
	require.NoError(t, err)
	assert.False(t, anonymous.IsFavorited)
	assert.False(t, anonymous.IsInShoppingCart)
	assert.False(t, anonymous.Author.IsSubscribed)
	assert.Equal(t, "http://media.test/media/"+mustKey(t, f, r.ID), anonymous.Image)
}

func mustKey(t *testing.T, f *fixture, id int64) string {
	t.Helper()
	r, err := f.store.GetRecipe(context.Background(), id)
	require.NoError(t, err)
	return r.Image
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "author")
	reader := f.register(t, "reader")
	first := f.createRecipe(t, author, IngredientAmountInput{ID: salt, Amount: 1})
	second := f.createRecipe(t, reader, IngredientAmountInput{ID: sugar, Amount: 1})

	_, err := f.recipes.AddRelation(ctx, domain.RelationShoppingCart, reader, first.ID)
	require.NoError(t, err)

	page := domain.Page{Number: 1, Limit: 10}

	all, err := f.recipes.List(ctx, domain.RecipeFilter{}, page)
	require.NoError(t, err)
	require.Equal(t, 2, all.Count)
	assert.Equal(t, second.ID, all.Results[0].ID, "newest first")

	anon, err := f.recipes.List(ctx, domain.RecipeFilter{InCartOnly: true}, page)
	require.NoError(t, err)
	assert.Equal(t, 0, anon.Count)
	assert.Empty(t, anon.Results)

	cart, err := f.recipes.List(ctx, domain.RecipeFilter{ViewerID: reader, InCartOnly: true}, page)
	require.NoError(t, err)
	require.Equal(t, 1, cart.Count)
	assert.Equal(t, first.ID, cart.Results[0].ID)
	assert.True(t, cart.Results[0].IsInShoppingCart)

	byAuthor, err := f.recipes.List(ctx, domain.RecipeFilter{AuthorID: &reader, ViewerID: author}, page)
	require.NoError(t, err)
	require.Equal(t, 1, byAuthor.Count)
	assert.Equal(t, second.ID, byAuthor.Results[0].ID)
}

func TestShoppingListSumsAcrossRecipes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "cook")

	a := f.createRecipe(t, user, IngredientAmountInput{ID: salt, Amount: 5})
	b := f.createRecipe(t, user, IngredientAmountInput{ID: salt, Amount: 10}, IngredientAmountInput{ID: flour, Amount: 2})
	f.createRecipe(t, user, IngredientAmountInput{ID: sugar, Amount: 100})

	for _, id := range []int64{a.ID, b.ID} {
		_, err := f.recipes.AddRelation(ctx, domain.RelationShoppingCart, user, id)
		require.NoError(t, err)
	}

	text, err := f.recipes.DownloadShoppingList(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "Flour (kg) — 2\nSalt (g) — 15\n", text)

	listed, err := f.recipes.ListRelated(ctx, domain.RelationShoppingCart, user, domain.Page{Number: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, listed.Count)
}

func TestShortLink(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "cook")
	r := f.createRecipe(t, user, IngredientAmountInput{ID: salt, Amount: 1})

	link, err := f.recipes.ShortLink(context.Background(), "foodgram.example", r.ID)
	require.NoError(t, err)
	assert.Equal(t, "foodgram.example/recipes/"+itoa(r.ID), link.ShortLink)

	_, err = f.recipes.ShortLink(context.Background(), "foodgram.example", 999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
