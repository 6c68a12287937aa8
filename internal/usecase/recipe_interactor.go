package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/GoArmGo/Foodgram/internal/core/ports"
	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/GoArmGo/Foodgram/internal/media"
)

// Сообщения о повторном или отсутствующем действии, по типу связи
var relationMessages = map[domain.Relation]struct{ exists, missing string }{
	domain.RelationFavorite:     {"Рецепт уже в избранном", "Рецепта нет в избранном"},
	domain.RelationShoppingCart: {"Рецепт уже в корзине", "Рецепта нет в корзине"},
}

// recipeUseCase implements RecipeUseCase
type recipeUseCase struct {
	*presenter
	ingredients ports.IngredientStorage
	cleaner     ports.MediaCleanupPublisher
	logger      *slog.Logger
}

// NewRecipeUseCase создает новый экземпляр RecipeUseCase
func NewRecipeUseCase(
	users ports.UserStorage,
	subscriptions ports.SubscriptionStorage,
	recipes ports.RecipeStorage,
	interactions ports.InteractionStorage,
	ingredients ports.IngredientStorage,
	files ports.FileStorage,
	cleaner ports.MediaCleanupPublisher,
	logger *slog.Logger,
) RecipeUseCase {
	return &recipeUseCase{
		presenter: &presenter{
			users:         users,
			subscriptions: subscriptions,
			recipes:       recipes,
			interactions:  interactions,
			files:         files,
		},
		ingredients: ingredients,
		cleaner:     cleaner,
		logger:      logger,
	}
}

// List возвращает страницу рецептов.
// Анонимный пользователь с фильтром по избранному или корзине получает пустую страницу.
func (uc *recipeUseCase) List(ctx context.Context, filter domain.RecipeFilter, page domain.Page) (*domain.Paginated[domain.RecipeView], error) {
	if filter.ViewerID == 0 && (filter.FavoritedOnly || filter.InCartOnly) {
		return &domain.Paginated[domain.RecipeView]{Page: page, Results: []domain.RecipeView{}}, nil
	}

	recipes, total, err := uc.recipes.ListRecipes(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении рецептов: %w", err)
	}

	views, err := uc.recipeViews(ctx, filter.ViewerID, recipes)
	if err != nil {
		return nil, err
	}
	return &domain.Paginated[domain.RecipeView]{Count: total, Page: page, Results: views}, nil
}

func (uc *recipeUseCase) Get(ctx context.Context, viewerID, id int64) (*domain.RecipeView, error) {
	recipe, err := uc.recipes.GetRecipe(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении рецепта: %w", err)
	}
	return uc.recipeView(ctx, viewerID, *recipe)
}

// Create проверяет данные, загружает изображение и сохраняет рецепт со строками
func (uc *recipeUseCase) Create(ctx context.Context, authorID int64, in CreateRecipeInput) (*domain.RecipeView, error) {
	ve := validate(in)

	lines, err := uc.checkIngredients(ctx, in.Ingredients, ve)
	if err != nil {
		return nil, err
	}
	checkCookingTime(in.CookingTime, ve)
	img := decodeRecipeImage(in.Image, ve)

	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	key, err := uc.uploadImage(ctx, img)
	if err != nil {
		return nil, err
	}

	recipe := &domain.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(in.Name),
		Image:       key,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Ingredients: lines,
	}
	if err := uc.recipes.CreateRecipeWithIngredients(ctx, recipe); err != nil {
		scheduleCleanup(ctx, uc.cleaner, uc.logger, key, "recipe_create_failed")
		return nil, fmt.Errorf("usecase: ошибка при создании рецепта: %w", err)
	}

	uc.logger.Info("recipe created", "recipe_id", recipe.ID, "author_id", authorID)
	return uc.Get(ctx, authorID, recipe.ID)
}

// Update изменяет рецепт автора. Набор ингредиентов заменяется целиком.
func (uc *recipeUseCase) Update(ctx context.Context, userID, id int64, in UpdateRecipeInput) (*domain.RecipeView, error) {
	recipe, err := uc.authorRecipe(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	ve := validate(in)
	var lines []domain.RecipeIngredient
	if in.Ingredients == nil {
		ve.Add("ingredients", "Обязательное поле.")
	} else if lines, err = uc.checkIngredients(ctx, in.Ingredients, ve); err != nil {
		return nil, err
	}

	if in.CookingTime != nil {
		checkCookingTime(*in.CookingTime, ve)
	}
	// клиент может вернуть текущий URL изображения без изменений
	var img *media.Image
	if in.Image != nil && *in.Image != uc.fileURL(recipe.Image) {
		img = decodeRecipeImage(*in.Image, ve)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	if in.Name != nil {
		recipe.Name = strings.TrimSpace(*in.Name)
	}
	if in.Text != nil {
		recipe.Text = *in.Text
	}
	if in.CookingTime != nil {
		recipe.CookingTime = *in.CookingTime
	}
	recipe.Ingredients = lines

	oldImage := recipe.Image
	if img != nil {
		if recipe.Image, err = uc.uploadImage(ctx, img); err != nil {
			return nil, err
		}
	}

	if err := uc.recipes.ReplaceRecipeIngredients(ctx, recipe); err != nil {
		if recipe.Image != oldImage {
			scheduleCleanup(ctx, uc.cleaner, uc.logger, recipe.Image, "recipe_update_failed")
		}
		return nil, fmt.Errorf("usecase: ошибка при обновлении рецепта: %w", err)
	}
	if recipe.Image != oldImage {
		scheduleCleanup(ctx, uc.cleaner, uc.logger, oldImage, "recipe_image_replaced")
	}

	uc.logger.Info("recipe updated", "recipe_id", recipe.ID, "author_id", userID)
	return uc.Get(ctx, userID, recipe.ID)
}

func (uc *recipeUseCase) Delete(ctx context.Context, userID, id int64) error {
	recipe, err := uc.authorRecipe(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := uc.recipes.DeleteRecipe(ctx, id); err != nil {
		return fmt.Errorf("usecase: ошибка при удалении рецепта: %w", err)
	}
	scheduleCleanup(ctx, uc.cleaner, uc.logger, recipe.Image, "recipe_deleted")

	uc.logger.Info("recipe deleted", "recipe_id", id, "author_id", userID)
	return nil
}

func (uc *recipeUseCase) ShortLink(ctx context.Context, host string, id int64) (*domain.ShortLinkView, error) {
	if _, err := uc.recipes.GetRecipe(ctx, id); err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении ссылки: %w", err)
	}
	return &domain.ShortLinkView{ShortLink: host + "/recipes/" + strconv.FormatInt(id, 10)}, nil
}

func (uc *recipeUseCase) AddRelation(ctx context.Context, rel domain.Relation, userID, recipeID int64) (*domain.RecipeMinifiedView, error) {
	recipe, err := uc.recipes.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при добавлении в %s: %w", rel, err)
	}

	if err := uc.interactions.AddRelation(ctx, rel, userID, recipeID); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, conflict(relationMessages[rel].exists, err)
		}
		return nil, fmt.Errorf("usecase: ошибка при добавлении в %s: %w", rel, err)
	}

	view := uc.minified(*recipe)
	return &view, nil
}

func (uc *recipeUseCase) RemoveRelation(ctx context.Context, rel domain.Relation, userID, recipeID int64) error {
	if _, err := uc.recipes.GetRecipe(ctx, recipeID); err != nil {
		return fmt.Errorf("usecase: ошибка при удалении из %s: %w", rel, err)
	}

	if err := uc.interactions.RemoveRelation(ctx, rel, userID, recipeID); err != nil {
		if errors.Is(err, domain.ErrNotInRelation) {
			return conflict(relationMessages[rel].missing, err)
		}
		return fmt.Errorf("usecase: ошибка при удалении из %s: %w", rel, err)
	}
	return nil
}

func (uc *recipeUseCase) GetRelation(ctx context.Context, rel domain.Relation, userID, recipeID int64) (*domain.RecipeMinifiedView, error) {
	recipe, err := uc.recipes.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении рецепта: %w", err)
	}

	ok, err := uc.interactions.HasRelation(ctx, rel, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при проверке %s: %w", rel, err)
	}
	if !ok {
		return nil, fmt.Errorf("рецепт %d не найден в %s: %w", recipeID, rel, domain.ErrNotFound)
	}

	view := uc.minified(*recipe)
	return &view, nil
}

func (uc *recipeUseCase) ListRelated(ctx context.Context, rel domain.Relation, userID int64, page domain.Page) (*domain.Paginated[domain.RecipeMinifiedView], error) {
	recipes, total, err := uc.interactions.ListRelatedRecipes(ctx, rel, userID, page)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении %s: %w", rel, err)
	}
	return &domain.Paginated[domain.RecipeMinifiedView]{Count: total, Page: page, Results: uc.minifiedList(recipes)}, nil
}

func (uc *recipeUseCase) DownloadShoppingList(ctx context.Context, userID int64) (string, error) {
	items, err := uc.interactions.ShoppingList(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("usecase: ошибка при формировании списка покупок: %w", err)
	}

	uc.logger.Info("shopping list downloaded", "user_id", userID, "items", len(items))
	return domain.RenderShoppingList(items), nil
}

// authorRecipe загружает рецепт и проверяет, что userID — его автор
func (uc *recipeUseCase) authorRecipe(ctx context.Context, userID, id int64) (*domain.Recipe, error) {
	recipe, err := uc.recipes.GetRecipe(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении рецепта: %w", err)
	}
	if recipe.AuthorID != userID {
		uc.logger.Warn("recipe modification denied", "recipe_id", id, "user_id", userID)
		return nil, fmt.Errorf("рецепт %d: %w", id, domain.ErrForbidden)
	}
	return recipe, nil
}

// checkIngredients проверяет строки рецепта и складывает ошибки в ve.
// Ошибка возвращается только при сбое хранилища.
func (uc *recipeUseCase) checkIngredients(ctx context.Context, in []IngredientAmountInput, ve *domain.ValidationError) ([]domain.RecipeIngredient, error) {
	if len(in) == 0 {
		ve.Add("ingredients", "Список ингредиентов не может быть пустым!")
		return nil, nil
	}

	ids := make([]int64, 0, len(in))
	seen := make(map[int64]struct{}, len(in))
	lines := make([]domain.RecipeIngredient, 0, len(in))
	duplicate := false
	for _, item := range in {
		if item.Amount < domain.MinIngredientAmount {
			ve.Add("ingredients", fmt.Sprintf("Количество ингредиента должно быть больше %d!", domain.MinIngredientAmount-1))
		}
		if _, ok := seen[item.ID]; ok {
			duplicate = true
			continue
		}
		seen[item.ID] = struct{}{}
		ids = append(ids, item.ID)
		lines = append(lines, domain.RecipeIngredient{IngredientID: item.ID, Amount: item.Amount})
	}
	if duplicate {
		ve.Add("ingredients", "Ингредиенты должны быть уникальными!")
	}

	missing, err := uc.ingredients.MissingIngredientIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при проверке ингредиентов: %w", err)
	}
	for _, id := range missing {
		ve.Add("ingredients", fmt.Sprintf("Ингредиента с id %d не существует.", id))
	}
	return lines, nil
}

func checkCookingTime(minutes int, ve *domain.ValidationError) {
	if minutes < domain.MinCookingTime {
		ve.Add("cooking_time", fmt.Sprintf("Время приготовления должно быть не меньше %d минуты!", domain.MinCookingTime))
	}
}

func decodeRecipeImage(dataURI string, ve *domain.ValidationError) *media.Image {
	if strings.TrimSpace(dataURI) == "" {
		ve.Add("image", "Изображение является обязательным полем.")
		return nil
	}
	img, err := media.DecodeDataURI(dataURI)
	if err != nil {
		ve.Add("image", "Загрузите правильное изображение. Файл, который вы загрузили, поврежден или не является изображением.")
		return nil
	}
	return img
}

func (uc *recipeUseCase) uploadImage(ctx context.Context, img *media.Image) (string, error) {
	key := img.Key(media.RecipeImagesPrefix)
	if _, err := uc.files.UploadFile(ctx, key, bytes.NewReader(img.Data), img.ContentType); err != nil {
		return "", fmt.Errorf("usecase: ошибка загрузки изображения: %w", err)
	}
	return key, nil
}
