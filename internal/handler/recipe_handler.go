package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/GoArmGo/Foodgram/internal/usecase"
)

// shoppingListFilename — имя файла при скачивании списка покупок
const shoppingListFilename = "shopping_list.txt"

// RecipeHandler — обработчик HTTP-запросов рецептов, избранного и корзины.
type RecipeHandler struct {
	recipeUseCase usecase.RecipeUseCase
	pagination    Pagination
	logger        *slog.Logger
}

// NewRecipeHandler создаёт новый экземпляр RecipeHandler.
func NewRecipeHandler(uc usecase.RecipeUseCase, pagination Pagination, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipeUseCase: uc,
		pagination:    pagination,
		logger:        logger,
	}
}

// List — список рецептов с фильтрами author, is_favorited, is_in_shopping_cart.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	page := h.pagination.page(r)

	recipes, err := h.recipeUseCase.List(r.Context(), filter, page)
	if err != nil {
		h.logger.Error("failed to list recipes", "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, newPaginatedResponse(r, recipes), h.logger)
}

func (h *RecipeHandler) parseFilter(w http.ResponseWriter, r *http.Request) (domain.RecipeFilter, bool) {
	q := r.URL.Query()
	filter := domain.RecipeFilter{ViewerID: viewerID(r)}

	if raw := q.Get("author"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondWithDomainError(w, domain.NewValidationError("author", "Выберите корректный вариант."), h.logger)
			return filter, false
		}
		filter.AuthorID = &id
	}
	filter.FavoritedOnly = queryFlag(q.Get("is_favorited"))
	filter.InCartOnly = queryFlag(q.Get("is_in_shopping_cart"))

	return filter, true
}

// queryFlag: "1" и "true" включают фильтр, всё остальное его не применяет
func queryFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true":
		return true
	default:
		return false
	}
}

// Get — рецепт по ID.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	recipe, err := h.recipeUseCase.Get(r.Context(), viewerID(r), id)
	if err != nil {
		respondWithDomainError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, recipe, h.logger)
}

// Create — создание рецепта.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in usecase.CreateRecipeInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}

	userID := viewerID(r)
	h.logger.Info("processing request", "endpoint", "CreateRecipe", "user_id", userID, "name", in.Name)

	recipe, err := h.recipeUseCase.Create(r.Context(), userID, in)
	if err != nil {
		h.logger.Warn("failed to create recipe", "user_id", userID, "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("recipe created", "recipe_id", recipe.ID)
	respondWithJSON(w, http.StatusCreated, recipe, h.logger)
}

// Update — частичное обновление рецепта автором.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var in usecase.UpdateRecipeInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}

	userID := viewerID(r)
	h.logger.Info("processing request", "endpoint", "UpdateRecipe", "user_id", userID, "recipe_id", id)

	recipe, err := h.recipeUseCase.Update(r.Context(), userID, id, in)
	if err != nil {
		h.logger.Warn("failed to update recipe", "recipe_id", id, "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, recipe, h.logger)
}

// Delete — удаление рецепта автором.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	userID := viewerID(r)
	h.logger.Info("processing request", "endpoint", "DeleteRecipe", "user_id", userID, "recipe_id", id)

	if err := h.recipeUseCase.Delete(r.Context(), userID, id); err != nil {
		h.logger.Warn("failed to delete recipe", "recipe_id", id, "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ShortLink — короткая ссылка на рецепт.
func (h *RecipeHandler) ShortLink(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	host := requestScheme(r) + "://" + r.Host
	link, err := h.recipeUseCase.ShortLink(r.Context(), host, id)
	if err != nil {
		respondWithDomainError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, link, h.logger)
}

// AddRelation возвращает обработчик POST /recipes/{id}/favorite/ или /shopping_cart/.
func (h *RecipeHandler) AddRelation(rel domain.Relation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id", h.logger)
		if !ok {
			return
		}

		userID := viewerID(r)
		h.logger.Info("processing request", "endpoint", "AddRelation", "relation", rel.String(), "user_id", userID, "recipe_id", id)

		recipe, err := h.recipeUseCase.AddRelation(r.Context(), rel, userID, id)
		if err != nil {
			h.logger.Warn("failed to add relation", "relation", rel.String(), "recipe_id", id, "error", err)
			respondWithDomainError(w, err, h.logger)
			return
		}

		respondWithJSON(w, http.StatusCreated, recipe, h.logger)
	}
}

// RemoveRelation возвращает обработчик DELETE /recipes/{id}/favorite/ или /shopping_cart/.
func (h *RecipeHandler) RemoveRelation(rel domain.Relation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id", h.logger)
		if !ok {
			return
		}

		userID := viewerID(r)
		h.logger.Info("processing request", "endpoint", "RemoveRelation", "relation", rel.String(), "user_id", userID, "recipe_id", id)

		if err := h.recipeUseCase.RemoveRelation(r.Context(), rel, userID, id); err != nil {
			h.logger.Warn("failed to remove relation", "relation", rel.String(), "recipe_id", id, "error", err)
			respondWithDomainError(w, err, h.logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// GetRelation возвращает обработчик GET /recipes/{id}/favorite/ или /shopping_cart/.
func (h *RecipeHandler) GetRelation(rel domain.Relation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id", h.logger)
		if !ok {
			return
		}

		recipe, err := h.recipeUseCase.GetRelation(r.Context(), rel, viewerID(r), id)
		if err != nil {
			respondWithDomainError(w, err, h.logger)
			return
		}

		respondWithJSON(w, http.StatusOK, recipe, h.logger)
	}
}

// ListRelated возвращает обработчик списка избранного или корзины.
func (h *RecipeHandler) ListRelated(rel domain.Relation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := h.pagination.page(r)

		recipes, err := h.recipeUseCase.ListRelated(r.Context(), rel, viewerID(r), page)
		if err != nil {
			h.logger.Error("failed to list related recipes", "relation", rel.String(), "error", err)
			respondWithDomainError(w, err, h.logger)
			return
		}

		respondWithJSON(w, http.StatusOK, newPaginatedResponse(r, recipes), h.logger)
	}
}

// DownloadShoppingList — список покупок текстовым файлом.
func (h *RecipeHandler) DownloadShoppingList(w http.ResponseWriter, r *http.Request) {
	userID := viewerID(r)

	text, err := h.recipeUseCase.DownloadShoppingList(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to build shopping list", "user_id", userID, "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+shoppingListFilename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(text)); err != nil {
		h.logger.Error("failed to write HTTP response", "error", err)
	}
}
