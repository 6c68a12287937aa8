package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/GoArmGo/Foodgram/internal/usecase"
)

// IngredientHandler — справочник ингредиентов, только чтение.
type IngredientHandler struct {
	ingredientUseCase usecase.IngredientUseCase
	logger            *slog.Logger
}

func NewIngredientHandler(uc usecase.IngredientUseCase, logger *slog.Logger) *IngredientHandler {
	return &IngredientHandler{ingredientUseCase: uc, logger: logger}
}

// Search — поиск по началу названия, ?name=.
func (h *IngredientHandler) Search(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	items, err := h.ingredientUseCase.Search(r.Context(), name)
	if err != nil {
		h.logger.Error("failed to search ingredients", "name", name, "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}
	if items == nil {
		items = []domain.Ingredient{}
	}

	respondWithJSON(w, http.StatusOK, items, h.logger)
}

// Get отдает ингредиент по ID.
func (h *IngredientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	item, err := h.ingredientUseCase.Get(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, item, h.logger)
}
