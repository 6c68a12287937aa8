package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// maxBodyBytes ограничивает тело запроса: изображения приходят в base64 внутри JSON
const maxBodyBytes = 20 << 20

// respondWithJSON — отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError — отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, map[string]string{"detail": message}, logger)
}

// respondWithDomainError переводит ошибку use case'а в HTTP-ответ
func respondWithDomainError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var (
		ve *domain.ValidationError
		ce *domain.ConflictError
	)

	switch {
	case errors.As(err, &ve):
		respondWithJSON(w, http.StatusBadRequest, ve.Fields, logger)
	case errors.As(err, &ce):
		respondWithJSON(w, http.StatusBadRequest, map[string]string{"errors": ce.Message}, logger)
	case errors.Is(err, domain.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Учетные данные не были предоставлены.", logger)
	case errors.Is(err, domain.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "У вас недостаточно прав для выполнения данного действия.", logger)
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Страница не найдена.", logger)
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrNotInRelation),
		errors.Is(err, domain.ErrSelfSubscription):
		respondWithJSON(w, http.StatusBadRequest, map[string]string{"errors": err.Error()}, logger)
	default:
		logger.Error("unhandled error", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера.", logger)
	}
}

// decodeJSON читает тело запроса в dst. При ошибке сам отвечает клиенту и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondWithError(w, http.StatusRequestEntityTooLarge, "Слишком большой запрос.", logger)
		case errors.Is(err, io.EOF):
			respondWithError(w, http.StatusBadRequest, "Пустое тело запроса.", logger)
		default:
			logger.Warn("invalid JSON body", "path", r.URL.Path, "error", err)
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Ошибка разбора JSON: %v", err), logger)
		}
		return false
	}
	return true
}

// pathID читает числовой параметр маршрута. Нечисловой ID дает 404, как и несуществующий.
func pathID(w http.ResponseWriter, r *http.Request, name string, logger *slog.Logger) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusNotFound, "Страница не найдена.", logger)
		return 0, false
	}
	return id, true
}
