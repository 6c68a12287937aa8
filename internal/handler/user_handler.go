package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/GoArmGo/Foodgram/internal/usecase"
)

// UserHandler — обработчик HTTP-запросов пользователей и подписок.
type UserHandler struct {
	userUseCase usecase.UserUseCase
	pagination  Pagination
	logger      *slog.Logger
}

// NewUserHandler создаёт новый экземпляр UserHandler.
func NewUserHandler(uc usecase.UserUseCase, pagination Pagination, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUseCase: uc,
		pagination:  pagination,
		logger:      logger,
	}
}

// Register — регистрация нового пользователя.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in usecase.RegisterInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}

	h.logger.Info("processing request", "endpoint", "Register", "username", in.Username)

	user, err := h.userUseCase.Register(r.Context(), in)
	if err != nil {
		h.logger.Warn("failed to register user", "username", in.Username, "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	respondWithJSON(w, http.StatusCreated, user, h.logger)
}

// List отдает пользователей постранично.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page := h.pagination.page(r)

	users, err := h.userUseCase.ListUsers(r.Context(), viewerID(r), page)
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, newPaginatedResponse(r, users), h.logger)
}

// Get отдает профиль по ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	user, err := h.userUseCase.GetProfile(r.Context(), viewerID(r), id)
	if err != nil {
		respondWithDomainError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, user, h.logger)
}

// Me отдает профиль текущего пользователя.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	me := viewerID(r)

	user, err := h.userUseCase.GetProfile(r.Context(), me, me)
	if err != nil {
		respondWithDomainError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, user, h.logger)
}

// SetPassword — смена пароля текущего пользователя.
func (h *UserHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var in usecase.SetPasswordInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}

	userID := viewerID(r)
	h.logger.Info("processing request", "endpoint", "SetPassword", "user_id", userID)

	if err := h.userUseCase.SetPassword(r.Context(), userID, in); err != nil {
		h.logger.Warn("failed to set password", "user_id", userID, "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type avatarRequest struct {
	Avatar string `json:"avatar"`
}

// SetAvatar — загрузка аватара в base64.
func (h *UserHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	var in avatarRequest
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}

	userID := viewerID(r)
	h.logger.Info("processing request", "endpoint", "SetAvatar", "user_id", userID)

	avatar, err := h.userUseCase.SetAvatar(r.Context(), userID, in.Avatar)
	if err != nil {
		h.logger.Warn("failed to set avatar", "user_id", userID, "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, avatar, h.logger)
}

// DeleteAvatar удаляет аватар и сам файл.
func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	userID := viewerID(r)

	if err := h.userUseCase.DeleteAvatar(r.Context(), userID); err != nil {
		h.logger.Error("failed to delete avatar", "user_id", userID, "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Subscribe — подписка на автора.
func (h *UserHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	authorID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	userID := viewerID(r)
	h.logger.Info("processing request", "endpoint", "Subscribe", "user_id", userID, "author_id", authorID)

	author, err := h.userUseCase.Subscribe(r.Context(), userID, authorID, recipesLimit(r))
	if err != nil {
		h.logger.Warn("failed to subscribe", "user_id", userID, "author_id", authorID, "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusCreated, author, h.logger)
}

// Unsubscribe — отписка от автора.
func (h *UserHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	authorID, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	userID := viewerID(r)
	h.logger.Info("processing request", "endpoint", "Unsubscribe", "user_id", userID, "author_id", authorID)

	if err := h.userUseCase.Unsubscribe(r.Context(), userID, authorID); err != nil {
		h.logger.Warn("failed to unsubscribe", "user_id", userID, "author_id", authorID, "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Subscriptions отдает авторов, на которых подписан пользователь.
func (h *UserHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	page := h.pagination.page(r)

	authors, err := h.userUseCase.ListSubscriptions(r.Context(), viewerID(r), page, recipesLimit(r))
	if err != nil {
		h.logger.Error("failed to list subscriptions", "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, newPaginatedResponse(r, authors), h.logger)
}

// recipesLimit читает ?recipes_limit=. Учитывается, только если значение состоит из цифр,
// иначе превью не ограничено.
func recipesLimit(r *http.Request) int {
	raw := r.URL.Query().Get("recipes_limit")
	if raw == "" {
		return -1
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return -1
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
