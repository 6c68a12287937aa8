package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/Foodgram/internal/usecase"
)

// AuthHandler выдает токены.
type AuthHandler struct {
	authUseCase usecase.AuthUseCase
	logger      *slog.Logger
}

func NewAuthHandler(uc usecase.AuthUseCase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authUseCase: uc, logger: logger}
}

type tokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// Login — получение токена по email и паролю.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in usecase.LoginInput
	if !decodeJSON(w, r, &in, h.logger) {
		return
	}

	token, err := h.authUseCase.Login(r.Context(), in)
	if err != nil {
		h.logger.Warn("login failed", "error", err)
		respondWithDomainError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, tokenResponse{AuthToken: token}, h.logger)
}

// Logout ничего не инвалидирует: токены на сервере не хранятся.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("user logged out", "user_id", viewerID(r))
	w.WriteHeader(http.StatusNoContent)
}
