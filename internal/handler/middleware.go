package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/GoArmGo/Foodgram/internal/usecase"
)

// RequestLogger — middleware для логирования HTTP-запросов.
func RequestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Оборачиваем ResponseWriter, чтобы знать статус
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration_ms", duration.Milliseconds(),
			)
		})
	}
}

// responseWriter нужен, чтобы перехватывать код ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

type userCtxKey struct{}

// UserFromContext возвращает текущего пользователя или nil для анонимного запроса.
func UserFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userCtxKey{}).(*domain.User)
	return u
}

// 0 для анонимного
func viewerID(r *http.Request) int64 {
	if u := UserFromContext(r.Context()); u != nil {
		return u.ID
	}
	return 0
}

// Authenticate определяет пользователя по заголовку Authorization.
// Без заголовка запрос проходит как анонимный, неверный токен — 401.
func Authenticate(auth usecase.AuthUseCase, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := tokenFromHeader(header)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "Недопустимый заголовок авторизации.", logger)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					respondWithError(w, http.StatusUnauthorized, "Недопустимый токен.", logger)
					return
				}
				respondWithDomainError(w, err, logger)
				return
			}

			ctx := context.WithValue(r.Context(), userCtxKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// tokenFromHeader принимает схемы "Token <jwt>" и "Bearer <jwt>"
func tokenFromHeader(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	switch strings.ToLower(scheme) {
	case "token", "bearer":
		return token, true
	default:
		return "", false
	}
}

// RequireAuth пропускает только аутентифицированные запросы.
func RequireAuth(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) == nil {
				respondWithDomainError(w, domain.ErrUnauthorized, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AllowedHosts отклоняет запросы с неизвестным заголовком Host.
// Пустой список или "*" разрешают любой хост, ".example.com" разрешает домен и поддомены.
func AllowedHosts(hosts []string, logger *slog.Logger) func(next http.Handler) http.Handler {
	allowed := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "*" {
			allowed = nil
			break
		}
		if h != "" {
			allowed = append(allowed, h)
		}
	}

	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hostAllowed(r.Host, allowed) {
				logger.Warn("rejected request with disallowed host", "host", r.Host)
				respondWithError(w, http.StatusBadRequest, "Bad Request (Invalid Host)", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hostAllowed(host string, allowed []string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	for _, pattern := range allowed {
		if strings.HasPrefix(pattern, ".") {
			if host == pattern[1:] || strings.HasSuffix(host, pattern) {
				return true
			}
			continue
		}
		if host == pattern {
			return true
		}
	}
	return false
}

// LimitConcurrent ограничивает число одновременно обрабатываемых запросов.
// Используется для загрузки изображений, которые декодируются в памяти.
func LimitConcurrent(limiter chan struct{}, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case limiter <- struct{}{}:
				defer func() { <-limiter }()
				next.ServeHTTP(w, r)
			case <-r.Context().Done():
				logger.Warn("request cancelled while waiting for upload slot", "path", r.URL.Path)
				respondWithError(w, http.StatusServiceUnavailable, "Сервер перегружен, повторите запрос позже.", logger)
			}
		})
	}
}
