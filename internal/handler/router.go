package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/GoArmGo/Foodgram/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Pinger проверяет доступность зависимостей для /healthz
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig — настройки HTTP-слоя
type RouterConfig struct {
	RequestTimeout     time.Duration
	AllowedHosts       []string
	CORSAllowedOrigins []string
	// Запросов в минуту с одного IP, 0 отключает ограничение
	RateLimitRequests int
	Pagination        Pagination
	// Канал-семафор для запросов с загрузкой изображений, nil — без ограничения
	UploadLimiter chan struct{}
}

// Services — use case'ы, которые обслуживает роутер
type Services struct {
	Users       usecase.UserUseCase
	Recipes     usecase.RecipeUseCase
	Ingredients usecase.IngredientUseCase
	Auth        usecase.AuthUseCase
	Health      Pinger
}

// NewRouter собирает chi-роутер API.
func NewRouter(cfg RouterConfig, svc Services, logger *slog.Logger) http.Handler {
	users := NewUserHandler(svc.Users, cfg.Pagination, logger)
	recipes := NewRecipeHandler(svc.Recipes, cfg.Pagination, logger)
	ingredients := NewIngredientHandler(svc.Ingredients, logger)
	auth := NewAuthHandler(svc.Auth, logger)
	metrics := NewMetrics()

	requireAuth := RequireAuth(logger)
	limitUploads := LimitConcurrent(cfg.UploadLimiter, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(AllowedHosts(cfg.AllowedHosts, logger))
	r.Use(metrics.Middleware)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if cfg.RateLimitRequests > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitRequests, time.Minute))
	}

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/healthz", healthz(svc.Health, logger))

	r.Route("/api", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		r.Use(Authenticate(svc.Auth, logger))

		r.Route("/auth/token", func(r chi.Router) {
			r.Post("/login", auth.Login)
			r.With(requireAuth).Post("/logout", auth.Logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", users.List)
			r.Post("/", users.Register)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", users.Me)
				r.Post("/set_password", users.SetPassword)
				r.With(limitUploads).Put("/me/avatar", users.SetAvatar)
				r.With(limitUploads).Patch("/me/avatar", users.SetAvatar)
				r.Delete("/me/avatar", users.DeleteAvatar)
				r.Get("/subscriptions", users.Subscriptions)
				r.Post("/{id}/subscribe", users.Subscribe)
				r.Delete("/{id}/subscribe", users.Unsubscribe)
			})

			r.Get("/{id}", users.Get)
		})

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", ingredients.Search)
			r.Get("/{id}", ingredients.Get)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipes.List)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.With(limitUploads).Post("/", recipes.Create)
				r.Get("/download_shopping_cart", recipes.DownloadShoppingList)
				r.Get("/favorite", recipes.ListRelated(domain.RelationFavorite))
				r.Get("/shopping_cart", recipes.ListRelated(domain.RelationShoppingCart))

				r.With(limitUploads).Patch("/{id}", recipes.Update)
				r.Delete("/{id}", recipes.Delete)

				for path, rel := range map[string]domain.Relation{
					"/{id}/favorite":      domain.RelationFavorite,
					"/{id}/shopping_cart": domain.RelationShoppingCart,
				} {
					r.Post(path, recipes.AddRelation(rel))
					r.Delete(path, recipes.RemoveRelation(rel))
					r.Get(path, recipes.GetRelation(rel))
				}
			})

			r.Get("/{id}", recipes.Get)
			r.Get("/{id}/get-link", recipes.ShortLink)
		})
	})

	return r
}

func healthz(p Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				logger.Error("health check failed", "error", err)
				respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}, logger)
				return
			}
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}
