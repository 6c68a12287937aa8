package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/Foodgram/internal/config"
	"github.com/GoArmGo/Foodgram/internal/core/ports"
	"github.com/GoArmGo/Foodgram/internal/handler"
	"github.com/GoArmGo/Foodgram/internal/usecase"
)

// Режимы запуска
const (
	ModeServer = "server"
	ModeWorker = "worker"
	ModeImport = "import"
)

// Deps — собранные зависимости приложения
type Deps struct {
	DB                handler.Pinger
	UserUseCase       usecase.UserUseCase
	RecipeUseCase     usecase.RecipeUseCase
	IngredientUseCase usecase.IngredientUseCase
	AuthUseCase       usecase.AuthUseCase
	Files             ports.FileStorage
	// Без RabbitMQ consumer равен nil, режим worker недоступен
	CleanupConsumer ports.MediaCleanupConsumer
	UploadLimiter   chan struct{}
	// Ресурсы, закрываемые при завершении
	Closers []func() error
}

type App struct {
	Config *config.Config
	logger *slog.Logger
	deps   Deps
}

func NewApp(cfg *config.Config, logger *slog.Logger, deps Deps) *App {
	return &App{
		Config: cfg,
		logger: logger,
		deps:   deps,
	}
}

// LoggerIns возвращает основной логгер приложения
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

// Run запускает приложение в выбранном режиме и блокируется до его завершения
func (a *App) Run(ctx context.Context, mode *string) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting app", "mode", *mode)

	var err error

	switch *mode {
	case ModeServer:
		err = runServer(ctx, a.Config, a.router(), a.logger)

	case ModeWorker:
		err = runWorker(ctx, a.deps.CleanupConsumer, a.deps.Files, a.logger)

	case ModeImport:
		err = runImport(ctx, a.Config.IngredientsFile, a.deps.IngredientUseCase, a.logger)

	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server', 'worker' или 'import')", *mode)
	}

	// аккуратно закрываем ресурсы
	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown failed", "error", closeErr)
	}

	return err
}

// router собирает HTTP-обработчик из конфигурации и use case'ов
func (a *App) router() http.Handler {
	return handler.NewRouter(handler.RouterConfig{
		RequestTimeout:     a.Config.RequestTimeout,
		AllowedHosts:       a.Config.AllowedHosts,
		CORSAllowedOrigins: a.Config.CORSAllowedOrigins,
		RateLimitRequests:  a.Config.RateLimitRequests,
		Pagination: handler.Pagination{
			PageSize:    a.Config.PageSize,
			MaxPageSize: a.Config.MaxPageSize,
		},
		UploadLimiter: a.deps.UploadLimiter,
	}, handler.Services{
		Users:       a.deps.UserUseCase,
		Recipes:     a.deps.RecipeUseCase,
		Ingredients: a.deps.IngredientUseCase,
		Auth:        a.deps.AuthUseCase,
		Health:      a.deps.DB,
	}, a.logger)
}

// Shutdown закрывает все ресурсы приложения в обратном порядке
func (a *App) Shutdown() error {
	var errs []error
	for i := len(a.deps.Closers) - 1; i >= 0; i-- {
		if err := a.deps.Closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.deps.Closers = nil
	return errors.Join(errs...)
}
