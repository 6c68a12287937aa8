package di

import (
	"context"
	"time"

	"github.com/GoArmGo/Foodgram/internal/adapter/storage/minio"
	"github.com/GoArmGo/Foodgram/internal/app"
	"github.com/GoArmGo/Foodgram/internal/auth"
	"github.com/GoArmGo/Foodgram/internal/config"
	"github.com/GoArmGo/Foodgram/internal/core/ports"
	"github.com/GoArmGo/Foodgram/internal/database/client"
	"github.com/GoArmGo/Foodgram/internal/database/postgres"
	"github.com/GoArmGo/Foodgram/internal/database/storage"
	"github.com/GoArmGo/Foodgram/internal/logger"
	"github.com/GoArmGo/Foodgram/internal/media"
	"github.com/GoArmGo/Foodgram/internal/rabbitmq"
	"github.com/GoArmGo/Foodgram/internal/usecase"
	"golang.org/x/crypto/bcrypt"
)

// maxParallelUploads — сколько запросов с изображениями обрабатывается одновременно
const maxParallelUploads = 5

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
func BuildApp() (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	var closers []func() error
	fail := func(err error) (*app.App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	// 2. PostgreSQL: общее подключение, миграции, gorm поверх того же пула
	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, dbClient.Close)

	gormDB, err := postgres.OpenGorm(dbClient.DB.DB, slogger)
	if err != nil {
		return fail(err)
	}

	// 3. Инициализация хранилищ
	userStorage := storage.NewUserStorage(dbClient.DB, slogger)
	subscriptionStorage := storage.NewSubscriptionStorage(dbClient.DB, slogger)
	recipeStorage := storage.NewRecipeStorage(dbClient.DB, slogger)
	interactionStorage := storage.NewInteractionStorage(dbClient.DB, slogger)
	ingredientStorage := postgres.NewIngredientStorage(gormDB, slogger)

	// 4. S3 / MinIO адаптер
	initCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fileStorage, err := minio.NewMinioClient(initCtx, cfg, slogger)
	if err != nil {
		return fail(err)
	}

	// 5. Удаление файлов: через RabbitMQ, если он настроен, иначе сразу
	var (
		cleanupPublisher ports.MediaCleanupPublisher
		cleanupConsumer  ports.MediaCleanupConsumer
	)
	if cfg.RabbitMQ.RabbitMQURL != "" {
		rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, rabbitMQClient.Close)
		cleanupPublisher = rabbitMQClient
		cleanupConsumer = rabbitMQClient
	} else {
		slogger.Warn("RABBITMQ_URL is not set, media cleanup runs inline")
		cleanupPublisher = media.NewInlineCleaner(fileStorage, slogger)
	}

	// 6. Аутентификация
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fail(err)
	}

	// 7. Инициализация бизнес-логики (usecases)
	userUseCase := usecase.NewUserUseCase(userStorage, subscriptionStorage, recipeStorage, interactionStorage, fileStorage, cleanupPublisher, hasher, slogger)
	recipeUseCase := usecase.NewRecipeUseCase(userStorage, subscriptionStorage, recipeStorage, interactionStorage, ingredientStorage, fileStorage, cleanupPublisher, slogger)
	ingredientUseCase := usecase.NewIngredientUseCase(ingredientStorage, slogger)
	authUseCase := usecase.NewAuthUseCase(userStorage, tokens, hasher, slogger)

	// 8. Сборка итогового приложения
	application := app.NewApp(cfg, slogger, app.Deps{
		DB:                dbClient,
		UserUseCase:       userUseCase,
		RecipeUseCase:     recipeUseCase,
		IngredientUseCase: ingredientUseCase,
		AuthUseCase:       authUseCase,
		Files:             fileStorage,
		CleanupConsumer:   cleanupConsumer,
		UploadLimiter:     make(chan struct{}, maxParallelUploads),
		Closers:           closers,
	})

	slogger.Info("all dependencies initialized")
	return application, nil
}
