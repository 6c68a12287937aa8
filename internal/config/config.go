package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL       string        `env:"DATABASE_URL,required,notEmpty"`
	ServerPort        string        `env:"SERVER_PORT" envDefault:"8080"`
	MigrationsEnabled bool          `env:"MIGRATIONS_ENABLED" envDefault:"true"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Пустой список разрешает любой Host
	AllowedHosts       []string `env:"ALLOWED_HOSTS" envSeparator:","`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	RateLimitRequests  int      `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`

	PageSize    int `env:"PAGE_SIZE" envDefault:"6"`
	MaxPageSize int `env:"MAX_PAGE_SIZE" envDefault:"100"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Настройки для MinIO
	MinioEndpoint        string `env:"MINIO_ENDPOINT,required"`
	MinioAccessKeyID     string `env:"MINIO_ACCESS_KEY_ID,required"`
	MinioSecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY,required"`
	MinioUseSSL          bool   `env:"MINIO_USE_SSL"`
	MinioBucketName      string `env:"MINIO_BUCKET_NAME" envDefault:"media"`
	MinioRegion          string `env:"MINIO_REGION" envDefault:"us-east-1"`
	// Базовый адрес, по которому клиенты скачивают файлы
	MinioPublicURL string `env:"MINIO_PUBLIC_URL"`

	// Без RABBITMQ_URL файлы удаляются синхронно в процессе сервера
	RabbitMQ struct {
		RabbitMQURL       string `env:"RABBITMQ_URL"`
		RabbitMQQueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"media_cleanup_queue"`
	}

	IngredientsFile string `env:"INGREDIENTS_FILE" envDefault:"data/ingredients.json"`
}

// LoadConfig загружает конфигурацию из переменных окружения.
// В режиме разработки пытается загрузить .env файл.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	return Parse()
}

// Parse читает конфигурацию только из окружения процесса.
func Parse() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации из окружения: %w", err)
	}

	if cfg.MinioPublicURL == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		cfg.MinioPublicURL = fmt.Sprintf("%s://%s", scheme, cfg.MinioEndpoint)
	}

	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE должен быть положительным, получено %d", cfg.PageSize)
	}
	if cfg.MaxPageSize < cfg.PageSize {
		cfg.MaxPageSize = cfg.PageSize
	}

	return &cfg, nil
}
