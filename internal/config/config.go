package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"alterstory-server/shared/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration.
type Config struct {
	Env        string `envconfig:"ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	// Database
	DBHost     string        `envconfig:"DB_HOST" required:"true"`
	DBPort     string        `envconfig:"DB_PORT" default:"5432"`
	DBUser     string        `envconfig:"DB_USER" required:"true"`
	DBName     string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode  string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns int32         `envconfig:"DB_MAX_CONNS" default:"20"`
	DBIdleTime time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	AutoMigrate bool `envconfig:"AUTO_MIGRATE" default:"true"`

	// Redis: кэш деревьев и лимитер
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	RedisPassword string        // секрет, необязательный
	TreeCacheTTL  time.Duration `envconfig:"TREE_CACHE_TTL" default:"5m"`

	// RabbitMQ
	RabbitMQURL         string `envconfig:"RABBITMQ_URL" required:"true"`
	StoryEventsExchange string `envconfig:"STORY_EVENTS_EXCHANGE" default:"story_events_exchange"`

	// Domain
	DefaultMaxContinuations int           `envconfig:"DEFAULT_MAX_CONTINUATIONS" default:"3"`
	MaintenanceInterval     time.Duration `envconfig:"MAINTENANCE_INTERVAL" default:"1h"`

	// Запросов на запись в минуту с одного клиента. 0 - без лимита.
	WriteRateLimit uint `envconfig:"WRITE_RATE_LIMIT" default:"30"`

	// MinIO (аватары)
	MinioEndpoint      string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	MinioAccessKey     string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	MinioBucket        string `envconfig:"MINIO_BUCKET" default:"avatars"`
	MinioUseSSL        bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	MinioPublicBaseURL string `envconfig:"MINIO_PUBLIC_BASE_URL"`
	MinioSecretKey     string
	AvatarMaxBytes     int64 `envconfig:"AVATAR_MAX_BYTES" default:"4194304"`

	JWTSecret string
	// Пусто - iss не проверяется
	JWTIssuer string `envconfig:"JWT_ISSUER"`

	// CORS Settings
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	origins := strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
	result := origins[:0]
	for _, o := range origins {
		if o != "" {
			result = append(result, o)
		}
	}
	return result
}

// GetDSN собирает строку подключения к PostgreSQL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig loads configuration from environment variables and secrets.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			} else {
				log.Printf("Loaded configuration from %s", envFilePath)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	// Загружаем НЕсекретные переменные из окружения
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}
	if cfg.DefaultMaxContinuations < 1 {
		return nil, fmt.Errorf("DEFAULT_MAX_CONTINUATIONS must be positive, got %d", cfg.DefaultMaxContinuations)
	}
	if cfg.AvatarMaxBytes <= 0 {
		return nil, fmt.Errorf("AVATAR_MAX_BYTES must be positive, got %d", cfg.AvatarMaxBytes)
	}

	// Загружаем ОБЯЗАТЕЛЬНЫЕ секреты из файлов
	var loadErr error
	if cfg.DBPassword, loadErr = utils.ReadSecret("db_password"); loadErr != nil {
		return nil, loadErr
	}
	if cfg.JWTSecret, loadErr = utils.ReadSecret("jwt_secret"); loadErr != nil {
		return nil, loadErr
	}
	if cfg.MinioSecretKey, loadErr = utils.ReadSecret("minio_secret_key"); loadErr != nil {
		return nil, loadErr
	}

	// Загружаем НЕОБЯЗАТЕЛЬНЫЕ секреты
	if redisPass, err := utils.ReadSecret("redis_password"); err == nil {
		cfg.RedisPassword = redisPass
	} else {
		log.Printf("Optional secret 'redis_password' not found: %v. Assuming no password.", err)
	}

	return &cfg, nil
}
