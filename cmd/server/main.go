package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"alterstory-server/internal/config"
	"alterstory-server/internal/handler"
	"alterstory-server/internal/messaging"
	"alterstory-server/internal/realtime"
	"alterstory-server/internal/service"
	"alterstory-server/internal/worker"
	pgdatabase "alterstory-server/pkg/database"
	"alterstory-server/pkg/migration"
	"alterstory-server/shared/authutils"
	"alterstory-server/shared/database"
	sharedLogger "alterstory-server/shared/logger"
	sharedMiddleware "alterstory-server/shared/middleware"
	"alterstory-server/shared/models"
	"alterstory-server/shared/storage"

	rateli "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

const (
	connectMaxRetries = 50
	connectRetryDelay = 3 * time.Second
)

func main() {
	// --- Configuration ---
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:       cfg.LogLevel,
		Encoding:    "json",
		ServiceName: "alterstory-server",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Logger initialized successfully", zap.String("logLevel", cfg.LogLevel))

	// --- External Connections ---
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	pgPool, err := setupPostgres(appCtx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	if cfg.AutoMigrate {
		if err := migration.NewMigrator(migration.Config{}, pgPool).Up(); err != nil {
			zap.L().Fatal("Failed to apply database migrations", zap.Error(err))
		}
		zap.L().Info("Database schema is up to date")
	}

	redisClient, err := setupRedis(cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	mqConn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
	if err != nil {
		zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mqConn.Close()

	avatarStore, err := storage.NewMinioStore(storage.MinioConfig{
		Endpoint:      cfg.MinioEndpoint,
		AccessKey:     cfg.MinioAccessKey,
		SecretKey:     cfg.MinioSecretKey,
		Bucket:        cfg.MinioBucket,
		UseSSL:        cfg.MinioUseSSL,
		PublicBaseURL: cfg.MinioPublicBaseURL,
	}, logger)
	if err != nil {
		zap.L().Fatal("Failed to initialize MinIO store", zap.Error(err))
	}

	var verifierOpts []authutils.VerifierOption
	if cfg.JWTIssuer != "" {
		verifierOpts = append(verifierOpts, authutils.WithIssuer(cfg.JWTIssuer))
	}
	verifier, err := authutils.NewJWTVerifier(cfg.JWTSecret, logger, verifierOpts...)
	if err != nil {
		zap.L().Fatal("Failed to initialize JWT verifier", zap.Error(err))
	}

	// --- Dependency Injection ---
	txManager := database.NewPgTxManager(pgPool, logger)
	storyRepo := database.NewPgStoryRepository(logger)
	contributionRepo := database.NewPgContributionRepository(logger)
	voteRepo := database.NewPgVoteRepository(logger)
	commentRepo := database.NewPgCommentRepository(logger)
	profileRepo := database.NewPgProfileRepository(logger)
	treeCache := database.NewRedisTreeCache(redisClient, cfg.TreeCacheTTL, logger)

	eventPublisher, err := messaging.NewRabbitMQStoryEventPublisher(mqConn, cfg.StoryEventsExchange, logger)
	if err != nil {
		zap.L().Fatal("Failed to create story event publisher", zap.Error(err))
	}
	defer eventPublisher.Close()

	storyService := service.NewStoryService(pgPool, txManager, storyRepo, contributionRepo, commentRepo, treeCache, eventPublisher,
		service.StoryServiceConfig{DefaultMaxContinuations: cfg.DefaultMaxContinuations}, logger)
	voteService := service.NewVoteService(pgPool, txManager, storyRepo, voteRepo, treeCache, eventPublisher, logger)
	commentService := service.NewCommentService(pgPool, txManager, storyRepo, commentRepo, treeCache, eventPublisher, logger)
	profileService := service.NewProfileService(pgPool, profileRepo, storyRepo, contributionRepo, avatarStore, cfg.AvatarMaxBytes, logger)
	maintenanceService := service.NewMaintenanceService(txManager, storyRepo, contributionRepo, logger)

	hub := realtime.NewHub(logger)
	eventConsumer, err := messaging.NewStoryEventConsumer(mqConn, cfg.StoryEventsExchange, hub, logger)
	if err != nil {
		zap.L().Fatal("Failed to create story event consumer", zap.Error(err))
	}
	maintenanceWorker := worker.NewMaintenanceWorker(maintenanceService, cfg.MaintenanceInterval, logger)

	storyHandler := handler.NewStoryHandler(storyService, voteService, commentService, profileService, maintenanceService,
		verifier.VerifyToken, logger)
	wsHandler := realtime.NewWebSocketHandler(hub, cfg.GetAllowedOrigins(), logger)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(sharedMiddleware.GinZapLogger(logger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		// Шаблон маршрута вместо пути, чтобы id не раздували кардинальность
		if route := c.FullPath(); route != "" {
			return route
		}
		return "unmatched"
	}

	corsConfig := cors.DefaultConfig()
	allowedOrigins := cfg.GetAllowedOrigins()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
		zap.L().Info("CORSAllowedOrigins not set, allowing default", zap.String("origin", "http://localhost:3000"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", sharedMiddleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)
	router.GET("/ws", wsHandler.ServeWS)

	storyHandler.RegisterRoutes(router, newWriteLimiter(redisClient, cfg.WriteRateLimit))

	// Prometheus middleware после регистрации роутов
	p.Use(router)

	// --- Start Background Workers ---
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		hub.Run(appCtx)
	}()
	go func() {
		defer wg.Done()
		if err := eventConsumer.Run(appCtx); err != nil {
			zap.L().Error("StoryEventConsumer stopped with error", zap.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		maintenanceWorker.Run(appCtx)
	}()

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	// Фоновые задачи останавливаем после HTTP, чтобы хаб закрыл оставшиеся сокеты
	stopApp()
	wg.Wait()

	zap.L().Info("Server exiting")
}

// newWriteLimiter ограничивает запись по пользователю. limit == 0 отключает лимит.
func newWriteLimiter(redisClient *redis.Client, limit uint) gin.HandlerFunc {
	if limit == 0 {
		zap.L().Info("Write rate limit disabled")
		return nil
	}
	store := rateli.RedisStore(&rateli.RedisOptions{
		RedisClient: redisClient,
		Rate:        time.Minute,
		Limit:       limit,
	})
	return rateli.RateLimiter(store, &rateli.Options{
		ErrorHandler: func(c *gin.Context, info rateli.Info) {
			zap.L().Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Code:    models.ErrCodeTooManyRequests,
				Message: "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: writeLimiterKey,
	})
}

// writeLimiterKey - пользователь, если он аутентифицирован, иначе IP.
func writeLimiterKey(c *gin.Context) string {
	if v, ok := c.Get(sharedMiddleware.ContextUserIDKey); ok {
		if userID, ok := v.(uuid.UUID); ok {
			return "user:" + userID.String()
		}
	}
	return "ip:" + c.ClientIP()
}

// setupPostgres initializes the PostgreSQL connection pool with retry logic.
func setupPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	zap.L().Info("Attempting to connect to PostgreSQL",
		zap.String("host", cfg.DBHost),
		zap.Int("max_retries", connectMaxRetries),
		zap.Duration("retry_delay", connectRetryDelay),
	)
	pool, err := pgdatabase.Connect(ctx, pgdatabase.Config{
		DSN:             cfg.GetDSN(),
		MaxConns:        cfg.DBMaxConns,
		MaxConnIdleTime: cfg.DBIdleTime,
		MaxRetries:      connectMaxRetries,
		RetryDelay:      connectRetryDelay,
		OnRetry: func(attempt int, err error) {
			zap.L().Warn("Postgres connection failed, retrying...",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", connectMaxRetries),
				zap.Error(err),
			)
		},
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("Connected to PostgreSQL")
	return pool, nil
}

// setupRedis initializes the Redis client with retry logic.
func setupRedis(cfg *config.Config) (*redis.Client, error) {
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	zap.L().Info("Attempting to connect and ping Redis", zap.String("address", redisOpts.Addr), zap.Int("db", redisOpts.DB))

	var lastErr error
	for attempt := 1; attempt <= connectMaxRetries; attempt++ {
		client := redis.NewClient(redisOpts)

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := client.Ping(pingCtx).Result()
		pingCancel()

		if err == nil {
			zap.L().Info("Connected to Redis", zap.Int("attempt", attempt))
			return client, nil
		}

		client.Close()
		lastErr = err
		zap.L().Warn("Redis ping failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", connectMaxRetries),
			zap.Error(err),
		)
		if attempt < connectMaxRetries {
			time.Sleep(connectRetryDelay)
		}
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", connectMaxRetries, lastErr)
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками.
func connectRabbitMQ(rawURL string, logger *zap.Logger) (*amqp091.Connection, error) {
	var conn *amqp091.Connection
	var err error
	logger.Info("Attempting to connect to RabbitMQ",
		zap.String("url", maskURLPassword(rawURL)),
		zap.Int("max_retries", connectMaxRetries),
		zap.Duration("retry_delay", connectRetryDelay),
	)
	for attempt := 1; attempt <= connectMaxRetries; attempt++ {
		conn, err = amqp091.Dial(rawURL)
		if err == nil {
			logger.Info("Connected to RabbitMQ", zap.Int("attempt", attempt))
			go func() {
				notifyClose := conn.NotifyClose(make(chan *amqp091.Error, 1))
				if closeErr := <-notifyClose; closeErr != nil {
					logger.Error("RabbitMQ connection closed unexpectedly", zap.Error(closeErr))
				} else {
					logger.Info("RabbitMQ connection closed gracefully.")
				}
			}()
			return conn, nil
		}
		logger.Warn("RabbitMQ connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", connectMaxRetries),
			zap.Error(err),
		)
		if attempt < connectMaxRetries {
			time.Sleep(connectRetryDelay)
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", connectMaxRetries, err)
}

// maskURLPassword скрывает пароль в URL для логов.
func maskURLPassword(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
