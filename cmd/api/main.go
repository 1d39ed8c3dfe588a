// @title PDF Quiz API
// @version 1.0
// @description Upload a PDF, get multiple-choice questions generated from its text, answer them and get a score.
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8090
// @BasePath /api
// @schemes http https
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"pdf-quiz/internal/adapter"
	"pdf-quiz/internal/adapter/document"
	"pdf-quiz/internal/adapter/quizgen"
	"pdf-quiz/internal/cache"
	"pdf-quiz/internal/config"
	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/handler"
	"pdf-quiz/internal/logger"
	"pdf-quiz/internal/middleware"
	"pdf-quiz/internal/presenter"
	"pdf-quiz/internal/service"

	_ "pdf-quiz/cmd/api/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx := context.Background()

	// Redis is optional; sessions live in process memory without it
	var cacheAdapter domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		appLogger.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
	} else {
		appLogger.Warn("Redis address not configured, using in-memory cache")
		memoryCache := adapter.NewMemoryCacheAdapter()
		defer memoryCache.Close()
		cacheAdapter = memoryCache
	}

	generator, err := quizgen.NewFromConfig(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create quiz generator", zap.Error(err))
	}

	ingestor, err := document.NewPDFIngestor(cfg.Document.UploadPath, cfg.Document.PageSeparator, cfg.Quiz.MaxPages, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create PDF ingestor", zap.Error(err))
	}

	// Initialize services
	quizCache := service.NewQuizCacheService(cacheAdapter, cfg.QuizTTL(), quizgen.CacheSettings(cfg.Quiz)...)
	sessionStore := service.NewSessionStore(cacheAdapter, cfg.SessionTTL())
	sessionService := service.NewQuizSessionService(ingestor, generator, quizCache, sessionStore)
	appLogger.Info("QuizSessionService initialized")

	views, err := presenter.NewViews()
	if err != nil {
		appLogger.Fatal("Failed to parse page templates", zap.Error(err))
	}

	// Initialize handlers
	quizHandler := handler.NewQuizHandler(sessionService, cacheAdapter)
	webHandler := handler.NewWebHandler(sessionService)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		Views:        views,
		ErrorHandler: middleware.ErrorHandler(webHandler.RenderError),
	})

	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)

	handler.SetupRoutes(app, quizHandler, webHandler)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
