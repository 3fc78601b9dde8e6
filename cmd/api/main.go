// @title TusAI API
// @version 1.0
// @description Backend API for the TusAI exam preparation service.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"tusai/internal/adapter"
	"tusai/internal/adapter/questionsource"
	"tusai/internal/cache"
	"tusai/internal/config"
	"tusai/internal/database"
	"tusai/internal/domain"
	"tusai/internal/handler"
	"tusai/internal/logger"
	"tusai/internal/middleware"
	"tusai/internal/repository"
	"tusai/internal/service"
	"tusai/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

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

	// Connect to database
	db, err := database.NewSQLXPostgresDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Initialize repositories
	profileRepository := repository.NewProfileRepository(db)
	historyRepository := repository.NewHistoryRepository(db)
	reportRepository := repository.NewReportRepository(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	// Initialize Redis client and cache adapter
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	appLogger.Info("Successfully connected to Redis")
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
	appLogger.Info("RedisCacheAdapter initialized")

	// Initialize question source
	var questionSource domain.QuestionSource
	switch cfg.QuestionSource.Source {
	case "ollama":
		appLogger.Info("Initializing Ollama question source",
			zap.String("server_url", cfg.QuestionSource.Ollama.ServerURL),
			zap.String("model", cfg.QuestionSource.Ollama.Model))
		questionSource = questionsource.NewOllamaSource(cfg.QuestionSource.Ollama)
	case "static":
		appLogger.Info("Initializing static question source")
		questionSource = questionsource.NewStaticSource()
	default:
		appLogger.Fatal("Unsupported question source. Please check QUESTION_SOURCE in config.",
			zap.String("source", cfg.QuestionSource.Source))
	}

	// Initialize services
	sessionStore := session.NewStore()
	quizService := service.NewQuizService(sessionStore, questionSource, historyRepository, reportRepository)

	authService, err := service.NewAuthService(profileRepository, cfg)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}
	appLogger.Info("AuthService initialized")

	profileService := service.NewProfileService(profileRepository, txManager)
	historyService := service.NewHistoryService(historyRepository, profileRepository, cacheAdapter, cfg.Leaderboard.CacheTTL)
	exportService := service.NewExportService()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, cfg)
	profileHandler := handler.NewProfileHandler(profileService)
	quizHandler := handler.NewQuizHandler(quizService, profileService)
	historyHandler := handler.NewHistoryHandler(historyService, profileService, exportService)
	billingHandler := handler.NewBillingHandler(profileService, cfg)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	// Add request logging middleware
	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	// Swagger handler
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API group
	apiGroup := app.Group("/api")

	// Auth routes
	authGroup := apiGroup.Group("/auth")
	authGroup.Get("/google/login", authHandler.GoogleLogin)
	authGroup.Get("/google/callback", authHandler.GoogleCallback)
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Profile routes (all protected)
	profileGroup := apiGroup.Group("/profile", middleware.Protected(authService))
	profileGroup.Get("/", profileHandler.GetMyProfile)
	profileGroup.Put("/", profileHandler.UpdateMyProfile)

	// Quiz session routes (all protected)
	quizGroup := apiGroup.Group("/quizzes", middleware.Protected(authService))
	quizGroup.Post("/", quizHandler.StartQuiz)
	quizGroup.Get("/:id", quizHandler.GetSession)
	quizGroup.Post("/:id/answers", quizHandler.SelectAnswer)
	quizGroup.Post("/:id/navigate", quizHandler.Navigate)
	quizGroup.Post("/:id/finish", quizHandler.FinishQuiz)
	quizGroup.Post("/:id/reports", quizHandler.ReportQuestion)

	// History and leaderboard routes
	historyGroup := apiGroup.Group("/history", middleware.Protected(authService))
	historyGroup.Get("/", historyHandler.ListHistory)
	historyGroup.Get("/:id", historyHandler.GetRecord)
	historyGroup.Get("/:id/export", historyHandler.ExportRecord)

	apiGroup.Get("/leaderboard", middleware.Protected(authService), historyHandler.GetLeaderboard)
	apiGroup.Get("/subjects", middleware.OptionalAuth(authService), quizHandler.GetSubjects)

	// Billing webhook is authenticated by a shared secret header instead of a JWT
	apiGroup.Post("/billing/webhook", billingHandler.Webhook)

	// Start server
	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", os.Getenv("ENV")))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
